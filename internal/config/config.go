package config

import (
	"fmt"
	"time"
)

// Config is the flightwatch configuration document.
type Config struct {
	Trip    TripConfig    `mapstructure:"trip"`
	Search  SearchConfig  `mapstructure:"search"`
	Amadeus AmadeusConfig `mapstructure:"amadeus"`
	Alerts  AlertsConfig  `mapstructure:"alerts"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Logging LoggingConfig `mapstructure:"logging"`
	Server  ServerConfig  `mapstructure:"server"`

	// Secrets come from the environment only.
	Secrets Secrets `mapstructure:"-"`
}

type TripConfig struct {
	Origins            []string         `mapstructure:"origins" validate:"required,min=1,dive,required"`
	Destination        string           `mapstructure:"destination" validate:"required"`
	Outbound           WindowConfig     `mapstructure:"outbound"`
	Return             WindowConfig     `mapstructure:"return"`
	Passengers         PassengersConfig `mapstructure:"passengers"`
	MaxStops           int              `mapstructure:"max_stops" validate:"gte=0"`
	MaxDurationHours   float64          `mapstructure:"max_duration_hours" validate:"gt=0"`
	PreferredDeparture *DepartureConfig `mapstructure:"preferred_departure"`

	// PriceThreshold is kept as text so decimal amounts survive decoding.
	PriceThreshold string `mapstructure:"price_threshold"`
	Currency       string `mapstructure:"currency" validate:"required"`
}

type WindowConfig struct {
	Start string `mapstructure:"start" validate:"required,datetime=2006-01-02"`
	End   string `mapstructure:"end" validate:"required,datetime=2006-01-02"`
}

type PassengersConfig struct {
	Adults    int   `mapstructure:"adults" validate:"gte=0"`
	ChildAges []int `mapstructure:"child_ages" validate:"dive,gte=0,lte=17"`
}

type DepartureConfig struct {
	After   string          `mapstructure:"after" validate:"required,datetime=15:04"`
	Origins map[string]bool `mapstructure:"origins"`
	Soft    bool            `mapstructure:"soft"`
}

type SearchConfig struct {
	Concurrency int             `mapstructure:"concurrency" validate:"gte=1"`
	Timeout     time.Duration   `mapstructure:"timeout" validate:"gt=0"`
	MaxResults  int             `mapstructure:"max_results" validate:"gte=1,lte=250"`
	MaxQueries  int             `mapstructure:"max_queries" validate:"gte=0"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	Retry       RetryConfig     `mapstructure:"retry"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"gte=0"`
	Burst             int     `mapstructure:"burst" validate:"gte=0"`

	// Sources overrides the limit per offer source name, e.g. "amadeus".
	Sources map[string]SourceRateLimit `mapstructure:"sources" validate:"dive"`
}

type SourceRateLimit struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"gte=0"`
	Burst             int     `mapstructure:"burst" validate:"gte=0"`
}

type RetryConfig struct {
	MaxRetries int             `mapstructure:"max_retries" validate:"gte=0"`
	Delays     []time.Duration `mapstructure:"delays" validate:"dive,gte=0"`
}

type AmadeusConfig struct {
	Host string `mapstructure:"host" validate:"required,url"`
}

type AlertsConfig struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
}

type TelegramConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url" validate:"omitempty,url"`
	Secret  string `mapstructure:"secret"`
}

type CacheConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db" validate:"gte=0"`
	TTL      time.Duration `mapstructure:"ttl" validate:"gte=0"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

type ServerConfig struct {
	Listen   string        `mapstructure:"listen" validate:"required"`
	Interval time.Duration `mapstructure:"interval" validate:"gte=0"`
}

// Secrets are read with envconfig after an optional .env file.
type Secrets struct {
	AmadeusAPIKey    string `envconfig:"AMADEUS_API_KEY"`
	AmadeusAPISecret string `envconfig:"AMADEUS_API_SECRET"`
	AmadeusHost      string `envconfig:"AMADEUS_HOST"`
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   string `envconfig:"TELEGRAM_CHAT_ID"`
}

func (s Secrets) HasAmadeus() bool {
	return s.AmadeusAPIKey != "" && s.AmadeusAPISecret != ""
}

func (s Secrets) HasTelegram() bool {
	return s.TelegramBotToken != "" && s.TelegramChatID != ""
}

// ConfigErrorType categorizes configuration failures.
type ConfigErrorType string

const (
	ErrReading    ConfigErrorType = "READ_FAILED"
	ErrParsing    ConfigErrorType = "PARSING_FAILED"
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	ErrSecrets    ConfigErrorType = "SECRETS_FAILED"
)

type ConfigError struct {
	Type    ConfigErrorType
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
