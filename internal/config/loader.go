package config

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

const (
	EnvPrefix       = "FLIGHTWATCH"
	DefaultFileName = "flightwatch"
)

// Load reads the document at path (or ./flightwatch.yaml when path is
// empty), applies FLIGHTWATCH_ environment overrides, reads secrets and
// validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(DefaultFileName)
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, &ConfigError{
				Type:    ErrReading,
				Message: "failed to read config file",
				Err:     err,
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrParsing,
			Message: "failed to decode config",
			Err:     err,
		}
	}

	secrets, err := LoadSecrets()
	if err != nil {
		return nil, err
	}
	cfg.Secrets = secrets
	if secrets.AmadeusHost != "" {
		cfg.Amadeus.Host = secrets.AmadeusHost
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("trip.max_stops", 1)
	v.SetDefault("trip.max_duration_hours", 20)
	v.SetDefault("trip.currency", "EUR")

	v.SetDefault("search.concurrency", 4)
	v.SetDefault("search.timeout", "20s")
	v.SetDefault("search.max_results", 50)
	v.SetDefault("search.max_queries", 500)
	v.SetDefault("search.rate_limit.requests_per_second", 5)
	v.SetDefault("search.rate_limit.burst", 5)
	v.SetDefault("search.retry.max_retries", 3)
	v.SetDefault("search.retry.delays", []string{"250ms", "500ms", "1s"})

	v.SetDefault("amadeus.host", "https://test.api.amadeus.com")

	v.SetDefault("alerts.telegram.enabled", true)
	v.SetDefault("alerts.webhook.enabled", false)

	v.SetDefault("cache.redis.enabled", false)
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.ttl", "25m")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.interval", "0s")
}

// LoadSecrets loads .env when present, then reads the secret variables.
// Variables already set in the environment win over .env.
func LoadSecrets() (Secrets, error) {
	_ = godotenv.Load()

	var s Secrets
	if err := envconfig.Process("", &s); err != nil {
		return Secrets{}, &ConfigError{
			Type:    ErrSecrets,
			Message: "failed to process secret environment",
			Err:     err,
		}
	}
	return s, nil
}

// Validate checks struct tags and the cross-field rules tags cannot express.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return &ConfigError{
			Type:    ErrValidation,
			Message: "configuration validation failed",
			Err:     err,
		}
	}

	if c.Alerts.Webhook.Enabled && c.Alerts.Webhook.URL == "" {
		return &ConfigError{
			Type:    ErrValidation,
			Message: "alerts.webhook.url is required when the webhook is enabled",
		}
	}
	return nil
}
