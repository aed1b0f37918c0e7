// Package app wires configuration into a ready-to-run search pipeline. The
// CLI and the Lambda entry point share it.
package app

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dharmasatrya/flightwatch/internal/aggregator"
	"github.com/dharmasatrya/flightwatch/internal/cache"
	"github.com/dharmasatrya/flightwatch/internal/config"
	"github.com/dharmasatrya/flightwatch/internal/metrics"
	"github.com/dharmasatrya/flightwatch/internal/models"
	"github.com/dharmasatrya/flightwatch/internal/notify"
	"github.com/dharmasatrya/flightwatch/internal/providers"
	"github.com/dharmasatrya/flightwatch/internal/ratelimit"
)

var ErrNoCredentials = errors.New("AMADEUS_API_KEY and AMADEUS_API_SECRET must be set, or pass an offers file")

type Options struct {
	// OffersFile replaces the Amadeus source with canned offers.
	OffersFile string

	// DryRun prints alerts instead of sending them.
	DryRun bool

	// UserAgent is sent on source requests when set.
	UserAgent string

	Stdout io.Writer
	Stderr io.Writer
}

type App struct {
	Config  *config.Config
	Spec    *models.TripSpecification
	Runner  *aggregator.Runner
	Sink    notify.Sink
	Metrics *metrics.Metrics
	Limiter *ratelimit.SourceLimiter
	Logger  *slog.Logger

	tokens cache.TokenCache
}

func New(cfg *config.Config, opts Options) (*App, error) {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	logger := NewLogger(cfg.Logging, opts.Stderr)

	spec, err := cfg.TripSpecification()
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:  cfg,
		Spec:    spec,
		Metrics: metrics.New(),
		Logger:  logger,
	}

	provider, err := a.buildProvider(opts)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Limiter = ratelimit.NewSourceLimiter(ratelimit.RateLimitConfig{
		RequestsPerSecond: cfg.Search.RateLimit.RequestsPerSecond,
		BurstSize:         cfg.Search.RateLimit.Burst,
	})
	for source, limit := range cfg.Search.RateLimit.Sources {
		a.Limiter.SetSourceLimit(strings.ToLower(source), ratelimit.RateLimitConfig{
			RequestsPerSecond: limit.RequestsPerSecond,
			BurstSize:         limit.Burst,
		})
	}

	a.Runner = aggregator.NewRunner(provider, aggregator.Config{
		Concurrency: cfg.Search.Concurrency,
		Timeout:     cfg.Search.Timeout,
		MaxResults:  cfg.Search.MaxResults,
		MaxQueries:  cfg.Search.MaxQueries,
		RateLimiter: a.Limiter,
	},
		aggregator.WithLogger(logger),
		aggregator.WithMetrics(a.Metrics),
	)

	a.Sink, err = a.buildSink(opts)
	if err != nil {
		a.Close()
		return nil, err
	}

	return a, nil
}

func (a *App) buildProvider(opts Options) (providers.Provider, error) {
	if opts.OffersFile != "" {
		a.Logger.Info("using offers file", "path", opts.OffersFile)
		return providers.NewFixtureProviderFromFile(opts.OffersFile)
	}

	cfg := a.Config
	if !cfg.Secrets.HasAmadeus() {
		return nil, ErrNoCredentials
	}

	if cfg.Cache.Redis.Enabled {
		redisCache, err := cache.NewRedisTokenCache(cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.tokens = redisCache
		a.Logger.Info("redis token cache enabled", "addr", cfg.Cache.Redis.Addr, "ttl", cfg.Cache.Redis.TTL)
	} else {
		a.tokens = cache.NewMemoryTokenCache()
	}

	clientOpts := []providers.ClientOption{providers.WithHTTPClient(&http.Client{Timeout: cfg.Search.Timeout})}
	if opts.UserAgent != "" {
		clientOpts = append(clientOpts, providers.WithUserAgent(opts.UserAgent))
	}

	client := providers.NewHTTPClient("amadeus", providers.RetryPolicy{
		MaxRetries: cfg.Search.Retry.MaxRetries,
		Delays:     cfg.Search.Retry.Delays,
		MaxWait:    10 * time.Second,
	}, clientOpts...)

	return providers.NewAmadeusProvider(providers.AmadeusConfig{
		Host:        cfg.Amadeus.Host,
		APIKey:      cfg.Secrets.AmadeusAPIKey,
		APISecret:   cfg.Secrets.AmadeusAPISecret,
		MaxTokenTTL: cfg.Cache.Redis.TTL,
	}, client, a.tokens, a.Logger)
}

func (a *App) buildSink(opts Options) (notify.Sink, error) {
	console := notify.NewConsoleSink(opts.Stdout)
	if opts.DryRun {
		return console, nil
	}

	cfg := a.Config
	var sinks notify.Multi

	if cfg.Alerts.Telegram.Enabled {
		if cfg.Secrets.HasTelegram() {
			telegram, err := notify.NewTelegramSink(cfg.Secrets.TelegramBotToken, cfg.Secrets.TelegramChatID)
			if err != nil {
				return nil, err
			}
			sinks = append(sinks, telegram)
		} else {
			a.Logger.Warn("telegram enabled but TELEGRAM_BOT_TOKEN or TELEGRAM_CHAT_ID is missing")
		}
	}

	if cfg.Alerts.Webhook.Enabled {
		webhook, err := notify.NewWebhookSink(cfg.Alerts.Webhook.URL, cfg.Alerts.Webhook.Secret)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, webhook)
	}

	switch len(sinks) {
	case 0:
		a.Logger.Info("no alert sink configured, printing alerts")
		return console, nil
	case 1:
		return sinks[0], nil
	default:
		return sinks, nil
	}
}

func (a *App) Close() error {
	if a.tokens != nil {
		return a.tokens.Close()
	}
	return nil
}

// NewLogger builds the process logger from the logging section.
func NewLogger(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}
