// Package main is the entrypoint for the scheduled search Lambda function.
//
// An EventBridge schedule invokes it. Each invocation runs every query tuple
// once and delivers alerts. Configuration is loaded once per cold start from
// the file named by FLIGHTWATCH_CONFIG, with secrets from the environment.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/dharmasatrya/flightwatch/internal/app"
	"github.com/dharmasatrya/flightwatch/internal/config"
)

// RunSummary is returned to the Lambda runtime after each invocation.
type RunSummary struct {
	RunID       string `json:"run_id"`
	Queries     int    `json:"queries"`
	Matched     int    `json:"matched"`
	Failed      int    `json:"failed"`
	Alerts      int    `json:"alerts"`
	DeliveryErr string `json:"delivery_error,omitempty"`
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	logger.Info("flightwatch Lambda initializing (cold start)")

	cfg, err := config.Load(os.Getenv("FLIGHTWATCH_CONFIG"))
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	a, err := app.New(cfg, app.Options{
		Stdout:    os.Stdout,
		Stderr:    os.Stdout,
		UserAgent: "flightwatch-lambda",
	})
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}

	lambda.Start(newHandler(a))
}

func newHandler(a *app.App) func(ctx context.Context, event events.CloudWatchEvent) (*RunSummary, error) {
	return func(ctx context.Context, event events.CloudWatchEvent) (*RunSummary, error) {
		a.Logger.Info("scheduled run triggered", "event_id", event.ID, "source", event.Source)

		report, err := a.Runner.Run(ctx, a.Spec)
		if err != nil {
			return nil, err
		}

		summary := &RunSummary{
			RunID:   report.RunID,
			Queries: len(report.Outcomes),
			Matched: report.Matched(),
			Failed:  report.Failed(),
			Alerts:  len(report.Alerts),
		}

		if err := a.Runner.Notify(ctx, report, a.Sink); err != nil {
			summary.DeliveryErr = err.Error()
		}

		return summary, nil
	}
}
