package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dharmasatrya/flightwatch/internal/app"
	"github.com/dharmasatrya/flightwatch/internal/handler"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(root *rootOptions) *cobra.Command {
	var (
		listen     string
		offersFile string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve run triggers, health and metrics over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Server.Listen = listen
			}

			a, err := app.New(cfg, app.Options{
				OffersFile: offersFile,
				UserAgent:  userAgent(),
				Stdout:     cmd.OutOrStdout(),
				Stderr:     cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}
			defer a.Close()

			runs := handler.NewRunHandler(a.Runner, a.Spec, a.Sink, a.Logger)
			e := handler.NewServer(runs, a.Metrics, a.Logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if cfg.Server.Interval > 0 {
				go schedule(ctx, runs, cfg.Server.Interval, a)
			}

			errCh := make(chan error, 1)
			go func() {
				a.Logger.Info("server started", "listen", cfg.Server.Listen)
				errCh <- e.Start(cfg.Server.Listen)
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("server error: %w", err)
			case <-ctx.Done():
				a.Logger.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()

				if err := e.Shutdown(shutdownCtx); err != nil {
					return fmt.Errorf("shutdown error: %w", err)
				}
			}

			a.Logger.Info("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address (default from config)")
	cmd.Flags().StringVar(&offersFile, "offers-file", "", "read offers from a JSON file instead of Amadeus")

	return cmd
}

// schedule triggers a run every interval until ctx is done. A tick that
// lands while a run is still going is skipped.
func schedule(ctx context.Context, runs *handler.RunHandler, interval time.Duration, a *app.App) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := runs.Execute(ctx)
			switch {
			case errors.Is(err, handler.ErrRunInProgress):
				a.Logger.Info("scheduled run skipped, previous run still in progress")
			case err != nil:
				a.Logger.Error("scheduled run failed", "error", err)
			case result.DeliveryErr != nil:
				a.Logger.Warn("scheduled run finished with undelivered alerts", "run_id", result.Report.RunID)
			}
		}
	}
}
