package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dharmasatrya/flightwatch/internal/aggregator"
	"github.com/dharmasatrya/flightwatch/internal/models"
	"github.com/dharmasatrya/flightwatch/internal/notify"
)

var ErrRunInProgress = errors.New("a run is already in progress")

// RunHandler triggers search runs for one trip. Runs are serialized: a
// trigger that arrives while a run is in flight is refused.
type RunHandler struct {
	runner *aggregator.Runner
	spec   *models.TripSpecification
	sink   notify.Sink
	logger *slog.Logger

	running sync.Mutex
}

type RunResult struct {
	Report      *aggregator.Report
	DeliveryErr error
}

func NewRunHandler(runner *aggregator.Runner, spec *models.TripSpecification, sink notify.Sink, logger *slog.Logger) *RunHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RunHandler{
		runner: runner,
		spec:   spec,
		sink:   sink,
		logger: logger,
	}
}

// Execute performs one run and delivers its alerts. It is shared by the
// HTTP trigger and the interval ticker.
func (h *RunHandler) Execute(ctx context.Context) (*RunResult, error) {
	if !h.running.TryLock() {
		return nil, ErrRunInProgress
	}
	defer h.running.Unlock()

	report, err := h.runner.Run(ctx, h.spec)
	if err != nil {
		return nil, err
	}

	return &RunResult{
		Report:      report,
		DeliveryErr: h.runner.Notify(ctx, report, h.sink),
	}, nil
}

func (h *RunHandler) Trigger(c echo.Context) error {
	result, err := h.Execute(c.Request().Context())
	switch {
	case errors.Is(err, ErrRunInProgress):
		return c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:   "run_in_progress",
			Message: err.Error(),
			Code:    http.StatusConflict,
		})
	case errors.Is(err, models.ErrInvalidSpecification):
		return c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
			Error:   "invalid_specification",
			Message: err.Error(),
			Code:    http.StatusUnprocessableEntity,
		})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "run_error",
			Message: "Failed to run search: " + err.Error(),
			Code:    http.StatusInternalServerError,
		})
	}

	return c.JSON(http.StatusOK, buildRunResponse(result))
}

func (h *RunHandler) Queries(c echo.Context) error {
	tuples, err := h.runner.Plan(h.spec)
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
			Error:   "invalid_specification",
			Message: err.Error(),
			Code:    http.StatusUnprocessableEntity,
		})
	}

	return c.JSON(http.StatusOK, models.QueriesResponse{
		Total:   len(tuples),
		Queries: tuples,
	})
}

func buildRunResponse(result *RunResult) models.RunResponse {
	report := result.Report

	meta := models.RunMetadata{
		RunID:          report.RunID,
		StartedAt:      report.StartedAt.UTC(),
		DurationMs:     report.Duration.Milliseconds(),
		QueriesTotal:   len(report.Outcomes),
		QueriesMatched: report.Matched(),
		QueriesFailed:  report.Failed(),
		Alerts:         len(report.Alerts),
		Delivered:      len(report.Alerts) > 0 && result.DeliveryErr == nil,
	}
	if result.DeliveryErr != nil {
		meta.DeliveryError = result.DeliveryErr.Error()
	}

	outcomes := make([]models.QueryOutcome, 0, len(report.Outcomes))
	for _, o := range report.Outcomes {
		out := models.QueryOutcome{
			Query:     o.Query,
			Winner:    o.Winner,
			RawOffers: o.RawOffers,
			FellBack:  o.FellBack,
		}
		if len(o.NormalizationFailures) > 0 {
			out.NormalizationFailures = make(map[string]int, len(o.NormalizationFailures))
			for reason, n := range o.NormalizationFailures {
				out.NormalizationFailures[string(reason)] = n
			}
		}
		if len(o.Rejections) > 0 {
			out.Rejections = make(map[string]int, len(o.Rejections))
			for reason, n := range o.Rejections {
				out.Rejections[string(reason)] = n
			}
		}
		if o.Err != nil {
			out.Error = o.Err.Error()
		}
		outcomes = append(outcomes, out)
	}

	return models.RunResponse{
		Metadata: meta,
		Outcomes: outcomes,
	}
}

func HealthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
