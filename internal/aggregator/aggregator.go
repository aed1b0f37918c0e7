package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dharmasatrya/flightwatch/internal/alert"
	"github.com/dharmasatrya/flightwatch/internal/expander"
	"github.com/dharmasatrya/flightwatch/internal/filter"
	"github.com/dharmasatrya/flightwatch/internal/metrics"
	"github.com/dharmasatrya/flightwatch/internal/models"
	"github.com/dharmasatrya/flightwatch/internal/normalize"
	"github.com/dharmasatrya/flightwatch/internal/notify"
	"github.com/dharmasatrya/flightwatch/internal/providers"
	"github.com/dharmasatrya/flightwatch/internal/ranking"
	"github.com/dharmasatrya/flightwatch/internal/ratelimit"
)

type Config struct {
	Concurrency int
	Timeout     time.Duration
	MaxResults  int
	MaxQueries  int
	RateLimiter *ratelimit.SourceLimiter
}

func DefaultConfig() Config {
	return Config{
		Concurrency: 4,
		Timeout:     20 * time.Second,
		MaxResults:  50,
		MaxQueries:  expander.DefaultMaxQueries,
	}
}

// Runner executes one search run: expand, query every tuple, keep the
// cheapest acceptable offer per tuple and gate it against the threshold.
type Runner struct {
	provider   providers.Provider
	normalizer normalize.Normalizer
	config     Config
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

type Option func(*Runner)

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

func WithNormalizer(n normalize.Normalizer) Option {
	return func(r *Runner) {
		r.normalizer = n
	}
}

func NewRunner(provider providers.Provider, config Config, opts ...Option) *Runner {
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}

	r := &Runner{
		provider:   provider,
		normalizer: normalize.Amadeus{},
		config:     config,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// TupleOutcome is the result of one query tuple plus what happened to its
// offers on the way.
type TupleOutcome struct {
	models.MatchResult

	RawOffers             int
	NormalizationFailures map[normalize.Reason]int
	Rejections            map[filter.Reason]int

	// FellBack is set when a soft departure preference let an early
	// departure win.
	FellBack bool
	Err      error
}

type Report struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Spec      *models.TripSpecification
	Outcomes  []TupleOutcome
	Alerts    []alert.Alert
}

// Results returns the match results in expansion order.
func (r *Report) Results() []models.MatchResult {
	results := make([]models.MatchResult, len(r.Outcomes))
	for i, o := range r.Outcomes {
		results[i] = o.MatchResult
	}
	return results
}

func (r *Report) Matched() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Matched() {
			n++
		}
	}
	return n
}

func (r *Report) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

// Plan expands spec into the tuples a run would query.
func (r *Runner) Plan(spec *models.TripSpecification) ([]models.QueryTuple, error) {
	return expander.ExpandWithLimit(spec, r.config.MaxQueries)
}

// Run never fails because of a single tuple: source and normalization
// failures end up in the report. Only an invalid trip is an error.
func (r *Runner) Run(ctx context.Context, spec *models.TripSpecification) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Spec:      spec,
	}
	logger := r.logger.With("run_id", report.RunID)

	tuples, err := r.Plan(spec)
	if err != nil {
		report.Duration = time.Since(report.StartedAt)
		r.metrics.RecordRun(metrics.RunFailed, report.Duration, time.Now())
		logger.Error("run aborted", "error", err)
		return nil, fmt.Errorf("expand trip: %w", err)
	}

	logger.Info("run started",
		"provider", r.provider.Name(),
		"tuples", len(tuples),
		"concurrency", r.config.Concurrency,
	)

	report.Outcomes = make([]TupleOutcome, len(tuples))

	var g errgroup.Group
	g.SetLimit(r.config.Concurrency)

	for i, q := range tuples {
		g.Go(func() error {
			// Failures stay with their tuple; the group never cancels.
			report.Outcomes[i] = r.searchTuple(ctx, logger, spec, q)
			return nil
		})
	}
	_ = g.Wait()

	report.Alerts = alert.Collect(report.Results(), spec)
	report.Duration = time.Since(report.StartedAt)

	r.metrics.RecordAlerts(len(report.Alerts))
	r.metrics.RecordRun(metrics.RunCompleted, report.Duration, time.Now())

	logger.Info("run completed",
		"tuples", len(tuples),
		"matched", report.Matched(),
		"failed", report.Failed(),
		"alerts", len(report.Alerts),
		"duration", report.Duration,
	)

	return report, nil
}

func (r *Runner) searchTuple(ctx context.Context, logger *slog.Logger, spec *models.TripSpecification, q models.QueryTuple) TupleOutcome {
	source := r.provider.Name()
	outcome := TupleOutcome{MatchResult: models.NoMatch(q)}
	logger = logger.With("query", q.Key())

	if r.config.RateLimiter != nil {
		if err := r.config.RateLimiter.Wait(ctx, source); err != nil {
			return r.sourceFailed(logger, outcome, providers.NewSourceError(source, q, err))
		}
	}

	query := models.NewSearchQuery(spec, q, r.config.MaxResults)

	callCtx := ctx
	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
	}

	raws, err := r.provider.Search(callCtx, query)
	if err != nil {
		if !errors.Is(err, providers.ErrSourceQuery) {
			err = providers.NewSourceError(source, q, err)
		}
		return r.sourceFailed(logger, outcome, err)
	}
	outcome.RawOffers = len(raws)

	offers := make([]models.FlightOffer, 0, len(raws))
	for _, raw := range raws {
		offer, err := r.normalizer.Normalize(raw, query)
		if err != nil {
			reason := normalize.ReasonOf(err)
			if outcome.NormalizationFailures == nil {
				outcome.NormalizationFailures = make(map[normalize.Reason]int)
			}
			outcome.NormalizationFailures[reason]++
			r.metrics.RecordNormalizationFailure(string(reason))
			logger.Debug("offer dropped", "reason", reason, "error", err)
			continue
		}
		offers = append(offers, offer)
	}
	r.metrics.RecordNormalized(len(offers))

	filtered := filter.Apply(offers, spec)
	outcome.Rejections = filtered.Rejected
	for reason, n := range filtered.Rejected {
		r.metrics.RecordRejections(string(reason), n)
	}
	if len(filtered.Rejected) > 0 {
		logger.Debug("offers rejected", "rejections", formatCounts(filtered.Rejected))
	}

	candidates, fellBack := filtered.Candidates(spec)
	outcome.FellBack = fellBack
	outcome.MatchResult = ranking.SelectCheapest(q, candidates)

	if outcome.Matched() {
		r.metrics.RecordWinner()
		r.metrics.RecordQuery(source, metrics.OutcomeMatched)
		logger.Debug("cheapest offer selected",
			"price", outcome.Winner.Price.Amount.StringFixed(2),
			"currency", outcome.Winner.Price.Currency,
			"fell_back", fellBack,
		)
	} else {
		r.metrics.RecordQuery(source, metrics.OutcomeNoMatch)
	}

	return outcome
}

func (r *Runner) sourceFailed(logger *slog.Logger, outcome TupleOutcome, err error) TupleOutcome {
	outcome.Err = err
	r.metrics.RecordQuery(r.provider.Name(), metrics.OutcomeFailed)
	logger.Warn("source query failed", "error", err)
	return outcome
}

// Notify renders the report's alerts and delivers them through sink.
// Nothing is sent when there are no alerts. A delivery failure comes back
// as a *notify.DeliveryError and never invalidates the run.
func (r *Runner) Notify(ctx context.Context, report *Report, sink notify.Sink) error {
	message, ok := alert.NewFormatter(report.Spec).Format(report.Alerts)
	logger := r.logger.With("run_id", report.RunID)
	if !ok {
		logger.Info("nothing to alert")
		return nil
	}

	if err := sink.Send(ctx, message); err != nil {
		var delivery *notify.DeliveryError
		if !errors.As(err, &delivery) {
			delivery = &notify.DeliveryError{Sink: sink.Name(), Err: err}
		}
		for _, name := range strings.Split(delivery.Sink, ",") {
			r.metrics.RecordDeliveryFailure(name)
		}
		logger.Warn("alert delivery failed", "sink", delivery.Sink, "error", delivery.Err)
		return delivery
	}

	logger.Info("alerts delivered", "sink", sink.Name(), "alerts", len(report.Alerts))
	return nil
}

func formatCounts(counts map[filter.Reason]int) string {
	parts := make([]string, 0, len(counts))
	for reason, n := range counts {
		parts = append(parts, fmt.Sprintf("%s=%d", reason, n))
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}
