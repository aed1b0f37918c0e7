package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharmasatrya/flightwatch/internal/aggregator"
	"github.com/dharmasatrya/flightwatch/internal/metrics"
	"github.com/dharmasatrya/flightwatch/internal/models"
	"github.com/dharmasatrya/flightwatch/internal/providers"
)

const fixture = `{
  "searches": [
    {"origin": "AMS", "outbound": "2025-07-01", "return": "2025-07-15", "offers": [{
      "id": "1",
      "itineraries": [
        {"duration": "PT2H40M", "segments": [{"departure": {"iataCode": "AMS", "at": "2025-07-01T19:05:00"}, "arrival": {"iataCode": "LIS", "at": "2025-07-01T20:45:00"}, "carrierCode": "TP", "number": "669"}]},
        {"duration": "PT2H50M", "segments": [{"departure": {"iataCode": "LIS", "at": "2025-07-15T06:00:00"}, "arrival": {"iataCode": "AMS", "at": "2025-07-15T09:50:00"}, "carrierCode": "TP", "number": "662"}]}
      ],
      "price": {"currency": "EUR", "grandTotal": "399.80"}
    }]},
    {"origin": "AMS", "outbound": "2025-07-02", "return": "2025-07-15", "error": "upstream timeout"}
  ]
}`

type capturingSink struct {
	messages []string
}

func (s *capturingSink) Name() string { return "capture" }

func (s *capturingSink) Send(ctx context.Context, message string) error {
	s.messages = append(s.messages, message)
	return nil
}

func testSpec(t *testing.T) *models.TripSpecification {
	t.Helper()
	out, err := models.NewDateWindow("2025-07-01", "2025-07-02")
	require.NoError(t, err)
	ret, err := models.NewDateWindow("2025-07-15", "2025-07-16")
	require.NoError(t, err)
	threshold := decimal.RequireFromString("450")

	return &models.TripSpecification{
		Origins:        []string{"AMS"},
		Destination:    "LIS",
		Outbound:       out,
		Return:         ret,
		Passengers:     models.Passengers{Adults: 2},
		MaxStops:       1,
		MaxDuration:    20 * time.Hour,
		PriceThreshold: &threshold,
		Currency:       "EUR",
	}
}

func newTestServer(t *testing.T, spec *models.TripSpecification) (*RunHandler, *capturingSink, http.Handler) {
	t.Helper()
	provider, err := providers.NewFixtureProvider([]byte(fixture))
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New()
	runner := aggregator.NewRunner(provider, aggregator.DefaultConfig(),
		aggregator.WithLogger(logger),
		aggregator.WithMetrics(m),
	)

	sink := &capturingSink{}
	runs := NewRunHandler(runner, spec, sink, logger)
	return runs, sink, NewServer(runs, m, logger)
}

func TestTrigger_RunsAndNotifies(t *testing.T) {
	_, sink, srv := newTestServer(t, testSpec(t))

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.RunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.NotEmpty(t, resp.Metadata.RunID)
	assert.Equal(t, 4, resp.Metadata.QueriesTotal)
	assert.Equal(t, 1, resp.Metadata.QueriesMatched)
	assert.Equal(t, 1, resp.Metadata.QueriesFailed)
	assert.Equal(t, 1, resp.Metadata.Alerts)
	assert.True(t, resp.Metadata.Delivered)

	require.Len(t, resp.Outcomes, 4)
	require.NotNil(t, resp.Outcomes[0].Winner)
	assert.Equal(t, "399.8", resp.Outcomes[0].Winner.Price.Amount.String())
	assert.Contains(t, resp.Outcomes[2].Error, "upstream timeout")

	require.Len(t, sink.messages, 1)
	assert.Contains(t, sink.messages[0], "EUR 399.80")
}

func TestTrigger_ConflictWhileRunning(t *testing.T) {
	runs, _, srv := newTestServer(t, testSpec(t))

	runs.running.Lock()
	defer runs.running.Unlock()

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "run_in_progress", resp.Error)
}

func TestTrigger_InvalidSpecification(t *testing.T) {
	spec := testSpec(t)
	spec.Destination = ""
	_, _, srv := newTestServer(t, spec)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestExecute_ReleasesLock(t *testing.T) {
	runs, _, _ := newTestServer(t, testSpec(t))

	_, err := runs.Execute(context.Background())
	require.NoError(t, err)
	_, err = runs.Execute(context.Background())
	assert.NoError(t, err)
}

func TestQueries(t *testing.T) {
	_, _, srv := newTestServer(t, testSpec(t))

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/queries", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.QueriesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.Total)
	assert.Equal(t, "AMS", resp.Queries[0].Origin)
}

func TestHealthAndMetrics(t *testing.T) {
	_, _, srv := newTestServer(t, testSpec(t))

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "flightwatch_ranking_winners_total 1")
}
