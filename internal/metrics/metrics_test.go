package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.RecordQuery("amadeus", OutcomeMatched)
	m.RecordQuery("amadeus", OutcomeMatched)
	m.RecordQuery("amadeus", OutcomeFailed)
	m.RecordNormalized(7)
	m.RecordNormalizationFailure("missing_price")
	m.RecordRejections("too_many_stops", 3)
	m.RecordRejections("too_long", 0)
	m.RecordWinner()
	m.RecordAlerts(2)
	m.RecordDeliveryFailure("telegram")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.QueriesTotal.WithLabelValues("amadeus", OutcomeMatched)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueriesTotal.WithLabelValues("amadeus", OutcomeFailed)))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.OffersNormalized))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OffersFailed.WithLabelValues("missing_price")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.OffersRejected.WithLabelValues("too_many_stops")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WinnersTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.AlertsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DeliveryFailures.WithLabelValues("telegram")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.OffersRejected), "zero rejections create no series")
}

func TestMetrics_RecordRun(t *testing.T) {
	m := New()
	finished := time.Unix(1_750_000_000, 0)

	m.RecordRun(RunCompleted, 3*time.Second, finished)
	m.RecordRun(RunFailed, time.Second, finished.Add(time.Hour))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues(RunCompleted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues(RunFailed)))
	assert.Equal(t, float64(finished.Unix()), testutil.ToFloat64(m.LastSuccessfulRun))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RunDuration))
}

func TestMetrics_NilIsNoOp(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordQuery("amadeus", OutcomeNoMatch)
		m.RecordNormalized(1)
		m.RecordNormalizationFailure("x")
		m.RecordRejections("x", 1)
		m.RecordWinner()
		m.RecordAlerts(1)
		m.RecordDeliveryFailure("x")
		m.RecordRun(RunCompleted, time.Second, time.Now())
	})
	assert.Nil(t, m.Registry())
	assert.NotNil(t, m.Handler())
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.RecordWinner()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "flightwatch_ranking_winners_total 1"))
	assert.NotContains(t, string(body), "go_goroutines", "private registry carries no runtime collectors")
}
