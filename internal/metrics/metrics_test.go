package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.CompletionRecorded()
	m.CompletionRecorded()
	m.CompletionDeleted()
	m.StreakRecomputed()
	m.CacheLookup(true)
	m.CacheLookup(false)
	m.CacheLookup(false)
	m.ObserveRequest("GET", "/api/habits", "200", 0.01)
	m.ObserveError("/api/habits/{id}", "not_found")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Completions.WithLabelValues("record")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Completions.WithLabelValues("delete")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StreakRecomputes))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReqCount.WithLabelValues("GET", "/api/habits", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ErrorCount.WithLabelValues("/api/habits/{id}", "not_found")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.CompletionRecorded()
	m.CompletionDeleted()
	m.StreakRecomputed()
	m.CacheLookup(true)
	m.ObserveRequest("GET", "/", "200", 0)
	m.ObserveError("/", "internal")
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.StreakRecomputed()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "streakline_streak_recomputes_total 1"))
}
