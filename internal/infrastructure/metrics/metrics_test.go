package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.IncrementAnalysis("high")
	m.IncrementAnalysis("high")
	m.IncrementAnalysis("safe")
	m.ObserveAnalyzeLatency(time.Millisecond)
	m.IncrementUnknown("unknown_allergy")
	m.IncrementLookup("hit")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Analyses.WithLabelValues("high")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Analyses.WithLabelValues("safe")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UnknownEntities.WithLabelValues("unknown_allergy")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProductLookups.WithLabelValues("hit")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.AnalyzeLatency))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementAnalysis("low")
		m.ObserveAnalyzeLatency(time.Millisecond)
		m.IncrementUnknown("unknown_medication")
		m.IncrementLookup("error")
	})
}
