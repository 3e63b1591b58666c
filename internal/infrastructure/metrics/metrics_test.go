package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Asignacion-api/internal/infrastructure/metrics"
)

func TestRegistry_ContadoresPorResultado(t *testing.T) {
	m := metrics.NewRegistry()

	m.Allocations.WithLabelValues(metrics.ResultOK).Inc()
	m.Allocations.WithLabelValues(metrics.ResultOK).Inc()
	m.Allocations.WithLabelValues(metrics.ResultRejected).Inc()
	m.Latency.WithLabelValues("allocate").Observe(0.01)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Allocations.WithLabelValues(metrics.ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Allocations.WithLabelValues(metrics.ResultRejected)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.BatchesAdded.WithLabelValues(metrics.ResultError)))
}

func TestRegistry_RegistrosIndependientes(t *testing.T) {
	a, b := metrics.NewRegistry(), metrics.NewRegistry()
	a.Allocations.WithLabelValues(metrics.ResultOK).Inc()

	assert.Equal(t, 0.0, testutil.ToFloat64(b.Allocations.WithLabelValues(metrics.ResultOK)))
}

func TestRegistry_ExponeColectoresPropios(t *testing.T) {
	m := metrics.NewRegistry()
	m.BatchesAdded.WithLabelValues(metrics.ResultOK).Inc()

	n, err := testutil.GatherAndCount(m.Gatherer(), "allocation_batches_added_total")
	assert.NoError(t, err)
	assert.Equal(t, 1, n)
}
