package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Resultados posibles de una operación para la etiqueta "result".
const (
	ResultOK       = "ok"
	ResultRejected = "rejected" // error de dominio accionable por el cliente
	ResultError    = "error"
)

// Registry métricas de la API de asignación sobre un registro Prometheus propio.
type Registry struct {
	reg *prometheus.Registry

	Allocations  *prometheus.CounterVec
	BatchesAdded *prometheus.CounterVec
	Latency      *prometheus.HistogramVec
}

// NewRegistry crea y registra los colectores.
func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	allocations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "allocation_allocate_total",
		Help: "Asignaciones de líneas de pedido por resultado.",
	}, []string{"result"})
	batches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "allocation_batches_added_total",
		Help: "Lotes registrados por resultado.",
	}, []string{"result"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "allocation_operation_seconds",
		Help:    "Duración de cada operación (incluye la unidad de trabajo).",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	r.MustRegister(allocations, batches, latency)
	r.MustRegister(collectors.NewGoCollector())

	return &Registry{
		reg:          r,
		Allocations:  allocations,
		BatchesAdded: batches,
		Latency:      latency,
	}
}

// Handler expone el registro en formato Prometheus.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// Gatherer acceso al registro (tests).
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}
