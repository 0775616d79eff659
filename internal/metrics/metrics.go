// Package metrics holds the Prometheus instrumentation for the allocation
// engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts allocation activity across all three allocation paths.
type Metrics struct {
	AllocationsCreated prometheus.Counter
	AllocationsRemoved prometheus.Counter
	Rejections         *prometheus.CounterVec
}

// New creates and registers the metrics on the default registry.
func New() *Metrics {
	return newWith(prometheus.DefaultRegisterer)
}

// NewForTesting creates metrics on a private registry so parallel tests do
// not collide on duplicate registration.
func NewForTesting() *Metrics {
	return newWith(prometheus.NewRegistry())
}

func newWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AllocationsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "roomalloc_allocations_created_total",
			Help: "Total number of allocation records written.",
		}),
		AllocationsRemoved: factory.NewCounter(prometheus.CounterOpts{
			Name: "roomalloc_allocations_removed_total",
			Help: "Total number of allocation records removed.",
		}),
		Rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "roomalloc_allocation_rejections_total",
			Help: "Total allocation attempts rejected, by precondition.",
		}, []string{"reason"}),
	}
}

// Reject counts one rejected allocation attempt under the given reason.
func (m *Metrics) Reject(reason string) {
	m.Rejections.WithLabelValues(reason).Inc()
}
