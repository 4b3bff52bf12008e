// Package metrics exposes Prometheus collectors for the record service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "edupulse"
	subsystem = "records"
)

// Manager holds the service's collectors on a private registry so the
// default Go runtime collectors don't leak into scrape output.
type Manager struct {
	registry *prometheus.Registry

	RecordsInserted prometheus.Counter
	BatchesRejected prometheus.Counter
	TotalsRepaired  prometheus.Counter
	HTTPRequests    *prometheus.CounterVec
}

func NewManager() *Manager {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Manager{
		registry: reg,
		RecordsInserted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "inserted_total",
			Help: "Performance records persisted.",
		}),
		BatchesRejected: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "batches_rejected_total",
			Help: "Save requests rejected before touching storage.",
		}),
		TotalsRepaired: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "totals_repaired_total",
			Help: "Rows whose denormalized total was recomputed.",
		}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "http_requests_total",
			Help: "HTTP requests by endpoint and status class.",
		}, []string{"endpoint", "status"}),
	}
}

// Handler serves the scrape endpoint for this manager's registry.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
