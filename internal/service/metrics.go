package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes the service counters on the default prometheus registry.
type Metrics struct {
	Saves             prometheus.Counter
	Deletes           prometheus.Counter
	ValidationErrors  prometheus.Counter
	PersistenceErrors prometheus.Counter
	Members           prometheus.Gauge
}

// NewMetrics registers and returns the service metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		Saves: promauto.NewCounter(prometheus.CounterOpts{
			Name: "familytree_member_saves_total",
			Help: "Committed member save batches.",
		}),
		Deletes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "familytree_member_deletes_total",
			Help: "Committed member delete cascades.",
		}),
		ValidationErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "familytree_validation_errors_total",
			Help: "Saves rejected before any write.",
		}),
		PersistenceErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "familytree_persistence_errors_total",
			Help: "Store batches that failed to commit.",
		}),
		Members: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "familytree_members",
			Help: "Members in the most recently observed snapshot.",
		}),
	}
}
