// Package metrics holds the Prometheus instruments of the notifier.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all custom Prometheus metrics. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	RemindersSent     *prometheus.CounterVec
	NewContentSent    *prometheus.CounterVec
	ItemsIndexed      *prometheus.CounterVec
	IndexErrors       prometheus.Counter
	DeliveryErrors    prometheus.Counter
	SkippedUsers      prometheus.Counter
	SweepDuration     prometheus.Histogram
	SweepsTotal       *prometheus.CounterVec
	SearchesTotal     prometheus.Counter
	LastSweepFinished prometheus.Gauge
}

// New registers the metrics with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Reminders by threshold label
		RemindersSent: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "classroom_notifier_reminders_sent_total",
			Help: "Total number of due-date reminders delivered",
		}, []string{"threshold"}),

		NewContentSent: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "classroom_notifier_new_content_sent_total",
			Help: "Total number of new-content notifications delivered",
		}, []string{"type"}),

		ItemsIndexed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "classroom_notifier_items_indexed_total",
			Help: "Total number of content items written to the index",
		}, []string{"type"}),

		IndexErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "classroom_notifier_index_errors_total",
			Help: "Total number of items that failed to index",
		}),

		DeliveryErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "classroom_notifier_delivery_errors_total",
			Help: "Total number of notifications that failed to deliver",
		}),

		SkippedUsers: factory.NewCounter(prometheus.CounterOpts{
			Name: "classroom_notifier_skipped_users_total",
			Help: "Total number of users skipped for missing credentials",
		}),

		SweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "classroom_notifier_sweep_duration_seconds",
			Help:    "Sweep duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),

		// outcome: ok, busy, error
		SweepsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "classroom_notifier_sweeps_total",
			Help: "Total number of sweep attempts by outcome",
		}, []string{"outcome"}),

		SearchesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "classroom_notifier_searches_total",
			Help: "Total number of index searches",
		}),

		LastSweepFinished: factory.NewGauge(prometheus.GaugeOpts{
			Name: "classroom_notifier_last_sweep_finished_timestamp_seconds",
			Help: "Unix time the last sweep finished",
		}),
	}
}

func (m *Metrics) ReminderSent(label string) {
	if m == nil {
		return
	}
	m.RemindersSent.WithLabelValues(label).Inc()
}

func (m *Metrics) NewContent(kind string) {
	if m == nil {
		return
	}
	m.NewContentSent.WithLabelValues(kind).Inc()
}

func (m *Metrics) Indexed(kind string) {
	if m == nil {
		return
	}
	m.ItemsIndexed.WithLabelValues(kind).Inc()
}

func (m *Metrics) IndexError() {
	if m == nil {
		return
	}
	m.IndexErrors.Inc()
}

func (m *Metrics) DeliveryError() {
	if m == nil {
		return
	}
	m.DeliveryErrors.Inc()
}

func (m *Metrics) UserSkipped() {
	if m == nil {
		return
	}
	m.SkippedUsers.Inc()
}

func (m *Metrics) Search() {
	if m == nil {
		return
	}
	m.SearchesTotal.Inc()
}

// SweepFinished records one sweep attempt.
func (m *Metrics) SweepFinished(outcome string, took time.Duration, at time.Time) {
	if m == nil {
		return
	}
	m.SweepsTotal.WithLabelValues(outcome).Inc()
	if outcome != "busy" {
		m.SweepDuration.Observe(took.Seconds())
		m.LastSweepFinished.Set(float64(at.Unix()))
	}
}
