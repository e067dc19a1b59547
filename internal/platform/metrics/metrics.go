// Package metrics defines the Prometheus collectors of the addressbook service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Command outcomes.
const (
	OutcomeApplied  = "applied"
	OutcomeNoop     = "noop"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Metrics tracks command throughput, projection work and notification delivery.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	CommandsTotal       *prometheus.CounterVec
	CommandDuration     *prometheus.HistogramVec
	EventsAppended      *prometheus.CounterVec
	EventsProjected     *prometheus.CounterVec
	NotificationsTotal  *prometheus.CounterVec
	ProjectionRebuildMS prometheus.Gauge
}

// New registers all collectors on reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CommandsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "addressbook_commands_total",
			Help: "Commands handled by the pipeline, by aggregate and outcome",
		}, []string{"aggregate", "outcome"}),
		CommandDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "addressbook_command_duration_seconds",
			Help:    "Duration of load, decide and append for one command",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"aggregate"}),
		EventsAppended: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "addressbook_events_appended_total",
			Help: "Events appended to the log, by aggregate",
		}, []string{"aggregate"}),
		EventsProjected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "addressbook_events_projected_total",
			Help: "Events applied to the read model, by event type",
		}, []string{"type"}),
		NotificationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "addressbook_notifications_total",
			Help: "Notifications sent for action events, by outcome",
		}, []string{"outcome"}),
		ProjectionRebuildMS: factory.NewGauge(prometheus.GaugeOpts{
			Name: "addressbook_projection_rebuild_milliseconds",
			Help: "Duration of the last startup projection rebuild",
		}),
	}
}

// ObserveCommand records one pipeline run.
func (m *Metrics) ObserveCommand(aggregate, outcome string, appended int, start time.Time) {
	if m == nil {
		return
	}
	m.CommandsTotal.WithLabelValues(aggregate, outcome).Inc()
	m.CommandDuration.WithLabelValues(aggregate).Observe(time.Since(start).Seconds())
	if appended > 0 {
		m.EventsAppended.WithLabelValues(aggregate).Add(float64(appended))
	}
}

// IncrementProjected records one event applied to the read model.
func (m *Metrics) IncrementProjected(eventType string) {
	if m == nil {
		return
	}
	m.EventsProjected.WithLabelValues(eventType).Inc()
}

// IncrementNotification records a notification attempt.
func (m *Metrics) IncrementNotification(ok bool) {
	if m == nil {
		return
	}
	outcome := "sent"
	if !ok {
		outcome = OutcomeFailed
	}
	m.NotificationsTotal.WithLabelValues(outcome).Inc()
}

// ObserveRebuild records the duration of a projection rebuild.
func (m *Metrics) ObserveRebuild(start time.Time) {
	if m == nil {
		return
	}
	m.ProjectionRebuildMS.Set(float64(time.Since(start).Milliseconds()))
}
