package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the monitor's collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	CycleDuration       prometheus.Histogram
	CyclesSkipped       prometheus.Counter
	ItemsFetched        prometheus.Counter
	Assessments         *prometheus.CounterVec
	NotificationsSent   *prometheus.CounterVec
	CallAttempts        *prometheus.CounterVec
	Campaigns           *prometheus.CounterVec
	PersistenceFailures prometheus.Counter
	EscalationState     prometheus.Gauge
}

// New registers all collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CycleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "alert_monitor_cycle_duration_seconds",
			Help:    "Time taken by one poll cycle, including any call campaign",
			Buckets: prometheus.ExponentialBuckets(0.05, 4, 8),
		}),
		CyclesSkipped: f.NewCounter(prometheus.CounterOpts{
			Name: "alert_monitor_cycles_skipped_total",
			Help: "Poll cycles skipped because an escalation was in progress",
		}),
		ItemsFetched: f.NewCounter(prometheus.CounterOpts{
			Name: "alert_monitor_items_fetched_total",
			Help: "New stream items accepted after deduplication",
		}),
		Assessments: f.NewCounterVec(prometheus.CounterOpts{
			Name: "alert_monitor_assessments_total",
			Help: "Threat assessments by level",
		}, []string{"level"}),
		NotificationsSent: f.NewCounterVec(prometheus.CounterOpts{
			Name: "alert_monitor_notifications_total",
			Help: "Notifications by kind and result",
		}, []string{"kind", "result"}),
		CallAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "alert_monitor_call_attempts_total",
			Help: "Call attempts by outcome",
		}, []string{"outcome"}),
		Campaigns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "alert_monitor_call_campaigns_total",
			Help: "Finished call campaigns by result",
		}, []string{"result"}),
		PersistenceFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "alert_monitor_cursor_persistence_failures_total",
			Help: "Cursor writes that failed",
		}),
		EscalationState: f.NewGauge(prometheus.GaugeOpts{
			Name: "alert_monitor_escalating",
			Help: "1 while a critical escalation is running",
		}),
	}
}

func (m *Metrics) ObserveCycle(d time.Duration) {
	if m == nil {
		return
	}
	m.CycleDuration.Observe(d.Seconds())
}

func (m *Metrics) CycleSkipped() {
	if m == nil {
		return
	}
	m.CyclesSkipped.Inc()
}

func (m *Metrics) Fetched(n int) {
	if m == nil {
		return
	}
	m.ItemsFetched.Add(float64(n))
}

func (m *Metrics) Assessed(level string) {
	if m == nil {
		return
	}
	m.Assessments.WithLabelValues(level).Inc()
}

func (m *Metrics) Notified(kind, result string) {
	if m == nil {
		return
	}
	m.NotificationsSent.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) CallAttempt(outcome string) {
	if m == nil {
		return
	}
	m.CallAttempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) CampaignFinished(result string) {
	if m == nil {
		return
	}
	m.Campaigns.WithLabelValues(result).Inc()
}

func (m *Metrics) PersistenceFailed() {
	if m == nil {
		return
	}
	m.PersistenceFailures.Inc()
}

func (m *Metrics) SetEscalating(on bool) {
	if m == nil {
		return
	}
	if on {
		m.EscalationState.Set(1)
		return
	}
	m.EscalationState.Set(0)
}
