package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ActiveConversations prometheus.Gauge
	ConversationEvents  *prometheus.CounterVec
	ParseOutcomes       *prometheus.CounterVec
	MonitorCycles       prometheus.Counter
	MissedDoses         prometheus.Counter
	CaregiverAlerts     *prometheus.CounterVec
	TranscribeRequests  *prometheus.CounterVec

	stages *stageWindow
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveConversations: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_conversations",
			Help:      "Number of live slot-filling conversations.",
		}),
		ConversationEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversation_events_total",
			Help:      "Conversation lifecycle events by type.",
		}, []string{"event"}),
		ParseOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_outcomes_total",
			Help:      "Parse results by source (ai, ai_fallback, deterministic).",
		}, []string{"source"}),
		MonitorCycles: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "monitor_cycles_total",
			Help:      "Completed missed-dose monitor cycles.",
		}),
		MissedDoses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "missed_doses_total",
			Help:      "Missed doses detected by the monitor.",
		}),
		CaregiverAlerts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "caregiver_alerts_total",
			Help:      "Caregiver alert attempts by outcome.",
		}, []string{"outcome"}),
		TranscribeRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcribe_requests_total",
			Help:      "Transcription requests by outcome.",
		}, []string{"outcome"}),
		stages: newStageWindow(256),
	}
}

// ObserveStage records a latency sample for the named stage
// (monitor_cycle, parse_turn, transcribe).
func (m *Metrics) ObserveStage(stage string, ms float64) {
	if m == nil {
		return
	}
	m.stages.Observe(stage, ms)
}

// StageSnapshot returns recent latency percentiles for debugging.
func (m *Metrics) StageSnapshot() StageSnapshot {
	if m == nil {
		return StageSnapshot{}
	}
	return m.stages.Snapshot()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
