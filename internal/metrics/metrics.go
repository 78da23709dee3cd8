// Package metrics exposes turn counters for the /metrics endpoint.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TurnsTotal counts completed turns by intent and history event.
	TurnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "melvin_turns_total",
		Help: "Total turns by intent and event kind",
	}, []string{"intent", "event"})

	// TurnErrors counts failed turns by error kind.
	TurnErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "melvin_turn_errors_total",
		Help: "Total failed turns by error kind",
	}, []string{"kind"})

	// HistoryDepth tracks the history length after each turn.
	HistoryDepth = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "melvin_history_depth",
		Help:    "History entries held by a session after a turn",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
	})

	// TurnDuration tracks end-to-end turn latency by intent.
	TurnDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "melvin_turn_duration_seconds",
		Help:    "Turn duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
	}, []string{"intent"})
)

// ObserveTurn records one turn. event is empty for unrecorded turns and
// errKind is empty on success.
func ObserveTurn(intent, event, errKind string, historyLen int, elapsed time.Duration) {
	if errKind != "" {
		TurnErrors.WithLabelValues(errKind).Inc()
	}
	if event == "" {
		event = "NONE"
	}
	TurnsTotal.WithLabelValues(intent, event).Inc()
	HistoryDepth.Observe(float64(historyLen))
	TurnDuration.WithLabelValues(intent).Observe(elapsed.Seconds())
}
