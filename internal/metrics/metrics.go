package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the server's Prometheus collectors. A nil *Metrics is valid
// and records nothing, so tests and tools can skip registration.
type Metrics struct {
	ActiveMatches   prometheus.Gauge
	WSClients       prometheus.Gauge
	Ticks           prometheus.Counter
	Shots           *prometheus.CounterVec
	DroppedCommands prometheus.Counter
	TickDuration    prometheus.Histogram
	PlannerDuration prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ActiveMatches: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "eightball",
			Name:      "active_matches",
			Help:      "Number of matches with a running tick loop.",
		}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "eightball",
			Name:      "ws_clients",
			Help:      "Number of connected websocket clients.",
		}),
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eightball",
			Name:      "ticks_total",
			Help:      "Match ticks processed.",
		}),
		Shots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eightball",
			Name:      "shots_total",
			Help:      "Resolved shots by outcome.",
		}, []string{"outcome"}),
		DroppedCommands: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eightball",
			Name:      "dropped_commands_total",
			Help:      "Commands dropped because a match queue was full.",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "eightball",
			Name:      "tick_duration_seconds",
			Help:      "Time spent in one match tick.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.002, 0.005, 0.01, 0.016, 0.05},
		}),
		PlannerDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "eightball",
			Name:      "planner_duration_seconds",
			Help:      "Time the shot planner spent choosing a shot.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 10),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.ActiveMatches, m.WSClients, m.Ticks, m.Shots,
			m.DroppedCommands, m.TickDuration, m.PlannerDuration)
	}
	return m
}

func (m *Metrics) MatchStarted() {
	if m == nil {
		return
	}
	m.ActiveMatches.Inc()
}

func (m *Metrics) MatchClosed() {
	if m == nil {
		return
	}
	m.ActiveMatches.Dec()
}

func (m *Metrics) ClientConnected() {
	if m == nil {
		return
	}
	m.WSClients.Inc()
}

func (m *Metrics) ClientDisconnected() {
	if m == nil {
		return
	}
	m.WSClients.Dec()
}

func (m *Metrics) Tick(d time.Duration) {
	if m == nil {
		return
	}
	m.Ticks.Inc()
	m.TickDuration.Observe(d.Seconds())
}

func (m *Metrics) ShotResolved(outcome string) {
	if m == nil {
		return
	}
	m.Shots.WithLabelValues(outcome).Inc()
}

func (m *Metrics) CommandDropped() {
	if m == nil {
		return
	}
	m.DroppedCommands.Inc()
}

func (m *Metrics) Planned(d time.Duration) {
	if m == nil {
		return
	}
	m.PlannerDuration.Observe(d.Seconds())
}
