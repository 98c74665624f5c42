package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.MatchStarted()
	m.MatchClosed()
	m.ClientConnected()
	m.ClientDisconnected()
	m.Tick(time.Millisecond)
	m.ShotResolved("miss")
	m.CommandDropped()
	m.Planned(time.Millisecond)
}

func TestCountersAccumulate(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.MatchStarted()
	m.MatchStarted()
	m.MatchClosed()
	if got := testutil.ToFloat64(m.ActiveMatches); got != 1 {
		t.Errorf("active matches = %v, want 1", got)
	}

	m.ShotResolved("foul")
	m.ShotResolved("foul")
	m.ShotResolved("potted")
	if got := testutil.ToFloat64(m.Shots.WithLabelValues("foul")); got != 2 {
		t.Errorf("foul shots = %v, want 2", got)
	}

	m.Tick(2 * time.Millisecond)
	if got := testutil.ToFloat64(m.Ticks); got != 1 {
		t.Errorf("ticks = %v, want 1", got)
	}
}
