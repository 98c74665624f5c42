package game

import (
	"testing"
	"time"
)

type botRecorder struct {
	aims    int
	meta    int
	planned int
	forces  []float64
}

func (r *botRecorder) SyncAim(angle, force float64) {
	r.aims++
	r.forces = append(r.forces, force)
}

func (r *botRecorder) MetaChanged() { r.meta++ }

func (r *botRecorder) Planned(time.Duration) { r.planned++ }

func newBotMatch(balls ...Ball) *MatchState {
	m := newTestMatch(balls...)
	m.Players[1].Bot = true
	m.Bot = NewBotExecutor(SeatP2)
	m.Turn = SeatP2
	return m
}

func TestBotTakesShot(t *testing.T) {
	m := newBotMatch(ballAt(0, 200, 200), ballAt(1, 400, 200), ballAt(8, 100, 350))
	rec := &botRecorder{}

	seen := map[BotPhase]bool{}
	shotAt := -1
	for i := 0; i < 1000; i++ {
		m.Tick++
		m.Bot.Update(m, rec)
		seen[m.Bot.Phase] = true
		if m.Shot.InProgress {
			shotAt = i
			break
		}
	}
	if shotAt < 0 {
		t.Fatalf("bot never shot; last phase %s", m.Bot.Phase)
	}
	if shotAt < botThinkTicks {
		t.Errorf("bot shot after %d ticks, before its think time", shotAt)
	}
	for _, p := range []BotPhase{BotThinking, BotStabilizing, BotCharging, BotShooting} {
		if !seen[p] {
			t.Errorf("bot skipped phase %s", p)
		}
	}
	if m.Shot.Shooter != SeatP2 {
		t.Errorf("shooter = %s", m.Shot.Shooter)
	}
	if m.Cue().Vel.IsZero() {
		t.Error("cue ball not struck")
	}
	if rec.planned != 1 || rec.meta == 0 || rec.aims == 0 {
		t.Errorf("unexpected output %+v", rec)
	}
	if m.Bot.Phase != BotIdle {
		t.Errorf("bot should go idle after shooting, got %s", m.Bot.Phase)
	}
	if last := rec.forces[len(rec.forces)-1]; last != 0 {
		t.Errorf("final aim sync should clear the power, got %.1f", last)
	}
}

func TestBotWaitsForItsTurn(t *testing.T) {
	m := newBotMatch(ballAt(0, 200, 200), ballAt(1, 400, 200), ballAt(8, 100, 350))
	m.Turn = SeatP1
	rec := &botRecorder{}

	for i := 0; i < 200; i++ {
		m.Tick++
		m.Bot.Update(m, rec)
	}
	if m.Bot.Phase != BotIdle || m.Shot.InProgress || rec.planned != 0 {
		t.Errorf("bot acted out of turn: phase=%s", m.Bot.Phase)
	}
}

func TestBotWaitsForTableToSettle(t *testing.T) {
	m := newBotMatch(ballAt(0, 200, 200), ballAt(1, 400, 200), ballAt(8, 100, 350))
	m.Balls[2].Vel = NewVec2(1, 0)
	rec := &botRecorder{}

	m.Tick++
	m.Bot.Update(m, rec)
	if m.Bot.Phase != BotIdle {
		t.Errorf("bot started thinking while a ball was rolling: %s", m.Bot.Phase)
	}
}

func TestBotPassesWithoutTargets(t *testing.T) {
	// Only the opponent's balls remain and the 8 is gone.
	m := newBotMatch(ballAt(0, 200, 200), ballAt(9, 400, 200), ballAt(10, 500, 300))
	m.Players[1].Group = GroupSolid
	m.Players[0].Group = GroupStripe
	rec := &botRecorder{}

	for i := 0; i < 200 && m.Turn == SeatP2; i++ {
		m.Tick++
		m.Bot.Update(m, rec)
	}
	if m.Turn != SeatP1 {
		t.Fatal("bot should have passed the turn")
	}
	if m.Shot.InProgress {
		t.Error("bot shot with no legal target")
	}
	if rec.meta == 0 {
		t.Error("turn change not announced")
	}
}

func TestBotPlacesCueBallInHand(t *testing.T) {
	m := newBotMatch(ballAt(0, 200, 200), ballAt(1, 200, 200), ballAt(8, 100, 350))
	m.giveBallInHand()
	rec := &botRecorder{}

	m.Tick++
	m.Bot.Update(m, rec)
	if m.Phase != PhasePlaying {
		t.Fatalf("phase = %s, want playing", m.Phase)
	}
	cue := m.Cue()
	if cue.State != BallActive {
		t.Errorf("cue ball state %s", cue.State)
	}
	if cue.Pos.DistanceTo(m.Ball(1).Pos) < BallRadius*2 {
		t.Errorf("cue ball placed on top of ball 1: %+v", cue.Pos)
	}
	if rec.meta != 1 {
		t.Errorf("placement not announced")
	}
}
