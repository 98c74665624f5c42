package game

import (
	"math"
	"testing"
)

// newTestMatch returns a match in play with both seats taken and the given balls.
func newTestMatch(balls ...Ball) *MatchState {
	m := NewMatchState()
	m.Players[0].ID = "p1-id"
	m.Players[1].ID = "p2-id"
	m.Phase = PhasePlaying
	m.Balls = balls
	return m
}

func ballAt(id int, x, y float64) Ball {
	return newBall(id, NewVec2(x, y))
}

func TestResolveShotNoShooterIsNoop(t *testing.T) {
	m := newTestMatch(ballAt(0, 200, 200), ballAt(1, 400, 200), ballAt(8, 500, 200))
	before := m.Meta()

	closed := 0
	out, ok := ResolveShot(m, func(*ShotRecord) { closed++ })
	if ok {
		t.Fatalf("expected no-op, got %+v", out)
	}
	if closed != 1 {
		t.Errorf("done called %d times, want 1", closed)
	}
	after := m.Meta()
	if after.Turn != before.Turn || after.Phase != before.Phase || after.Players[SeatP1] != before.Players[SeatP1] {
		t.Errorf("state changed: before=%+v after=%+v", before, after)
	}

	if _, ok := ResolveShot(m, (*ShotRecord).Close); ok {
		t.Error("second resolve should also be a no-op")
	}
}

func TestResolveShotScratchPassesTurn(t *testing.T) {
	m := newTestMatch(ballAt(0, 200, 200), ballAt(1, 400, 200), ballAt(8, 500, 200))
	m.Players[0].Group = GroupSolid
	m.Players[1].Group = GroupStripe
	m.Shot.Open(SeatP1)
	m.Shot.FirstContactID = 1
	m.Shot.Scratch = true

	out, ok := ResolveShot(m, (*ShotRecord).Close)
	if !ok {
		t.Fatal("shot not resolved")
	}
	if !out.Foul || !out.Scratch || out.Reason != ReasonScratch {
		t.Errorf("unexpected outcome %+v", out)
	}
	if !out.TurnPassed || m.Turn != SeatP2 {
		t.Errorf("turn should pass to p2, got %s", m.Turn)
	}
	if out.Label() != "scratch" {
		t.Errorf("label = %q", out.Label())
	}
	if m.Shot.InProgress || m.Shot.Shooter != SeatNone || m.Shot.Pocketed != nil {
		t.Errorf("shot record not closed: %+v", m.Shot)
	}
	if !m.Shot.Foul || m.Shot.Reason != ReasonScratch {
		t.Error("foul reason should stay visible after close")
	}
}

func TestResolveShotWrongBallFirst(t *testing.T) {
	m := newTestMatch(ballAt(0, 200, 200), ballAt(1, 400, 200), ballAt(8, 500, 200), ballAt(10, 600, 300))
	m.Players[0].Group = GroupSolid
	m.Players[1].Group = GroupStripe
	m.Shot.Open(SeatP1)
	m.Shot.FirstContactID = 10
	m.Shot.Pocketed = []int{2}

	out, _ := ResolveShot(m, (*ShotRecord).Close)
	if !out.Foul || out.Reason != "hit opponent ball first (stripe)" {
		t.Errorf("unexpected outcome %+v", out)
	}
	if out.Points != 1 || m.Player(SeatP1).Score != 1 {
		t.Errorf("own ball potted on a foul still scores, got %d", m.Player(SeatP1).Score)
	}
	if m.Turn != SeatP2 {
		t.Errorf("foul should pass the turn, got %s", m.Turn)
	}
}

func TestResolveShotNoContact(t *testing.T) {
	m := newTestMatch(ballAt(0, 200, 200), ballAt(1, 400, 200), ballAt(8, 500, 200))
	m.Shot.Open(SeatP2)
	m.Turn = SeatP2

	out, _ := ResolveShot(m, (*ShotRecord).Close)
	if !out.Foul || out.Reason != ReasonNoContact || m.Turn != SeatP1 {
		t.Errorf("unexpected outcome %+v turn=%s", out, m.Turn)
	}
}

func TestResolveShotHittingEightTooSoon(t *testing.T) {
	m := newTestMatch(ballAt(0, 200, 200), ballAt(1, 400, 200), ballAt(8, 500, 200))
	m.Players[0].Group = GroupSolid
	m.Players[1].Group = GroupStripe
	m.Shot.Open(SeatP1)
	m.Shot.FirstContactID = 8

	out, _ := ResolveShot(m, (*ShotRecord).Close)
	if !out.Foul || out.Reason != ReasonEightTooSoon {
		t.Errorf("unexpected outcome %+v", out)
	}
}

func TestResolveShotEightPottedEarlyLoses(t *testing.T) {
	m := newTestMatch(ballAt(0, 200, 200), ballAt(1, 400, 200), ballAt(9, 500, 300))
	m.Shot.Open(SeatP1)
	m.Shot.FirstContactID = 8
	m.Shot.Pocketed = []int{8}

	out, _ := ResolveShot(m, (*ShotRecord).Close)
	if !out.GameOver || m.Phase != PhaseGameOver {
		t.Fatalf("expected game over, got %+v", out)
	}
	if m.Winner != SeatP2 || out.Reason != ReasonEightEarly {
		t.Errorf("winner=%s reason=%q", m.Winner, out.Reason)
	}
	if out.Label() != "game_over" {
		t.Errorf("label = %q", out.Label())
	}
}

func TestResolveShotEightBeforeClearingGroup(t *testing.T) {
	m := newTestMatch(ballAt(0, 200, 200), ballAt(3, 400, 200), ballAt(5, 600, 120))
	m.Players[0].Group = GroupSolid
	m.Players[1].Group = GroupStripe
	m.Shot.Open(SeatP1)
	m.Shot.FirstContactID = 3
	m.Shot.Pocketed = []int{8}

	out, _ := ResolveShot(m, (*ShotRecord).Close)
	if m.Winner != SeatP2 || out.Reason != ReasonEightBeforeDone {
		t.Errorf("winner=%s reason=%q", m.Winner, out.Reason)
	}
}

func TestResolveShotEightScratchLoses(t *testing.T) {
	m := newTestMatch(ballAt(0, 200, 200))
	m.Players[0].Group = GroupStripe
	m.Players[1].Group = GroupSolid
	m.Shot.Open(SeatP1)
	m.Shot.FirstContactID = 8
	m.Shot.Pocketed = []int{8}
	m.Shot.Scratch = true

	out, _ := ResolveShot(m, (*ShotRecord).Close)
	if m.Winner != SeatP2 || out.Reason != ReasonEightScratch {
		t.Errorf("winner=%s reason=%q", m.Winner, out.Reason)
	}
}

func TestResolveShotLegalEightWins(t *testing.T) {
	m := newTestMatch(ballAt(0, 200, 200), ballAt(2, 300, 300))
	m.Players[0].Group = GroupStripe
	m.Players[1].Group = GroupSolid
	m.Shot.Open(SeatP1)
	m.Shot.FirstContactID = 8
	m.Shot.Pocketed = []int{8}

	out, _ := ResolveShot(m, (*ShotRecord).Close)
	if !out.GameOver || m.Winner != SeatP1 || out.Winner != SeatP1 {
		t.Errorf("expected p1 to win, got %+v", out)
	}
}

func TestResolveShotAssignsGroupsOnFirstPot(t *testing.T) {
	m := newTestMatch(ballAt(0, 200, 200), ballAt(1, 400, 200), ballAt(8, 500, 200), ballAt(12, 600, 100))
	m.Shot.Open(SeatP2)
	m.Turn = SeatP2
	m.Shot.FirstContactID = 11
	m.Shot.Pocketed = []int{11}

	out, _ := ResolveShot(m, (*ShotRecord).Close)
	if !out.GroupAssigned {
		t.Fatal("groups not assigned")
	}
	if m.Player(SeatP2).Group != GroupStripe || m.Player(SeatP1).Group != GroupSolid {
		t.Errorf("groups p1=%s p2=%s", m.Player(SeatP1).Group, m.Player(SeatP2).Group)
	}
	if m.Player(SeatP2).Score != 1 || m.Turn != SeatP2 || out.TurnPassed {
		t.Errorf("pot should score and keep the turn: %+v", out)
	}
}

// A straight pot of ball 1 into the bottom-right pocket on an open table.
func TestStraightPotKeepsTurn(t *testing.T) {
	m := newTestMatch(ballAt(0, 500, 100), ballAt(1, 650, 250), ballAt(8, 100, 300))

	if !m.Shoot(SeatP1, math.Pi/4, 20) {
		t.Fatal("shot rejected")
	}
	settled := false
	for i := 0; i < 3000; i++ {
		m.Balls = Advance(m.Balls, &m.Shot, nil)
		if m.Settled() {
			settled = true
			break
		}
	}
	if !settled {
		t.Fatal("table never settled")
	}

	out, ok := ResolveShot(m, (*ShotRecord).Close)
	if !ok {
		t.Fatal("shot not resolved")
	}
	if out.FirstContactID != 1 || len(out.Pocketed) != 1 || out.Pocketed[0] != 1 {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if out.Foul || out.Scratch {
		t.Errorf("clean pot marked as foul: %+v", out)
	}
	if m.Player(SeatP1).Group != GroupSolid || m.Player(SeatP2).Group != GroupStripe {
		t.Errorf("groups p1=%s p2=%s", m.Player(SeatP1).Group, m.Player(SeatP2).Group)
	}
	if m.Player(SeatP1).Score != 1 || m.Turn != SeatP1 {
		t.Errorf("score=%d turn=%s", m.Player(SeatP1).Score, m.Turn)
	}
	if m.Ball(1) != nil {
		t.Error("ball 1 still on the table")
	}
	if out.Label() != "potted" {
		t.Errorf("label = %q", out.Label())
	}
}
