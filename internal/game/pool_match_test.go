package game

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"
)

type fakeHub struct {
	mu     sync.Mutex
	events []Event
}

func (h *fakeHub) BroadcastToGame(matchID string, message interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ev, ok := message.(Event); ok {
		h.events = append(h.events, ev)
	}
}

func (h *fakeHub) count(eventType string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, ev := range h.events {
		if ev.Type == eventType {
			n++
		}
	}
	return n
}

func (h *fakeHub) last(eventType string) (Event, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := len(h.events) - 1; i >= 0; i-- {
		if h.events[i].Type == eventType {
			return h.events[i], true
		}
	}
	return Event{}, false
}

// seatedMatch returns a match with two humans seated. Ticks are driven by the test.
func seatedMatch(t *testing.T) (*Match, *fakeHub) {
	t.Helper()
	hub := &fakeHub{}
	m := newMatch(MatchOptions{ID: "room1", Hub: hub})
	if res := m.seat("alice"); res.Seat != SeatP1 {
		t.Fatalf("first seat = %s", res.Seat)
	}
	if res := m.seat("bob"); res.Seat != SeatP2 {
		t.Fatalf("second seat = %s", res.Seat)
	}
	return m, hub
}

func TestSeatingStartsPlay(t *testing.T) {
	m, _ := seatedMatch(t)
	if m.state.Phase != PhasePlaying {
		t.Fatalf("phase = %s", m.state.Phase)
	}
	if res := m.seat("carol"); res.Seat != SeatNone || res.PlayerID == "" {
		t.Errorf("third join should spectate, got %+v", res)
	}
	if got := m.Summary().Players; got != 2 {
		t.Errorf("summary players = %d", got)
	}
}

func TestShootOutOfTurnRejected(t *testing.T) {
	m, _ := seatedMatch(t)
	m.Shoot(SeatP2, 0, 30)
	m.tick()
	if m.state.Shot.InProgress || !m.state.Cue().Vel.IsZero() {
		t.Error("p2 was allowed to shoot on p1's turn")
	}
}

func TestShootClampsForce(t *testing.T) {
	m, hub := seatedMatch(t)
	m.Shoot(SeatP1, 0, 500)
	m.tick()

	if !m.state.Shot.InProgress {
		t.Fatal("shot not taken")
	}
	if s := m.state.Cue().Speed(); s > MaxShotForce || s < MaxShotForce*0.9 {
		t.Errorf("cue speed %.2f, want just under %v", s, MaxShotForce)
	}
	if hub.count(EventMeta) == 0 {
		t.Error("shot start not announced")
	}

	m.Shoot(SeatP1, math.Pi/2, 10)
	m.tick()
	if v := m.state.Cue().Vel; v.Y != 0 || v.X <= 0 {
		t.Error("second shot accepted while balls were moving")
	}
}

func TestShootRejectsNonFinite(t *testing.T) {
	st := newTestMatch(ballAt(0, 200, 200), ballAt(1, 400, 200), ballAt(8, 500, 300))
	if st.Shoot(SeatP1, math.NaN(), 10) {
		t.Error("NaN angle accepted")
	}
	if st.Shot.InProgress {
		t.Error("rejected shot opened the record")
	}
}

func TestShotResolvesAndCounts(t *testing.T) {
	m, hub := seatedMatch(t)
	m.Shoot(SeatP1, 0, MaxShotForce)
	for i := 0; i < 5000 && m.Snapshot().ShotNumber == 0; i++ {
		m.tick()
	}
	snap := m.Snapshot()
	if snap.ShotNumber != 1 {
		t.Fatalf("shot number = %d after the break", snap.ShotNumber)
	}
	if m.state.Shot.InProgress {
		t.Error("shot record still open")
	}
	if hub.count(EventGameState) == 0 || hub.count(EventAudioBatch) == 0 {
		t.Error("expected game_state and audio_batch broadcasts")
	}
	if ev, ok := hub.last(EventAudioBatch); ok {
		if n := len(ev.Data.([]AudioEvent)); n > maxAudioPerTick {
			t.Errorf("audio batch of %d events", n)
		}
	}
}

func TestPlaceCueBall(t *testing.T) {
	m, _ := seatedMatch(t)
	m.state.giveBallInHand()

	m.PlaceCueBall(SeatP2, 300, 300)
	m.tick()
	if m.state.Phase != PhasePlacingCue {
		t.Fatal("p2 placed the cue ball on p1's turn")
	}

	apex := m.state.Ball(1).Pos
	m.PlaceCueBall(SeatP1, apex.X, apex.Y)
	m.tick()
	if m.state.Phase != PhasePlacingCue {
		t.Fatal("placement on top of another ball accepted")
	}

	m.PlaceCueBall(SeatP1, -50, 1000)
	m.tick()
	if m.state.Phase != PhasePlaying {
		t.Fatalf("phase = %s after placement", m.state.Phase)
	}
	want := NewVec2(TableMargin+BallRadius, TableHeight-TableMargin-BallRadius)
	if got := m.state.Cue().Pos; got != want {
		t.Errorf("cue placed at %+v, want %+v", got, want)
	}
}

func TestResetRerracksTable(t *testing.T) {
	m, _ := seatedMatch(t)
	m.state.Players[0].Score = 3
	m.state.Players[0].Group = GroupSolid
	m.state.Turn = SeatP2
	m.state.Balls = m.state.Balls[:5]

	m.Reset(SeatNone)
	m.tick()
	if len(m.state.Balls) != 5 {
		t.Fatal("spectator was allowed to reset")
	}

	m.Reset(SeatP2)
	m.tick()
	if len(m.state.Balls) != NumBalls || m.state.Turn != SeatP1 {
		t.Errorf("table not re-racked: %d balls, turn %s", len(m.state.Balls), m.state.Turn)
	}
	if p := m.state.Player(SeatP1); p.Score != 0 || p.Group != GroupNone {
		t.Errorf("player not reset: %+v", p)
	}
	if m.state.Phase != PhasePlaying {
		t.Errorf("phase = %s", m.state.Phase)
	}
}

func TestResetRejectedMidShot(t *testing.T) {
	st := newTestMatch(ballAt(0, 200, 200), ballAt(1, 400, 200), ballAt(8, 500, 300))
	st.Shot.Open(SeatP1)
	if st.Reset() {
		t.Error("reset accepted while a shot is in progress")
	}
}

func TestAimRelaysOnlyPlayerOnTurn(t *testing.T) {
	m, hub := seatedMatch(t)
	m.Aim(SeatP2, 1, 10)
	m.Aim(SeatP1, 0.5, 20)
	m.tick()
	if n := hub.count(EventSyncAim); n != 1 {
		t.Fatalf("sync_aim sent %d times", n)
	}
	ev, _ := hub.last(EventSyncAim)
	if aim := ev.Data.(AimData); aim.Seat != SeatP1 || aim.Force != 20 {
		t.Errorf("unexpected aim %+v", aim)
	}
}

func TestSubmitAfterClose(t *testing.T) {
	m, hub := seatedMatch(t)
	m.Close("test")
	m.Close("again")
	if m.Submit(func(*Match) {}) {
		t.Error("closed match accepted a command")
	}
	if n := hub.count(EventMatchClosed); n != 1 {
		t.Errorf("match_closed sent %d times", n)
	}
	select {
	case <-m.Done():
	default:
		t.Error("done channel still open")
	}
}

func TestRunClosesOnShutdown(t *testing.T) {
	m, hub := seatedMatch(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	finished := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	select {
	case <-m.Done():
	default:
		t.Fatal("done channel still open after shutdown")
	}
	if m.Submit(func(*Match) {}) {
		t.Error("stopped match accepted a command")
	}
	ev, ok := hub.last(EventMatchClosed)
	if !ok {
		t.Fatal("match_closed not broadcast")
	}
	if data, _ := ev.Data.(map[string]string); data["reason"] != "shutdown" {
		t.Errorf("close reason = %v", ev.Data)
	}
}

func TestSubmitDropsWhenQueueFull(t *testing.T) {
	m, _ := seatedMatch(t)
	for i := 0; i < commandQueueSize; i++ {
		if !m.Submit(func(*Match) {}) {
			t.Fatalf("command %d dropped early", i)
		}
	}
	if m.Submit(func(*Match) {}) {
		t.Error("full queue accepted a command")
	}
}

func TestBotMatchPlaysItself(t *testing.T) {
	m := newMatch(MatchOptions{ID: "bot_test", BotRoom: true})
	m.seat("human")
	if m.state.Phase != PhasePlaying {
		t.Fatalf("phase = %s", m.state.Phase)
	}
	if p2 := m.state.Player(SeatP2); !p2.Bot || m.state.Bot == nil {
		t.Fatal("second seat not taken by the bot")
	}
	m.state.Turn = SeatP2
	if m.state.Shoot(SeatP2, 0, 10) {
		t.Error("humans must not shoot for the bot seat")
	}
	for i := 0; i < 1000 && !m.state.Shot.InProgress; i++ {
		m.tick()
	}
	if !m.state.Shot.InProgress || m.state.Shot.Shooter != SeatP2 {
		t.Error("bot never took its shot")
	}
}

func newTestManager(t *testing.T, maxMatches int) *Manager {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewManager(ctx, nil, nil, nil, ManagerConfig{TickInterval: 2 * time.Millisecond, MaxMatches: maxMatches})
}

func TestManagerJoinOrCreate(t *testing.T) {
	gm := newTestManager(t, 0)
	ctx := context.Background()

	m, res, err := gm.JoinOrCreate(ctx, "  Lobby ", "a", "")
	if err != nil {
		t.Fatal(err)
	}
	if m.ID != "lobby" || res.Seat != SeatP1 {
		t.Errorf("got room %q seat %s", m.ID, res.Seat)
	}
	if _, res, _ = gm.JoinOrCreate(ctx, "lobby", "b", ""); res.Seat != SeatP2 {
		t.Errorf("second seat = %s", res.Seat)
	}
	if _, _, err := gm.JoinOrCreate(ctx, "bot_abc", "c", ""); !errors.Is(err, ErrInvalidRoomID) {
		t.Errorf("bot_ prefix err = %v", err)
	}
	if _, _, err := gm.JoinOrCreate(ctx, "   ", "c", ""); !errors.Is(err, ErrInvalidRoomID) {
		t.Errorf("blank id err = %v", err)
	}
}

func TestNormalizeRoomIDKeepsRunes(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Lobby ", "lobby"},
		{"abcdefghijklmnop", "abcdefghijkl"},
		{strings.Repeat("ñ", 20), strings.Repeat("ñ", maxRoomIDLength)},
		{"Sala-Café-Élite", "sala-café-él"},
		{strings.Repeat("🎱", 13), strings.Repeat("🎱", maxRoomIDLength)},
	}
	for _, tt := range tests {
		got := NormalizeRoomID(tt.in)
		if !utf8.ValidString(got) {
			t.Errorf("NormalizeRoomID(%q) produced invalid UTF-8 %q", tt.in, got)
		}
		if got != tt.want {
			t.Errorf("NormalizeRoomID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestManagerPrivateRoom(t *testing.T) {
	gm := newTestManager(t, 0)
	ctx := context.Background()

	if _, _, err := gm.JoinOrCreate(ctx, "secret", "a", "hunter2"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := gm.JoinOrCreate(ctx, "secret", "b", "wrong"); !errors.Is(err, ErrBadPasscode) {
		t.Errorf("err = %v, want ErrBadPasscode", err)
	}
	if _, res, err := gm.JoinOrCreate(ctx, "secret", "b", "hunter2"); err != nil || res.Seat != SeatP2 {
		t.Errorf("res=%+v err=%v", res, err)
	}
}

func TestManagerLimitsAndListing(t *testing.T) {
	gm := newTestManager(t, 2)
	ctx := context.Background()

	if _, _, err := gm.CreateBotMatch(ctx, "solo"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := gm.JoinOrCreate(ctx, "room-b", "a", ""); err != nil {
		t.Fatal(err)
	}
	if _, _, err := gm.JoinOrCreate(ctx, "room-c", "a", ""); !errors.Is(err, ErrTooManyMatches) {
		t.Errorf("err = %v, want ErrTooManyMatches", err)
	}

	rooms := gm.Rooms()
	if len(rooms) != 1 || rooms[0].ID != "room-b" {
		t.Errorf("rooms = %+v", rooms)
	}
	if gm.Count() != 2 {
		t.Errorf("count = %d", gm.Count())
	}
}

func TestManagerSnapshot(t *testing.T) {
	gm := newTestManager(t, 0)
	ctx := context.Background()

	m, _, err := gm.JoinOrCreate(ctx, "snap", "a", "")
	if err != nil {
		t.Fatal(err)
	}
	snap, err := gm.Snapshot(ctx, m.ID)
	if err != nil || snap.MatchID != "snap" || len(snap.Balls) != NumBalls {
		t.Fatalf("snap=%+v err=%v", snap, err)
	}

	if err := gm.Close(m.ID, "done"); err != nil {
		t.Fatal(err)
	}
	if _, err := gm.Snapshot(ctx, m.ID); !errors.Is(err, ErrMatchNotFound) {
		t.Errorf("closed match without a cache: err = %v", err)
	}
	if err := gm.Close(m.ID, "again"); !errors.Is(err, ErrMatchNotFound) {
		t.Errorf("double close err = %v", err)
	}
}

func TestSweepIdle(t *testing.T) {
	gm := newTestManager(t, 0)
	ctx := context.Background()

	if _, _, err := gm.JoinOrCreate(ctx, "sleepy", "a", ""); err != nil {
		t.Fatal(err)
	}
	if n := sweepIdle(gm, time.Now(), time.Hour); n != 0 {
		t.Errorf("fresh match swept: %d", n)
	}
	if n := sweepIdle(gm, time.Now().Add(2*time.Hour), time.Hour); n != 1 {
		t.Errorf("swept %d matches, want 1", n)
	}
	if gm.Count() != 0 {
		t.Errorf("count = %d after sweep", gm.Count())
	}
}

func TestSnapshotCodec(t *testing.T) {
	st := newTestMatch(ballAt(0, 200, 200), ballAt(9, 400, 210))
	st.Players[0].Group = GroupStripe
	st.Turn = SeatP2
	in := &Snapshot{MatchID: "room1", Meta: st.Meta(), Balls: st.BallsSnapshot(), ShotNumber: 4, SavedAt: 1700000000}

	data, err := EncodeSnapshot(in)
	if err != nil {
		t.Fatal(err)
	}
	out, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatal(err)
	}
	if out.MatchID != "room1" || out.ShotNumber != 4 || out.Meta.Turn != SeatP2 {
		t.Errorf("decoded %+v", out)
	}
	if len(out.Balls) != 2 || out.Balls[1].Pos != NewVec2(400, 210) {
		t.Errorf("balls = %+v", out.Balls)
	}
	if out.Meta.Players[SeatP1].Group != GroupStripe {
		t.Errorf("players = %+v", out.Meta.Players)
	}

	if _, err := DecodeSnapshot([]byte{0xc1}); err == nil {
		t.Error("garbage decoded without error")
	}
}
