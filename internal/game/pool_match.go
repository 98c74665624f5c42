package game

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/playpool/eightball/internal/logger"
	"github.com/playpool/eightball/internal/metrics"
	"github.com/playpool/eightball/internal/models"
)

const (
	commandQueueSize = 64
	maxAudioPerTick  = 8
	persistTimeout   = 3 * time.Second
)

var ErrMatchClosed = errors.New("match closed")

// Broadcaster delivers outbound messages to everyone watching a match.
type Broadcaster interface {
	BroadcastToGame(matchID string, message interface{})
}

// Event is the envelope of every outbound message.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Outbound message types.
const (
	EventGameState   = "game_state"
	EventMeta        = "meta"
	EventAudioBatch  = "audio_batch"
	EventSyncAim     = "sync_aim"
	EventMatchClosed = "match_closed"
)

// AimData is a live cue direction and power update.
type AimData struct {
	Seat  Seat    `json:"seat"`
	Angle float64 `json:"angle"`
	Force float64 `json:"force"`
}

// RoomSummary is the lobby view of a match.
type RoomSummary struct {
	ID      string `json:"id"`
	Players int    `json:"count"`
	Status  Phase  `json:"status"`
	BotRoom bool   `json:"bot_room"`
	Private bool   `json:"private"`
}

// matchView is published by the tick loop for readers on other goroutines.
type matchView struct {
	summary    RoomSummary
	meta       Meta
	balls      []Ball
	shotNumber int
}

// JoinResult tells a joining player where they sit.
type JoinResult struct {
	MatchID  string `json:"room_id"`
	Seat     Seat   `json:"seat"` // SeatNone for spectators
	PlayerID string `json:"player_id"`
}

// MatchOptions configure a new match.
type MatchOptions struct {
	ID           string
	BotRoom      bool
	PasscodeHash []byte
	TickInterval time.Duration
	Hub          Broadcaster
	Store        *Store
	Metrics      *metrics.Metrics
}

// Match runs one table. All state mutation happens on the goroutine started
// by Run; other goroutines talk to it through Submit.
type Match struct {
	ID           string
	BotRoom      bool
	passcodeHash []byte
	createdAt    time.Time

	state      *MatchState
	audio      AudioQueue
	shotNumber int
	metaDirty  bool

	commands  chan func(*Match)
	done      chan struct{}
	closeOnce sync.Once

	hub      Broadcaster
	store    *Store
	metrics  *metrics.Metrics
	interval time.Duration

	lastActivity atomic.Int64
	view         atomic.Pointer[matchView]
}

func newMatch(opts MatchOptions) *Match {
	if opts.TickInterval <= 0 {
		opts.TickInterval = 16 * time.Millisecond
	}
	m := &Match{
		ID:           opts.ID,
		BotRoom:      opts.BotRoom,
		passcodeHash: opts.PasscodeHash,
		createdAt:    time.Now(),
		state:        NewMatchState(),
		commands:     make(chan func(*Match), commandQueueSize),
		done:         make(chan struct{}),
		hub:          opts.Hub,
		store:        opts.Store,
		metrics:      opts.Metrics,
		interval:     opts.TickInterval,
	}
	if m.BotRoom {
		p2 := m.state.Player(SeatP2)
		p2.ID = "bot"
		p2.Name = "Bot"
		p2.Bot = true
		m.state.Bot = NewBotExecutor(SeatP2)
	}
	m.touch()
	m.publishView()
	return m
}

// Run drives the tick loop until ctx is cancelled or the match is closed.
func (m *Match) Run(ctx context.Context) {
	m.metrics.MatchStarted()
	defer m.metrics.MatchClosed()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			m.Close("shutdown")
			return
		case <-m.done:
			return
		case <-ticker.C:
			m.tick()
		}
	}
}

// Submit queues cmd for the start of the next tick. It reports false when the
// queue is full or the match is closed.
func (m *Match) Submit(cmd func(*Match)) bool {
	select {
	case <-m.done:
		return false
	default:
	}
	select {
	case m.commands <- cmd:
		m.touch()
		return true
	default:
		m.metrics.CommandDropped()
		logger.Log.Warnw("[MATCH] command queue full, dropping", "match", m.ID)
		return false
	}
}

func (m *Match) Done() <-chan struct{} {
	return m.done
}

// Close stops the tick loop and tells watchers the match is over.
func (m *Match) Close(reason string) {
	m.closeOnce.Do(func() {
		close(m.done)
		m.broadcast(EventMatchClosed, map[string]string{"room_id": m.ID, "reason": reason})
		logger.Log.Infow("[MATCH] closed", "match", m.ID, "reason", reason)
	})
}

func (m *Match) touch() {
	m.lastActivity.Store(time.Now().UnixNano())
}

// LastActivity is the time the last command was accepted.
func (m *Match) LastActivity() time.Time {
	return time.Unix(0, m.lastActivity.Load())
}

func (m *Match) Private() bool {
	return len(m.passcodeHash) > 0
}

func (m *Match) Summary() RoomSummary {
	return m.view.Load().summary
}

// Snapshot returns the latest published view of the match.
func (m *Match) Snapshot() *Snapshot {
	v := m.view.Load()
	return &Snapshot{
		MatchID:    m.ID,
		BotRoom:    m.BotRoom,
		Meta:       v.meta,
		Balls:      v.balls,
		ShotNumber: v.shotNumber,
		SavedAt:    time.Now().Unix(),
	}
}

// publishView copies the parts of the state that other goroutines may read.
func (m *Match) publishView() {
	s := m.state
	players := 0
	for i := range s.Players {
		if s.Players[i].Seated() {
			players++
		}
	}
	m.view.Store(&matchView{
		summary: RoomSummary{
			ID:      m.ID,
			Players: players,
			Status:  s.Phase,
			BotRoom: m.BotRoom,
			Private: m.Private(),
		},
		meta:       s.Meta(),
		balls:      s.BallsSnapshot(),
		shotNumber: m.shotNumber,
	})
}

func (m *Match) broadcast(eventType string, data interface{}) {
	if m.hub == nil {
		return
	}
	m.hub.BroadcastToGame(m.ID, Event{Type: eventType, Data: data})
}

// persist runs fn in the background so storage never stalls the tick.
func (m *Match) persist(fn func(ctx context.Context)) {
	if m.store == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		fn(ctx)
	}()
}

// drain applies every queued command.
func (m *Match) drain() {
	for {
		select {
		case cmd := <-m.commands:
			cmd(m)
		default:
			return
		}
	}
}

func (m *Match) tick() {
	start := time.Now()
	m.drain()

	s := m.state
	s.Tick++
	if s.Bot != nil {
		s.Bot.Update(s, botRelay{m})
	}

	s.Balls = Advance(s.Balls, &s.Shot, &m.audio)

	if s.Shot.InProgress && s.Settled() {
		if out, ok := ResolveShot(s, (*ShotRecord).Close); ok {
			m.afterShot(out)
		}
	}

	m.broadcast(EventGameState, s.BallsSnapshot())
	if events := m.audio.Flush(maxAudioPerTick); len(events) > 0 {
		m.broadcast(EventAudioBatch, events)
	}
	if m.metaDirty {
		m.metaDirty = false
		m.publishView()
		m.broadcast(EventMeta, s.Meta())
		snap := m.Snapshot()
		m.persist(func(ctx context.Context) { m.store.SaveSnapshot(ctx, snap) })
	}
	m.metrics.Tick(time.Since(start))
}

func (m *Match) afterShot(out ShotOutcome) {
	s := m.state
	m.shotNumber++
	m.metaDirty = true
	m.metrics.ShotResolved(out.Label())
	logger.Log.Infow("[MATCH] shot resolved", "match", m.ID, "shot", m.shotNumber,
		"shooter", out.Shooter, "outcome", out.Label(), "reason", out.Reason, "turn", s.Turn)

	if !out.GameOver && out.Scratch {
		s.giveBallInHand()
	}

	shotNumber := m.shotNumber
	m.persist(func(ctx context.Context) { m.store.RecordShot(ctx, m.ID, shotNumber, out) })

	if out.GameOver {
		rec := m.record(out)
		m.persist(func(ctx context.Context) {
			m.store.SaveResult(ctx, rec)
			m.store.Publish(ctx, GameEvent{Type: "match_finished", MatchID: m.ID, Winner: out.Winner, Reason: out.Reason})
		})
	}
}

func (m *Match) record(out ShotOutcome) models.MatchRecord {
	s := m.state
	p1, p2 := s.Player(SeatP1), s.Player(SeatP2)
	rec := models.MatchRecord{
		MatchID:      m.ID,
		BotRoom:      m.BotRoom,
		Player1Name:  p1.Name,
		Player2Name:  p2.Name,
		Player1Score: p1.Score,
		Player2Score: p2.Score,
		Player1Group: string(p1.Group),
		Player2Group: string(p2.Group),
		Winner:       string(out.Winner),
		EndReason:    out.Reason,
		ShotCount:    m.shotNumber,
		CreatedAt:    m.createdAt,
	}
	rec.CompletedAt.Time = time.Now()
	rec.CompletedAt.Valid = true
	return rec
}

// botRelay forwards bot output to the match's watchers.
type botRelay struct{ m *Match }

func (r botRelay) SyncAim(angle, force float64) {
	r.m.broadcast(EventSyncAim, AimData{Seat: r.m.state.Bot.Seat, Angle: angle, Force: force})
}

func (r botRelay) MetaChanged() {
	r.m.metaDirty = true
}

func (r botRelay) Planned(elapsed time.Duration) {
	r.m.metrics.Planned(elapsed)
}

// seat puts a new player in the first free seat, or returns SeatNone for a
// spectator. Must run on the match goroutine.
func (m *Match) seat(name string) JoinResult {
	s := m.state
	res := JoinResult{MatchID: m.ID, PlayerID: uuid.NewString()}
	for _, seat := range []Seat{SeatP1, SeatP2} {
		p := s.Player(seat)
		if p.Seated() {
			continue
		}
		p.ID = res.PlayerID
		if name != "" {
			p.Name = name
		}
		res.Seat = seat
		break
	}
	if s.Phase == PhaseWaitingPlayers && s.Player(SeatP1).Seated() && s.Player(SeatP2).Seated() {
		s.Phase = PhasePlaying
	}
	m.metaDirty = true
	m.publishView()
	return res
}

// Join seats a player, waiting for the tick loop to accept them.
func (m *Match) Join(ctx context.Context, name string) (JoinResult, error) {
	reply := make(chan JoinResult, 1)
	if !m.Submit(func(m *Match) { reply <- m.seat(name) }) {
		return JoinResult{}, ErrMatchClosed
	}
	select {
	case res := <-reply:
		return res, nil
	case <-m.done:
		return JoinResult{}, ErrMatchClosed
	case <-ctx.Done():
		return JoinResult{}, ctx.Err()
	}
}

// Shoot queues a shot for seat.
func (m *Match) Shoot(seat Seat, angle, force float64) bool {
	return m.Submit(func(m *Match) {
		if m.state.Shoot(seat, angle, force) {
			m.metaDirty = true
			logger.Log.Debugw("[MATCH] shot taken", "match", m.ID, "seat", seat, "angle", angle, "force", force)
		}
	})
}

// PlaceCueBall queues a ball-in-hand placement for seat.
func (m *Match) PlaceCueBall(seat Seat, x, y float64) bool {
	return m.Submit(func(m *Match) {
		if m.state.PlaceCueBall(seat, NewVec2(x, y)) {
			m.metaDirty = true
		}
	})
}

// Reset queues a re-rack requested by a seated player.
func (m *Match) Reset(seat Seat) bool {
	return m.Submit(func(m *Match) {
		if !seat.Valid() || !m.state.Player(seat).Seated() {
			return
		}
		if m.state.Reset() {
			m.metaDirty = true
			logger.Log.Infow("[MATCH] table reset", "match", m.ID, "by", seat)
		}
	})
}

// Aim relays the cue direction of the player on turn to everyone watching.
func (m *Match) Aim(seat Seat, angle, force float64) bool {
	return m.Submit(func(m *Match) {
		s := m.state
		if s.Turn != seat || s.Phase != PhasePlaying || s.Shot.InProgress || s.Player(seat).Bot {
			return
		}
		m.broadcast(EventSyncAim, AimData{Seat: seat, Angle: angle, Force: force})
	})
}
