package game

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/playpool/eightball/internal/logger"
	"github.com/playpool/eightball/internal/metrics"
)

var (
	ErrMatchNotFound  = errors.New("match not found")
	ErrInvalidRoomID  = errors.New("invalid room id")
	ErrBadPasscode    = errors.New("wrong room passcode")
	ErrTooManyMatches = errors.New("too many active matches")
)

const maxRoomIDLength = 12

// ManagerConfig holds the manager's tunables.
type ManagerConfig struct {
	TickInterval time.Duration
	MaxMatches   int
}

// Manager owns the set of running matches. It only holds handles; each
// match's state lives on that match's own goroutine.
type Manager struct {
	matches map[string]*Match
	ctx     context.Context
	hub     Broadcaster
	store   *Store
	metrics *metrics.Metrics
	cfg     ManagerConfig
	mu      sync.RWMutex
}

// NewManager creates a manager. Match loops stop when ctx is cancelled.
func NewManager(ctx context.Context, hub Broadcaster, store *Store, m *metrics.Metrics, cfg ManagerConfig) *Manager {
	return &Manager{
		matches: make(map[string]*Match),
		ctx:     ctx,
		hub:     hub,
		store:   store,
		metrics: m,
		cfg:     cfg,
	}
}

// NormalizeRoomID trims, lower-cases and truncates a user supplied room id.
func NormalizeRoomID(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	if r := []rune(id); len(r) > maxRoomIDLength {
		id = string(r[:maxRoomIDLength])
	}
	return id
}

func (gm *Manager) startLocked(opts MatchOptions) (*Match, error) {
	if gm.cfg.MaxMatches > 0 && len(gm.matches) >= gm.cfg.MaxMatches {
		return nil, ErrTooManyMatches
	}
	opts.TickInterval = gm.cfg.TickInterval
	opts.Hub = gm.hub
	opts.Store = gm.store
	opts.Metrics = gm.metrics
	m := newMatch(opts)
	gm.matches[m.ID] = m
	go func() {
		m.Run(gm.ctx)
		gm.remove(m)
	}()
	return m, nil
}

func (gm *Manager) remove(m *Match) {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	if cur, ok := gm.matches[m.ID]; ok && cur == m {
		delete(gm.matches, m.ID)
	}
}

// CreateBotMatch starts a match against the synthetic player and seats the
// caller as p1.
func (gm *Manager) CreateBotMatch(ctx context.Context, name string) (*Match, JoinResult, error) {
	gm.mu.Lock()
	m, err := gm.startLocked(MatchOptions{ID: "bot_" + uuid.NewString()[:8], BotRoom: true})
	gm.mu.Unlock()
	if err != nil {
		return nil, JoinResult{}, err
	}
	res, err := m.Join(ctx, name)
	if err != nil {
		m.Close("join_failed")
		return nil, JoinResult{}, err
	}
	logger.Log.Infow("[MATCH] bot match created", "match", m.ID)
	return m, res, nil
}

// JoinOrCreate seats the caller in the named room, creating it if needed. A
// passcode given at creation makes the room private.
func (gm *Manager) JoinOrCreate(ctx context.Context, roomID, name, passcode string) (*Match, JoinResult, error) {
	roomID = NormalizeRoomID(roomID)
	if roomID == "" || strings.HasPrefix(roomID, "bot_") {
		return nil, JoinResult{}, ErrInvalidRoomID
	}

	gm.mu.Lock()
	m, ok := gm.matches[roomID]
	if !ok {
		var hash []byte
		if passcode != "" {
			h, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.DefaultCost)
			if err != nil {
				gm.mu.Unlock()
				return nil, JoinResult{}, err
			}
			hash = h
		}
		var err error
		m, err = gm.startLocked(MatchOptions{ID: roomID, PasscodeHash: hash})
		if err != nil {
			gm.mu.Unlock()
			return nil, JoinResult{}, err
		}
		logger.Log.Infow("[MATCH] room created", "match", roomID, "private", len(hash) > 0)
	}
	gm.mu.Unlock()

	if m.Private() && bcrypt.CompareHashAndPassword(m.passcodeHash, []byte(passcode)) != nil {
		return nil, JoinResult{}, ErrBadPasscode
	}

	res, err := m.Join(ctx, name)
	if err != nil {
		return nil, JoinResult{}, err
	}
	return m, res, nil
}

func (gm *Manager) Get(id string) (*Match, error) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	m, ok := gm.matches[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	return m, nil
}

// Close stops a match and forgets it.
func (gm *Manager) Close(id, reason string) error {
	gm.mu.Lock()
	m, ok := gm.matches[id]
	if ok {
		delete(gm.matches, id)
	}
	gm.mu.Unlock()
	if !ok {
		return ErrMatchNotFound
	}
	m.Close(reason)
	return nil
}

// Rooms lists the human rooms, ordered by id.
func (gm *Manager) Rooms() []RoomSummary {
	gm.mu.RLock()
	list := make([]RoomSummary, 0, len(gm.matches))
	for _, m := range gm.matches {
		if m.BotRoom {
			continue
		}
		list = append(list, m.Summary())
	}
	gm.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

func (gm *Manager) Count() int {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	return len(gm.matches)
}

// Snapshot returns the live view of a match, falling back to the cached
// snapshot once the match has ended.
func (gm *Manager) Snapshot(ctx context.Context, id string) (*Snapshot, error) {
	if m, err := gm.Get(id); err == nil {
		return m.Snapshot(), nil
	}
	snap, err := gm.store.LoadSnapshot(ctx, id)
	if errors.Is(err, ErrSnapshotNotFound) {
		return nil, ErrMatchNotFound
	}
	return snap, err
}

// idleMatches returns the ids of matches with no accepted command since cutoff.
func (gm *Manager) idleMatches(cutoff time.Time) []string {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	var ids []string
	for id, m := range gm.matches {
		if m.LastActivity().Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids
}
