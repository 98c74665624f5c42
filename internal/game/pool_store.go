package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/playpool/eightball/internal/logger"
	"github.com/playpool/eightball/internal/models"
)

// GameEventsChannel is the Redis channel finished matches are published on.
const GameEventsChannel = "game_events"

var ErrSnapshotNotFound = errors.New("snapshot not found")

// Snapshot is the cached view of a match, kept in Redis for late readers.
type Snapshot struct {
	MatchID    string `msgpack:"match_id" json:"match_id"`
	BotRoom    bool   `msgpack:"bot_room" json:"bot_room"`
	Meta       Meta   `msgpack:"meta" json:"meta"`
	Balls      []Ball `msgpack:"balls" json:"balls"`
	ShotNumber int    `msgpack:"shot_number" json:"shot_number"`
	SavedAt    int64  `msgpack:"saved_at" json:"saved_at"`
}

// GameEvent is published on GameEventsChannel.
type GameEvent struct {
	Type    string `json:"type"`
	Origin  string `json:"origin"`
	MatchID string `json:"match_id"`
	Winner  Seat   `json:"winner,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

func EncodeSnapshot(s *Snapshot) ([]byte, error) {
	return msgpack.Marshal(s)
}

func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := msgpack.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func snapshotKey(matchID string) string {
	return "match:" + matchID + ":state"
}

// Store persists shots, finished matches and snapshots. Either backend may be
// nil, in which case the corresponding writes are skipped.
type Store struct {
	db          *sqlx.DB
	rdb         *redis.Client
	snapshotTTL time.Duration
	origin      string
}

func NewStore(db *sqlx.DB, rdb *redis.Client, snapshotTTL time.Duration, origin string) *Store {
	if snapshotTTL <= 0 {
		snapshotTTL = time.Hour
	}
	return &Store{db: db, rdb: rdb, snapshotTTL: snapshotTTL, origin: origin}
}

// Origin identifies this process in published events.
func (s *Store) Origin() string {
	if s == nil {
		return ""
	}
	return s.origin
}

// RecordShot logs a resolved shot with its outcome as JSONB.
func (s *Store) RecordShot(ctx context.Context, matchID string, shotNumber int, out ShotOutcome) {
	if s == nil || s.db == nil {
		return
	}
	data, err := json.Marshal(out)
	if err != nil {
		logger.Log.Errorw("[DB] marshal shot", "match", matchID, "shot", shotNumber, "error", err)
		return
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO match_shots (match_id, shot_number, shooter, outcome, shot_data, created_at)
		 VALUES ($1,$2,$3,$4,$5::jsonb,NOW()) ON CONFLICT (match_id, shot_number) DO NOTHING`,
		matchID, shotNumber, string(out.Shooter), out.Label(), string(data),
	)
	if err != nil {
		logger.Log.Errorw("[DB] record shot", "match", matchID, "shot", shotNumber, "error", err)
	}
}

// SaveResult writes a finished match.
func (s *Store) SaveResult(ctx context.Context, rec models.MatchRecord) {
	if s == nil || s.db == nil {
		return
	}
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO matches (match_id, bot_room, player1_name, player2_name, player1_score, player2_score,
		   player1_group, player2_group, winner, end_reason, shot_count, created_at, completed_at)
		 VALUES (:match_id, :bot_room, :player1_name, :player2_name, :player1_score, :player2_score,
		   :player1_group, :player2_group, :winner, :end_reason, :shot_count, :created_at, :completed_at)
		 ON CONFLICT (match_id) DO UPDATE SET
		   player1_score = EXCLUDED.player1_score, player2_score = EXCLUDED.player2_score,
		   winner = EXCLUDED.winner, end_reason = EXCLUDED.end_reason,
		   shot_count = EXCLUDED.shot_count, completed_at = EXCLUDED.completed_at`,
		rec,
	)
	if err != nil {
		logger.Log.Errorw("[DB] save match result", "match", rec.MatchID, "error", err)
	}
}

// SaveSnapshot caches the latest view of a match.
func (s *Store) SaveSnapshot(ctx context.Context, snap *Snapshot) {
	if s == nil || s.rdb == nil {
		return
	}
	data, err := EncodeSnapshot(snap)
	if err != nil {
		logger.Log.Errorw("[REDIS] encode snapshot", "match", snap.MatchID, "error", err)
		return
	}
	if err := s.rdb.SetEx(ctx, snapshotKey(snap.MatchID), data, s.snapshotTTL).Err(); err != nil {
		logger.Log.Warnw("[REDIS] save snapshot", "match", snap.MatchID, "error", err)
	}
}

// LoadSnapshot returns the cached view of a match.
func (s *Store) LoadSnapshot(ctx context.Context, matchID string) (*Snapshot, error) {
	if s == nil || s.rdb == nil {
		return nil, ErrSnapshotNotFound
	}
	data, err := s.rdb.Get(ctx, snapshotKey(matchID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", matchID, err)
	}
	return DecodeSnapshot(data)
}

// Publish sends a game event to other instances.
func (s *Store) Publish(ctx context.Context, ev GameEvent) {
	if s == nil || s.rdb == nil {
		return
	}
	ev.Origin = s.origin
	b, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if n, err := s.rdb.Publish(ctx, GameEventsChannel, b).Result(); err != nil {
		logger.Log.Warnw("[REDIS] publish game event", "type", ev.Type, "match", ev.MatchID, "error", err)
	} else {
		logger.Log.Debugw("[REDIS] published game event", "type", ev.Type, "match", ev.MatchID, "subscribers", n)
	}
}
