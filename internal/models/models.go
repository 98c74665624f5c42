package models

import (
	"database/sql"
	"time"
)

// MatchRecord is a finished match as stored in the matches table.
type MatchRecord struct {
	ID           int64        `db:"id" json:"id"`
	MatchID      string       `db:"match_id" json:"match_id"`
	BotRoom      bool         `db:"bot_room" json:"bot_room"`
	Player1Name  string       `db:"player1_name" json:"player1_name"`
	Player2Name  string       `db:"player2_name" json:"player2_name"`
	Player1Score int          `db:"player1_score" json:"player1_score"`
	Player2Score int          `db:"player2_score" json:"player2_score"`
	Player1Group string       `db:"player1_group" json:"player1_group"`
	Player2Group string       `db:"player2_group" json:"player2_group"`
	Winner       string       `db:"winner" json:"winner"`
	EndReason    string       `db:"end_reason" json:"end_reason"`
	ShotCount    int          `db:"shot_count" json:"shot_count"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	CompletedAt  sql.NullTime `db:"completed_at" json:"completed_at,omitempty"`
}

// MatchShot is one resolved shot in the match_shots log.
type MatchShot struct {
	ID         int64     `db:"id" json:"id"`
	MatchID    string    `db:"match_id" json:"match_id"`
	ShotNumber int       `db:"shot_number" json:"shot_number"`
	Shooter    string    `db:"shooter" json:"shooter"`
	Outcome    string    `db:"outcome" json:"outcome"`
	ShotData   string    `db:"shot_data" json:"shot_data"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
