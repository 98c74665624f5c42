package game

// Phase represents the current stage of a match.
type Phase string

const (
	PhaseWaitingPlayers Phase = "waiting_players"
	PhasePlacingCue     Phase = "placing_cue"
	PhasePlaying        Phase = "playing"
	PhaseGameOver       Phase = "game_over"
)

// Seat identifies a player slot in a match.
type Seat string

const (
	SeatNone Seat = ""
	SeatP1   Seat = "p1"
	SeatP2   Seat = "p2"
)

// Opponent returns the other seat. SeatNone has no opponent.
func (s Seat) Opponent() Seat {
	switch s {
	case SeatP1:
		return SeatP2
	case SeatP2:
		return SeatP1
	default:
		return SeatNone
	}
}

func (s Seat) index() int {
	if s == SeatP2 {
		return 1
	}
	return 0
}

// Valid reports whether s is one of the two playing seats.
func (s Seat) Valid() bool {
	return s == SeatP1 || s == SeatP2
}
