package game

import "math"

// Group represents a player's assigned ball group.
type Group string

const (
	GroupNone   Group = "" // not yet assigned
	GroupSolid  Group = "solid"
	GroupStripe Group = "stripe"
)

// Complement returns the opposing group.
func (g Group) Complement() Group {
	switch g {
	case GroupSolid:
		return GroupStripe
	case GroupStripe:
		return GroupSolid
	default:
		return GroupNone
	}
}

// Owns reports whether a ball of category c belongs to the group.
func (g Group) Owns(c Category) bool {
	return (g == GroupSolid && c == CategorySolid) || (g == GroupStripe && c == CategoryStripe)
}

func groupOf(c Category) Group {
	if c == CategoryStripe {
		return GroupStripe
	}
	return GroupSolid
}

// PlayerState represents a player in a pool match.
type PlayerState struct {
	ID    string `json:"id" msgpack:"id"`
	Name  string `json:"name" msgpack:"name"`
	Score int    `json:"score" msgpack:"score"`
	Group Group  `json:"group" msgpack:"group"`
	Bot   bool   `json:"bot" msgpack:"bot"`
}

// Seated reports whether somebody occupies the seat.
func (p *PlayerState) Seated() bool {
	return p.ID != ""
}

// NoContact is the FirstContactID of a shot that has not touched a ball yet.
const NoContact = -1

// ShotRecord is the transient state of the shot being played.
type ShotRecord struct {
	InProgress     bool   `json:"in_progress" msgpack:"in_progress"`
	Shooter        Seat   `json:"shooter" msgpack:"shooter"`
	FirstContactID int    `json:"first_contact_id" msgpack:"first_contact_id"`
	Pocketed       []int  `json:"pocketed" msgpack:"pocketed"`
	Scratch        bool   `json:"scratch" msgpack:"scratch"`
	Foul           bool   `json:"foul" msgpack:"foul"`
	Reason         string `json:"reason" msgpack:"reason"`
}

// Open starts a fresh shot for shooter.
func (s *ShotRecord) Open(shooter Seat) {
	*s = ShotRecord{InProgress: true, Shooter: shooter, FirstContactID: NoContact}
}

// Close ends the shot. The foul flags and reason stay visible until the next shot.
func (s *ShotRecord) Close() {
	s.InProgress = false
	s.Shooter = SeatNone
	s.Pocketed = nil
}

func (s *ShotRecord) addPocketed(id int) {
	for _, p := range s.Pocketed {
		if p == id {
			return
		}
	}
	s.Pocketed = append(s.Pocketed, id)
}

func (s *ShotRecord) pocketed(id int) bool {
	for _, p := range s.Pocketed {
		if p == id {
			return true
		}
	}
	return false
}

func (s ShotRecord) clone() ShotRecord {
	c := s
	c.Pocketed = append([]int(nil), s.Pocketed...)
	return c
}

// MatchState is the complete state of one 8-ball match. It is owned by a
// single goroutine and is not safe for concurrent use.
type MatchState struct {
	Players [2]PlayerState
	Balls   []Ball
	Turn    Seat
	Phase   Phase
	Winner  Seat
	Shot    ShotRecord
	Bot     *BotExecutor // nil unless the second seat is synthetic
	Tick    uint64
}

// NewMatchState creates a racked table waiting for players.
func NewMatchState() *MatchState {
	return &MatchState{
		Players: [2]PlayerState{{Name: "P1"}, {Name: "P2"}},
		Balls:   Standard8BallRack(),
		Turn:    SeatP1,
		Phase:   PhaseWaitingPlayers,
		Shot:    ShotRecord{FirstContactID: NoContact},
	}
}

// Clone returns a deep copy without the bot executor, for forward simulation.
func (m *MatchState) Clone() *MatchState {
	c := *m
	c.Balls = append([]Ball(nil), m.Balls...)
	c.Shot = m.Shot.clone()
	c.Bot = nil
	return &c
}

func (m *MatchState) Player(s Seat) *PlayerState {
	return &m.Players[s.index()]
}

// Ball returns the ball with the given id, or nil once it has left the table.
func (m *MatchState) Ball(id int) *Ball {
	for i := range m.Balls {
		if m.Balls[i].ID == id {
			return &m.Balls[i]
		}
	}
	return nil
}

func (m *MatchState) Cue() *Ball {
	return m.Ball(0)
}

// Settled reports whether every ball is at rest.
func (m *MatchState) Settled() bool {
	return Settled(m.Balls)
}

// activeInGroup counts the active balls belonging to g.
func (m *MatchState) activeInGroup(g Group) int {
	n := 0
	for i := range m.Balls {
		b := &m.Balls[i]
		if b.State == BallActive && g.Owns(b.Category()) {
			n++
		}
	}
	return n
}

// canAct reports whether seat may issue a command right now.
func (m *MatchState) canAct(seat Seat, phase Phase) bool {
	return seat.Valid() && m.Phase == phase && m.Turn == seat &&
		!m.Shot.InProgress && m.Settled()
}

// Shoot strikes the cue ball for seat. Force is clamped to MaxShotForce.
// It reports whether the shot was taken.
func (m *MatchState) Shoot(seat Seat, angle, force float64) bool {
	if !m.canAct(seat, PhasePlaying) || m.Player(seat).Bot {
		return false
	}
	if math.IsNaN(angle) || math.IsInf(angle, 0) || math.IsNaN(force) || math.IsInf(force, 0) {
		return false
	}
	cue := m.Cue()
	if cue == nil || cue.State != BallActive {
		return false
	}
	force = math.Max(0, math.Min(force, MaxShotForce))
	m.Shot.Open(seat)
	cue.Vel = Polar(angle, force)
	return true
}

// PlaceCueBall puts the cue ball in hand at pos, clamped inside the cushion
// margin. It is rejected when the spot overlaps another ball.
func (m *MatchState) PlaceCueBall(seat Seat, pos Vec2) bool {
	if !m.canAct(seat, PhasePlacingCue) || !pos.IsFinite() {
		return false
	}
	cue := m.Cue()
	if cue == nil {
		return false
	}
	pos = clampToPlayable(pos)
	if m.overlapsBall(pos, 0) {
		return false
	}
	cue.Pos = pos
	cue.Vel = Vec2{}
	cue.State = BallActive
	cue.Scale = 1
	m.Phase = PhasePlaying
	return true
}

func (m *MatchState) overlapsBall(pos Vec2, ignoreID int) bool {
	for i := range m.Balls {
		b := &m.Balls[i]
		if b.ID == ignoreID || b.State != BallActive {
			continue
		}
		if b.Pos.DistanceTo(pos) < BallRadius*2 {
			return true
		}
	}
	return false
}

// freeCueSpot returns the cue spot, nudged right until it does not overlap a ball.
func (m *MatchState) freeCueSpot() Vec2 {
	p := CueSpot
	for m.overlapsBall(p, 0) && p.X < TableWidth-TableMargin-BallRadius {
		p.X += BallRadius
	}
	return clampToPlayable(p)
}

// giveBallInHand parks the cue ball for the player now on turn.
func (m *MatchState) giveBallInHand() {
	cue := m.Cue()
	if cue == nil {
		return
	}
	cue.State = BallPlacing
	cue.Vel = Vec2{}
	cue.Pos = CueSpot
	m.Phase = PhasePlacingCue
}

// Reset re-racks the table and clears scores and groups. It is rejected while
// a shot is in progress.
func (m *MatchState) Reset() bool {
	if m.Shot.InProgress {
		return false
	}
	m.Balls = Standard8BallRack()
	m.Turn = SeatP1
	m.Winner = SeatNone
	m.Shot = ShotRecord{FirstContactID: NoContact}
	for i := range m.Players {
		m.Players[i].Score = 0
		m.Players[i].Group = GroupNone
	}
	if m.Players[0].Seated() && m.Players[1].Seated() {
		m.Phase = PhasePlaying
	} else {
		m.Phase = PhaseWaitingPlayers
	}
	if m.Bot != nil {
		m.Bot.reset()
	}
	return true
}

// Meta is the compact match summary sent whenever turn, phase or scores change.
type Meta struct {
	Players map[Seat]PlayerState `json:"players" msgpack:"players"`
	Turn    Seat                 `json:"current_turn" msgpack:"current_turn"`
	Phase   Phase                `json:"phase" msgpack:"phase"`
	Winner  Seat                 `json:"winner,omitempty" msgpack:"winner"`
	Shot    ShotRecord           `json:"shot" msgpack:"shot"`
}

func (m *MatchState) Meta() Meta {
	return Meta{
		Players: map[Seat]PlayerState{SeatP1: m.Players[0], SeatP2: m.Players[1]},
		Turn:    m.Turn,
		Phase:   m.Phase,
		Winner:  m.Winner,
		Shot:    m.Shot.clone(),
	}
}

// BallsSnapshot returns a copy of the ball list safe to hand to another goroutine.
func (m *MatchState) BallsSnapshot() []Ball {
	return append([]Ball(nil), m.Balls...)
}
