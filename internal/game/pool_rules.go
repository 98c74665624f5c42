package game

import "fmt"

// Foul and result reasons surfaced in the shot record.
const (
	ReasonNoContact       = "no ball struck"
	ReasonScratch         = "scratch"
	ReasonWrongBallFmt    = "hit opponent ball first (%s)"
	ReasonEightTooSoon    = "hit the 8 before clearing group"
	ReasonEightEarly      = "potted the 8 too early"
	ReasonEightScratch    = "scratched on the 8"
	ReasonEightBeforeDone = "potted the 8 before clearing group"
	ReasonEightFoul       = "foul on the 8"
)

// ShotOutcome summarises what ResolveShot decided.
type ShotOutcome struct {
	Shooter        Seat   `json:"shooter"`
	FirstContactID int    `json:"first_contact_id"`
	Pocketed       []int  `json:"pocketed"`
	Scratch        bool   `json:"scratch"`
	Foul           bool   `json:"foul"`
	Reason         string `json:"reason"`
	GroupAssigned  bool   `json:"group_assigned"`
	Points         int    `json:"points"`
	TurnPassed     bool   `json:"turn_passed"`
	GameOver       bool   `json:"game_over"`
	Winner         Seat   `json:"winner,omitempty"`
}

// ResolveShot applies the 8-ball rules to a settled shot. done is called with
// the shot record once the state has been updated; pass nil to leave the
// record open for inspection. It is a no-op, returning false, when no shooter
// is set.
func ResolveShot(m *MatchState, done func(*ShotRecord)) (ShotOutcome, bool) {
	shot := &m.Shot
	shooter := shot.Shooter
	if !shooter.Valid() {
		if done != nil {
			done(shot)
		}
		return ShotOutcome{}, false
	}
	other := shooter.Opponent()
	me, them := m.Player(shooter), m.Player(other)
	out := ShotOutcome{Shooter: shooter}

	if shot.FirstContactID == NoContact {
		shot.Foul = true
		if shot.Reason == "" {
			shot.Reason = ReasonNoContact
		}
	}

	if cue := m.Cue(); cue == nil || cue.State == BallFalling || shot.Scratch {
		shot.Scratch = true
		shot.Foul = true
		shot.Reason = ReasonScratch
	}

	if me.Group == GroupNone && them.Group == GroupNone {
		for _, id := range shot.Pocketed {
			if id == 0 || id == 8 {
				continue
			}
			me.Group = groupOf(CategoryOf(id))
			them.Group = me.Group.Complement()
			out.GroupAssigned = true
			break
		}
	}

	if !shot.Foul && me.Group != GroupNone {
		fc := shot.FirstContactID
		if fc != NoContact && fc != 8 {
			if c := CategoryOf(fc); !me.Group.Owns(c) {
				shot.Foul = true
				shot.Reason = fmt.Sprintf(ReasonWrongBallFmt, c)
			}
		}
		if fc == 8 && m.activeInGroup(me.Group) > 0 {
			shot.Foul = true
			shot.Reason = ReasonEightTooSoon
		}
	}

	if me.Group != GroupNone {
		for _, id := range shot.Pocketed {
			if id != 8 && me.Group.Owns(CategoryOf(id)) {
				out.Points++
			}
		}
		me.Score += out.Points
	}

	if m.Ball(8) == nil {
		m.Phase = PhaseGameOver
		switch {
		case me.Group == GroupNone:
			m.Winner = other
			shot.Reason = ReasonEightEarly
		case shot.Scratch:
			m.Winner = other
			shot.Reason = ReasonEightScratch
		case m.activeInGroup(me.Group) > 0:
			m.Winner = other
			shot.Reason = ReasonEightBeforeDone
		case shot.Foul:
			m.Winner = other
			shot.Reason = ReasonEightFoul
		default:
			m.Winner = shooter
		}
		out.GameOver = true
		out.Winner = m.Winner
		return finishOutcome(out, shot, done), true
	}

	keep := false
	if !shot.Foul {
		for _, id := range shot.Pocketed {
			if id == 8 {
				continue
			}
			if me.Group == GroupNone || me.Group.Owns(CategoryOf(id)) {
				keep = true
				break
			}
		}
	}
	if !keep {
		m.Turn = other
		out.TurnPassed = true
	}
	return finishOutcome(out, shot, done), true
}

func finishOutcome(out ShotOutcome, shot *ShotRecord, done func(*ShotRecord)) ShotOutcome {
	out.FirstContactID = shot.FirstContactID
	out.Pocketed = append([]int(nil), shot.Pocketed...)
	out.Scratch = shot.Scratch
	out.Foul = shot.Foul
	out.Reason = shot.Reason
	if done != nil {
		done(shot)
	}
	return out
}

// Label classifies the outcome for metrics and the shot log.
func (o ShotOutcome) Label() string {
	switch {
	case o.GameOver:
		return "game_over"
	case o.Scratch:
		return "scratch"
	case o.Foul:
		return "foul"
	case len(o.Pocketed) > 0:
		return "potted"
	default:
		return "miss"
	}
}
