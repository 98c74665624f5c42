package game

import (
	"math"
	"sort"
)

// ShotKind distinguishes direct pots from banks off a rail.
type ShotKind string

const (
	ShotPot  ShotKind = "pot"
	ShotBank ShotKind = "bank"
)

// Candidate is one aim/power pair the planner considers.
type Candidate struct {
	Kind     ShotKind `json:"kind"`
	Angle    float64  `json:"angle"`
	Force    float64  `json:"force"`
	TargetID int      `json:"target_id"`
	Cut      float64  `json:"cut"`
	Dist     float64  `json:"dist"`
}

func (c Candidate) rank() float64 {
	return c.Cut + c.Dist/2000
}

// Shot is the planner's chosen shot.
type Shot struct {
	Angle    float64  `json:"angle"`
	Force    float64  `json:"force"`
	Kind     ShotKind `json:"kind"`
	TargetID int      `json:"target_id"`
}

const (
	maxCutGenerate = 1.35
	maxCutEvaluate = 1.3
	topCandidates  = 10
	rolloutFrames  = 300

	minPlanForce      = 20.0
	maxPlanForce      = 65.0
	safetyForce       = 18.0
	bankDistancePad   = 100.0
	scoreWin          = 1000000.0
	scoreIllegalEight = -999999.0
	scoreFoul         = -50000.0
	scorePotted       = 10000.0
	scoreMiss         = -1000.0
	scoreNoFollowUp   = -5000.0
)

// Planner chooses shots for the seat it plays.
type Planner struct {
	Seat Seat
}

// group returns the planner's group, inferred from the opponent's if needed.
func (p Planner) group(m *MatchState) Group {
	if g := m.Player(p.Seat).Group; g != GroupNone {
		return g
	}
	return m.Player(p.Seat.Opponent()).Group.Complement()
}

// LegalTargets returns the active balls the planner may aim at first.
func (p Planner) LegalTargets(m *MatchState) []Ball {
	g := p.group(m)
	var own []Ball
	var eight *Ball
	for i := range m.Balls {
		b := m.Balls[i]
		if b.State != BallActive || b.ID == 0 {
			continue
		}
		if b.ID == 8 {
			eight = &m.Balls[i]
			continue
		}
		if g == GroupNone || g.Owns(b.Category()) {
			own = append(own, b)
		}
	}
	if len(own) == 0 && g != GroupNone && eight != nil {
		return []Ball{*eight}
	}
	return own
}

// Candidates lists direct pots for every legal target and pocket. With
// cueOverride set, the cue ball is assumed to sit there and the cue path is
// not checked. Bank shots are only generated when no direct pot exists.
func (p Planner) Candidates(m *MatchState, cueOverride *Vec2) []Candidate {
	var cue Vec2
	if cueOverride != nil {
		cue = *cueOverride
	} else {
		b := m.Cue()
		if b == nil || b.State != BallActive {
			return nil
		}
		cue = b.Pos
	}

	targets := p.LegalTargets(m)
	var out []Candidate
	for _, t := range targets {
		for _, pocket := range standardTable.AimPockets {
			toPocket := pocket.Position.Minus(t.Pos)
			pocketDist := toPocket.Magnitude()
			if pocketDist == 0 {
				continue
			}
			ghost := t.Pos.Minus(toPocket.Times(BallRadius * 2 / pocketDist))
			if !playable(ghost) {
				continue
			}
			if !pathClear(t.Pos, pocket.Position, m.Balls, t.ID) {
				continue
			}
			if cueOverride == nil && !pathClear(cue, ghost, m.Balls, t.ID) {
				continue
			}

			aim := ghost.Minus(cue)
			aimDist := aim.Magnitude()
			angle := aim.Angle()
			cut := math.Abs(normalizeAngle(angle - toPocket.Angle()))
			if cut > maxCutGenerate {
				continue
			}

			force := 42 + (aimDist+pocketDist)/10
			if cut > 0.4 {
				force *= 0.9
			}
			if pocketDist < 100 {
				force *= 0.7
			}
			out = append(out, Candidate{
				Kind:     ShotPot,
				Angle:    angle,
				Force:    clampForce(force),
				TargetID: t.ID,
				Cut:      cut,
				Dist:     aimDist + pocketDist,
			})
		}
	}

	if cueOverride == nil && len(out) == 0 && len(targets) > 0 {
		out = p.bankCandidates(m, cue, targets[0])
	}
	return out
}

// bankCandidates aims target at each pocket mirrored across each rail.
func (p Planner) bankCandidates(m *MatchState, cue Vec2, target Ball) []Candidate {
	var out []Candidate
	for _, pocket := range standardTable.AimPockets {
		for _, rail := range standardTable.Rails {
			mirror := rail.Mirror(pocket.Position)
			toMirror := mirror.Minus(target.Pos)
			mirrorDist := toMirror.Magnitude()
			if mirrorDist == 0 {
				continue
			}
			ghost := target.Pos.Minus(toMirror.Times(BallRadius * 2 / mirrorDist))
			if !playable(ghost) {
				continue
			}
			if !pathClear(cue, ghost, m.Balls, target.ID) {
				continue
			}
			aim := ghost.Minus(cue)
			aimDist := aim.Magnitude()
			out = append(out, Candidate{
				Kind:     ShotBank,
				Angle:    aim.Angle(),
				Force:    clampForce(50 + aimDist/5),
				TargetID: target.ID,
				Cut:      1.0,
				Dist:     aimDist + mirrorDist + bankDistancePad,
			})
		}
	}
	return out
}

func clampForce(f float64) float64 {
	return math.Max(minPlanForce, math.Min(maxPlanForce, f))
}

// RolloutResult is the settled outcome of a simulated shot.
type RolloutResult struct {
	Outcome ShotOutcome
	Final   *MatchState
	CuePos  *Vec2
}

// Rollout plays angle/force on a private copy of m until the table settles
// or the frame cap is reached, then applies the rules without closing the
// shot record. m is never modified.
func (p Planner) Rollout(m *MatchState, angle, force float64) (RolloutResult, bool) {
	sim := m.Clone()
	cue := sim.Cue()
	if cue == nil {
		return RolloutResult{}, false
	}
	sim.Shot.Open(p.Seat)
	sim.Turn = p.Seat
	cue.Vel = Polar(angle, force)

	for frame := 0; frame < rolloutFrames; frame++ {
		sim.Balls = Advance(sim.Balls, &sim.Shot, nil)
		if Settled(sim.Balls) {
			break
		}
	}
	out, _ := ResolveShot(sim, nil)

	res := RolloutResult{Outcome: out, Final: sim}
	if c := sim.Cue(); c != nil {
		pos := c.Pos
		res.CuePos = &pos
	}
	return res, true
}

// score rates a rollout of c. The second result is false for outcomes the
// planner discards outright.
func (p Planner) score(c Candidate, r RolloutResult) (float64, bool) {
	o := r.Outcome
	potted := func(id int) bool {
		for _, x := range o.Pocketed {
			if x == id {
				return true
			}
		}
		return false
	}

	var s float64
	switch {
	case potted(8):
		if c.TargetID != 8 || o.Foul || o.Scratch {
			s = scoreIllegalEight
		} else {
			s = scoreWin
		}
	case o.Scratch || o.Foul:
		s = scoreFoul
	case o.FirstContactID == c.TargetID && potted(c.TargetID):
		s = scorePotted
	default:
		s = scoreMiss
	}
	if s < 0 {
		return s, false
	}

	if r.CuePos != nil && c.TargetID != 8 {
		next := p.Candidates(r.Final, r.CuePos)
		if len(next) > 0 {
			sort.SliceStable(next, func(i, j int) bool { return next[i].Cut < next[j].Cut })
			s += 2000 - next[0].Cut*1000
			s -= next[0].Dist
		} else {
			s += scoreNoFollowUp
		}
	}

	s -= c.Cut * 500
	s -= c.Dist * 1.5
	return s, true
}

// Plan picks the best shot for the planner's seat. It returns false when no
// candidate exists at all.
func (p Planner) Plan(m *MatchState) (Shot, bool) {
	all := p.Candidates(m, nil)
	if len(all) == 0 {
		return Shot{}, false
	}

	var ranked []Candidate
	for _, c := range all {
		if c.Cut < maxCutEvaluate {
			ranked = append(ranked, c)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].rank() < ranked[j].rank() })
	if len(ranked) > topCandidates {
		ranked = ranked[:topCandidates]
	}

	return choose(ranked, func(c Candidate) (float64, bool) {
		r, ok := p.Rollout(m, c.Angle, c.Force)
		if !ok {
			return 0, false
		}
		return p.score(c, r)
	})
}

// choose returns the highest scoring viable candidate. When nothing scores
// positive it falls back to a soft shot along the best ranked candidate.
func choose(ranked []Candidate, eval func(Candidate) (float64, bool)) (Shot, bool) {
	var best Shot
	found := false
	bestScore := math.Inf(-1)
	for _, c := range ranked {
		s, viable := eval(c)
		if !viable {
			continue
		}
		if s > bestScore {
			bestScore = s
			best = Shot{Angle: c.Angle, Force: c.Force, Kind: c.Kind, TargetID: c.TargetID}
			found = true
		}
	}

	if bestScore < 0 && len(ranked) > 0 {
		c := ranked[0]
		return Shot{Angle: c.Angle, Force: safetyForce, Kind: c.Kind, TargetID: c.TargetID}, true
	}
	return best, found
}

// nearestTarget returns a soft shot straight at the closest legal target.
func (p Planner) nearestTarget(m *MatchState) (Shot, bool) {
	cue := m.Cue()
	if cue == nil || cue.State != BallActive {
		return Shot{}, false
	}
	targets := p.LegalTargets(m)
	if len(targets) == 0 {
		return Shot{}, false
	}
	sort.SliceStable(targets, func(i, j int) bool {
		return cue.Pos.DistanceTo(targets[i].Pos) < cue.Pos.DistanceTo(targets[j].Pos)
	})
	t := targets[0]
	return Shot{Angle: t.Pos.Minus(cue.Pos).Angle(), Force: minPlanForce, Kind: ShotPot, TargetID: t.ID}, true
}
