package game

import (
	"time"

	"github.com/playpool/eightball/internal/logger"
)

// BotPhase is the step the synthetic player is in.
type BotPhase string

const (
	BotIdle        BotPhase = "idle"
	BotThinking    BotPhase = "thinking"
	BotAiming      BotPhase = "aiming"
	BotStabilizing BotPhase = "stabilizing"
	BotCharging    BotPhase = "charging"
	BotShooting    BotPhase = "shooting"
)

// Bot pacing, in ticks.
const (
	botThinkTicks     = 60
	botStabilizeTicks = 12
	botAimFraction    = 0.15
	botAimTolerance   = 0.01
	botChargeStep     = 2.0
	botMovingSpeed    = 0.05
)

// BotOutput receives what the bot wants observers to see.
type BotOutput interface {
	SyncAim(angle, force float64)
	MetaChanged()
	Planned(elapsed time.Duration)
}

// BotExecutor plays the planner's shot out over several ticks so that it
// looks like a human lining up and striking.
type BotExecutor struct {
	Seat         Seat     `json:"seat"`
	Phase        BotPhase `json:"phase"`
	Target       Shot     `json:"target"`
	CurrentAngle float64  `json:"current_angle"`
	CurrentForce float64  `json:"current_force"`

	deadline uint64
	planner  Planner
}

func NewBotExecutor(seat Seat) *BotExecutor {
	return &BotExecutor{Seat: seat, Phase: BotIdle, planner: Planner{Seat: seat}}
}

func (b *BotExecutor) reset() {
	b.Phase = BotIdle
	b.CurrentForce = 0
	b.deadline = 0
}

func (b *BotExecutor) tableMoving(m *MatchState) bool {
	for i := range m.Balls {
		if m.Balls[i].State == BallFalling || m.Balls[i].Speed() > botMovingSpeed {
			return true
		}
	}
	return false
}

// Update advances the state machine by one tick.
func (b *BotExecutor) Update(m *MatchState, out BotOutput) {
	if m.Phase == PhasePlacingCue && m.Turn == b.Seat {
		if m.PlaceCueBall(b.Seat, m.freeCueSpot()) {
			out.MetaChanged()
		}
		b.reset()
		return
	}
	if m.Turn != b.Seat || m.Phase != PhasePlaying || m.Winner != SeatNone || m.Shot.InProgress {
		b.Phase = BotIdle
		return
	}
	if cue := m.Cue(); cue == nil || cue.State != BallActive {
		b.Phase = BotIdle
		return
	}
	if b.tableMoving(m) {
		return
	}

	switch b.Phase {
	case BotIdle:
		b.Phase = BotThinking
		b.deadline = m.Tick + botThinkTicks

	case BotThinking:
		if m.Tick < b.deadline {
			return
		}
		start := time.Now()
		shot, ok := b.planner.Plan(m)
		if !ok {
			shot, ok = b.planner.nearestTarget(m)
		}
		out.Planned(time.Since(start))
		if !ok {
			logger.Log.Infow("[BOT] no legal target, passing turn", "seat", b.Seat)
			m.Turn = b.Seat.Opponent()
			out.MetaChanged()
			b.Phase = BotIdle
			return
		}
		logger.Log.Debugw("[BOT] planned shot", "seat", b.Seat, "kind", shot.Kind,
			"target", shot.TargetID, "angle", shot.Angle, "force", shot.Force)
		b.Target = shot
		b.Phase = BotAiming

	case BotAiming:
		diff := normalizeAngle(b.Target.Angle - b.CurrentAngle)
		if diff < botAimTolerance && diff > -botAimTolerance {
			b.CurrentAngle = b.Target.Angle
			b.Phase = BotStabilizing
			b.deadline = m.Tick + botStabilizeTicks
		} else {
			b.CurrentAngle += diff * botAimFraction
		}
		out.SyncAim(b.CurrentAngle, 0)

	case BotStabilizing:
		if m.Tick < b.deadline {
			return
		}
		b.CurrentForce = 0
		b.Phase = BotCharging

	case BotCharging:
		visual := b.Target.Force / 60 * 160
		if b.CurrentForce < visual {
			b.CurrentForce += botChargeStep
			out.SyncAim(b.CurrentAngle, b.CurrentForce)
			return
		}
		b.Phase = BotShooting

	case BotShooting:
		cue := m.Cue()
		if cue == nil || cue.State != BallActive {
			b.Phase = BotIdle
			return
		}
		m.Shot.Open(b.Seat)
		cue.Vel = Polar(b.Target.Angle, b.Target.Force)
		out.MetaChanged()
		out.SyncAim(b.Target.Angle, 0)
		b.CurrentForce = 0
		b.Phase = BotIdle
	}
}
