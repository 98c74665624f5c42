package game

import "math"

// BallLifecycle is the physical state of a ball on the table.
type BallLifecycle string

const (
	BallActive  BallLifecycle = "active"
	BallFalling BallLifecycle = "falling" // captured, animating into its pocket
	BallPlacing BallLifecycle = "placing" // cue ball in hand, not yet placed
)

// Category is the ball kind derived from its id.
type Category string

const (
	CategoryCue    Category = "cue"
	CategorySolid  Category = "solid"
	CategoryStripe Category = "stripe"
	CategoryBlack  Category = "black"
)

// CategoryOf returns the category of the ball with the given id.
func CategoryOf(id int) Category {
	switch {
	case id == 0:
		return CategoryCue
	case id == 8:
		return CategoryBlack
	case id > 8:
		return CategoryStripe
	default:
		return CategorySolid
	}
}

// Ball represents a single pool ball's physics state.
type Ball struct {
	ID    int           `json:"id" msgpack:"id"`
	Pos   Vec2          `json:"pos" msgpack:"pos"`
	Vel   Vec2          `json:"vel" msgpack:"vel"`
	State BallLifecycle `json:"state" msgpack:"state"`
	Scale float64       `json:"scale" msgpack:"scale"`

	pocket Vec2 // capture center while falling
}

func newBall(id int, pos Vec2) Ball {
	return Ball{ID: id, Pos: pos, State: BallActive, Scale: 1}
}

func (b *Ball) Category() Category {
	return CategoryOf(b.ID)
}

func (b *Ball) Speed() float64 {
	return b.Vel.Magnitude()
}

// AudioEvent is a sound cue emitted by the simulator.
type AudioEvent struct {
	Type    string  `json:"type"` // "hit", "cushion", "pocket"
	Volume  float64 `json:"vol"`
	Variant string  `json:"variant,omitempty"`
}

// AudioQueue accumulates audio events between flushes. A nil queue discards events.
type AudioQueue struct {
	events []AudioEvent
}

func (q *AudioQueue) push(e AudioEvent) {
	if q == nil {
		return
	}
	q.events = append(q.events, e)
}

// Len returns the number of queued events.
func (q *AudioQueue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.events)
}

// Flush returns at most max queued events and empties the queue.
func (q *AudioQueue) Flush(max int) []AudioEvent {
	if q == nil || len(q.events) == 0 {
		return nil
	}
	out := q.events
	if len(out) > max {
		out = out[:max]
	}
	q.events = nil
	return out
}

// Advance moves the table forward one tick: PhysicsSteps sub-steps, then
// near-zero velocity components are zeroed. Non-finite balls are healed at
// the start of every sub-step and once more at the end. It returns the ball list with removed balls filtered out.
func Advance(balls []Ball, shot *ShotRecord, audio *AudioQueue) []Ball {
	for i := 0; i < PhysicsSteps; i++ {
		balls = StepPhysics(balls, shot, audio)
	}
	for i := range balls {
		b := &balls[i]
		healNonFinite(b)
		if b.State == BallFalling {
			continue
		}
		if math.Abs(b.Vel.X) < MinVelocity {
			b.Vel.X = 0
		}
		if math.Abs(b.Vel.Y) < MinVelocity {
			b.Vel.Y = 0
		}
	}
	return balls
}

// Settled reports whether no ball is moving or falling.
func Settled(balls []Ball) bool {
	for i := range balls {
		if balls[i].State == BallFalling || !balls[i].Vel.IsZero() {
			return false
		}
	}
	return true
}

// StepPhysics advances every ball by one sub-step. The slice is filtered in
// place; pocketed object balls are dropped from the returned slice.
func StepPhysics(balls []Ball, shot *ShotRecord, audio *AudioQueue) []Ball {
	n := 0
	for i := range balls {
		b := balls[i]
		healNonFinite(&b)
		switch b.State {
		case BallFalling:
			if !stepFalling(&b, shot) {
				continue
			}
		case BallActive:
			stepActive(&b, shot, audio)
		}
		balls[n] = b
		n++
	}
	balls = balls[:n]

	for i := 0; i < len(balls); i++ {
		for j := i + 1; j < len(balls); j++ {
			if balls[i].State == BallActive && balls[j].State == BallActive {
				collide(&balls[i], &balls[j], shot, audio)
			}
		}
	}
	return balls
}

// healNonFinite recenters a ball whose position or velocity is no longer a
// real number, before it can meet another ball.
func healNonFinite(b *Ball) {
	if b.Pos.IsFinite() && b.Vel.IsFinite() {
		return
	}
	b.Pos = TableCenter
	b.Vel = Vec2{}
}

// stepFalling pulls a captured ball into its pocket. It returns false once an
// object ball has disappeared; the cue ball instead returns to the cue spot.
func stepFalling(b *Ball, shot *ShotRecord) bool {
	b.Pos = b.Pos.Plus(b.pocket.Minus(b.Pos).Times(PocketPull))
	b.Scale -= PocketShrink
	if b.Scale > 0 {
		return true
	}
	if b.ID != 0 {
		return false
	}
	b.State = BallActive
	b.Scale = 1
	b.Pos = CueSpot
	b.Vel = Vec2{}
	if shot != nil && shot.InProgress {
		shot.Scratch = true
		shot.Foul = true
		if shot.Reason == "" {
			shot.Reason = ReasonScratch
		}
	}
	return true
}

func stepActive(b *Ball, shot *ShotRecord, audio *AudioQueue) {
	b.Pos = b.Pos.Plus(b.Vel.Times(1.0 / PhysicsSteps))

	speed := b.Speed()
	fr := math.Pow(rollingFriction(speed), 1.0/PhysicsSteps)
	b.Vel = b.Vel.Times(fr)

	for _, p := range standardTable.Pockets {
		dist := b.Pos.DistanceTo(p.Position)
		if dist < PocketMouthRadius && speed < PocketMaxSpeed {
			if dist < PocketCaptureRadius {
				startFalling(b, p.Position, shot, audio)
			}
			break
		}
	}
	if b.State != BallActive {
		return
	}

	hit := false
	impact := 0.0
	if b.Pos.X < BallRadius {
		b.Pos.X = BallRadius
		impact = math.Abs(b.Vel.X)
		b.Vel.X *= -CushionRestitution
		b.Vel.Y *= CushionTangentialLoss
		hit = true
	}
	if b.Pos.X > TableWidth-BallRadius {
		b.Pos.X = TableWidth - BallRadius
		impact = math.Abs(b.Vel.X)
		b.Vel.X *= -CushionRestitution
		b.Vel.Y *= CushionTangentialLoss
		hit = true
	}
	if b.Pos.Y < BallRadius {
		b.Pos.Y = BallRadius
		impact = math.Abs(b.Vel.Y)
		b.Vel.Y *= -CushionRestitution
		b.Vel.X *= CushionTangentialLoss
		hit = true
	}
	if b.Pos.Y > TableHeight-BallRadius {
		b.Pos.Y = TableHeight - BallRadius
		impact = math.Abs(b.Vel.Y)
		b.Vel.Y *= -CushionRestitution
		b.Vel.X *= CushionTangentialLoss
		hit = true
	}
	if hit && impact > 0.5 {
		audio.push(AudioEvent{Type: "cushion", Volume: math.Min(1, impact/20)})
	}
}

func startFalling(b *Ball, pocket Vec2, shot *ShotRecord, audio *AudioQueue) {
	audio.push(AudioEvent{Type: "pocket", Volume: 1})
	b.State = BallFalling
	b.pocket = pocket
	b.Vel = b.Vel.Times(PocketEntryDamping)
	if shot != nil && shot.InProgress && b.ID != 0 {
		shot.addPocketed(b.ID)
	}
}

// collide resolves an overlap between two active balls of equal mass.
func collide(b1, b2 *Ball, shot *ShotRecord, audio *AudioQueue) {
	d := b2.Pos.Minus(b1.Pos)
	dist := d.Magnitude()
	minDist := BallRadius * 2
	if !(dist > 0) || dist >= minDist {
		return
	}

	if shot != nil && shot.InProgress && shot.FirstContactID == NoContact {
		if b1.ID == 0 && b2.ID != 0 {
			shot.FirstContactID = b2.ID
		} else if b2.ID == 0 && b1.ID != 0 {
			shot.FirstContactID = b1.ID
		}
	}

	normal := d.Times(1 / dist)

	impact := math.Abs(b1.Vel.Minus(b2.Vel).Dot(normal))
	if impact > 0.5 {
		vol := math.Min(1, impact/30)
		variant := "hit_soft"
		if vol > 0.6 {
			variant = "hit_hard"
		}
		audio.push(AudioEvent{Type: "hit", Volume: vol, Variant: variant})
	}

	overlap := (minDist - dist) / 2
	b1.Pos = b1.Pos.Minus(normal.Times(overlap))
	b2.Pos = b2.Pos.Plus(normal.Times(overlap))

	relVel := b2.Vel.Minus(b1.Vel).Dot(normal)
	if relVel > 0 {
		return
	}
	j := -(1 + BallRestitution) * relVel / 2
	impulse := normal.Times(j)
	b1.Vel = b1.Vel.Minus(impulse)
	b2.Vel = b2.Vel.Plus(impulse)
}
