package game

// Table geometry and physics constants for the 8-ball table.
// Velocities are in table units per tick; each tick integrates PhysicsSteps sub-steps.

const (
	TableWidth  = 800.0
	TableHeight = 400.0
	TableMargin = 25.0 // cushion inset used for aiming and ball-in-hand placement
	BallRadius  = 11.5
	NumBalls    = 16 // 0=cue, 1-7=solids, 8=eight, 9-15=stripes

	PocketMouthRadius   = 28.0
	PocketCaptureRadius = 26.0
	PocketMaxSpeed      = 95.0
	PocketPull          = 0.15
	PocketShrink        = 0.03
	PocketEntryDamping  = 0.45

	BallRestitution       = 0.985
	CushionRestitution    = 0.85
	CushionTangentialLoss = 0.985
	MinVelocity           = 0.02
	PhysicsSteps          = 8

	MaxShotForce = 50.0
)

// CueSpot is where the cue ball is placed after a rack or a scratch.
var CueSpot = Vec2{X: 200, Y: 200}

// TableCenter is where a ball with corrupted coordinates is recentered.
var TableCenter = Vec2{X: TableWidth / 2, Y: TableHeight / 2}
