package game

import "math"

// segmentPassesNear reports whether the segment p1→p2 passes within radius of
// center, considering only points strictly between the endpoints.
func segmentPassesNear(p1, p2, center Vec2, radius float64) bool {
	d := p2.Minus(p1)
	length := d.Magnitude()
	if length < 1 {
		return false
	}
	u := d.Times(1 / length)
	t := center.Minus(p1).Dot(u)
	if t <= 0 || t >= length {
		return false
	}
	closest := p1.Plus(u.Times(t))
	return closest.DistanceTo(center) < radius
}

// pathClearance is the distance from a travel line at which another ball blocks it.
const pathClearance = BallRadius*2 + 0.5

// pathClear reports whether a ball can travel from start to end without
// meeting any active ball other than ignoreID.
func pathClear(start, end Vec2, balls []Ball, ignoreID int) bool {
	for i := range balls {
		b := &balls[i]
		if b.ID == ignoreID || b.State != BallActive {
			continue
		}
		if segmentPassesNear(start, end, b.Pos, pathClearance) {
			return false
		}
	}
	return true
}

// playable reports whether p is a valid cue-ball center inside the cushion margin.
func playable(p Vec2) bool {
	m := BallRadius
	return p.X > TableMargin+m && p.X < TableWidth-TableMargin-m &&
		p.Y > TableMargin+m && p.Y < TableHeight-TableMargin-m
}

// clampToPlayable moves p inside the ball-in-hand rectangle.
func clampToPlayable(p Vec2) Vec2 {
	minX, maxX := TableMargin+BallRadius, TableWidth-TableMargin-BallRadius
	minY, maxY := TableMargin+BallRadius, TableHeight-TableMargin-BallRadius
	return Vec2{
		X: math.Max(minX, math.Min(maxX, p.X)),
		Y: math.Max(minY, math.Min(maxY, p.Y)),
	}
}

// normalizeAngle wraps a into [-pi, pi].
func normalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// rollingFriction returns the per-tick velocity multiplier for a ball moving at speed.
func rollingFriction(speed float64) float64 {
	switch {
	case speed > 8:
		return 0.993
	case speed > 4:
		return 0.990
	case speed > 2:
		return 0.987
	default:
		return 0.982
	}
}
