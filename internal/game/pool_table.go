package game

import "math"

// Pocket represents one of the 6 pockets on the table.
type Pocket struct {
	ID       int  `json:"id"`
	Position Vec2 `json:"position"`
}

// RailSide identifies one of the four cushions.
type RailSide string

const (
	RailTop    RailSide = "top"
	RailBottom RailSide = "bottom"
	RailLeft   RailSide = "left"
	RailRight  RailSide = "right"
)

// Rail is a straight cushion line at the aiming margin. Coord is the y of a
// horizontal rail or the x of a vertical one.
type Rail struct {
	Side  RailSide `json:"side"`
	Coord float64  `json:"coord"`
}

// Mirror reflects p across the rail.
func (r Rail) Mirror(p Vec2) Vec2 {
	switch r.Side {
	case RailTop, RailBottom:
		return Vec2{X: p.X, Y: 2*r.Coord - p.Y}
	default:
		return Vec2{X: 2*r.Coord - p.X, Y: p.Y}
	}
}

// Table holds the complete table geometry. It is never mutated after construction.
type Table struct {
	// Pockets are the capture centers used by the simulator.
	Pockets [6]Pocket
	// AimPockets are the points the planner aims object balls at, pulled in
	// from the cushion margin by aimDepth (twice that for the side pockets).
	AimPockets [6]Pocket
	Rails      [4]Rail
}

const aimDepth = 5.0

// NewStandard8BallTable creates the standard table geometry.
func NewStandard8BallTable() *Table {
	w, h, m := TableWidth, TableHeight, TableMargin
	return &Table{
		Pockets: [6]Pocket{
			{ID: 0, Position: NewVec2(0, 0)},
			{ID: 1, Position: NewVec2(w/2, 0)},
			{ID: 2, Position: NewVec2(w, 0)},
			{ID: 3, Position: NewVec2(0, h)},
			{ID: 4, Position: NewVec2(w/2, h)},
			{ID: 5, Position: NewVec2(w, h)},
		},
		AimPockets: [6]Pocket{
			{ID: 0, Position: NewVec2(m-aimDepth, m-aimDepth)},
			{ID: 1, Position: NewVec2(w/2, m-aimDepth*2)},
			{ID: 2, Position: NewVec2(w-m+aimDepth, m-aimDepth)},
			{ID: 3, Position: NewVec2(m-aimDepth, h-m+aimDepth)},
			{ID: 4, Position: NewVec2(w/2, h-m+aimDepth*2)},
			{ID: 5, Position: NewVec2(w-m+aimDepth, h-m+aimDepth)},
		},
		Rails: [4]Rail{
			{Side: RailTop, Coord: m},
			{Side: RailBottom, Coord: h - m},
			{Side: RailLeft, Coord: m},
			{Side: RailRight, Coord: w - m},
		},
	}
}

var standardTable = NewStandard8BallTable()

// rackLayout lists ball ids per row, apex first.
var rackLayout = [][]int{
	{1},
	{9, 2},
	{3, 8, 10},
	{11, 5, 12, 4},
	{6, 13, 7, 14, 15},
}

// Standard8BallRack returns the 16 balls of a fresh rack: the cue ball on the
// cue spot and the triangle with its apex at (600, 200).
func Standard8BallRack() []Ball {
	balls := make([]Ball, 0, NumBalls)
	balls = append(balls, newBall(0, CueSpot))

	apex := NewVec2(600, 200)
	spacing := BallRadius * 2.05
	for r, row := range rackLayout {
		x := apex.X + float64(r)*spacing*math.Cos(math.Pi/6)
		rowHeight := float64(len(row)) * spacing
		for c, id := range row {
			y := apex.Y - rowHeight/2 + float64(c)*spacing + BallRadius
			balls = append(balls, newBall(id, NewVec2(x, y)))
		}
	}
	return balls
}
