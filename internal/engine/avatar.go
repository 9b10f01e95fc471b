package engine

import (
	"math"

	"github.com/DoyleJ11/crowd-maze/internal/maze"
)

// Point is a position in room-local pixels, origin top-left.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Geometry is the layout shared by every room: its size and the wall
// thickness the avatar walks up to before passing through a door.
type Geometry struct {
	Width   float64
	Height  float64
	MarginX float64
	MarginY float64
}

func (g Geometry) Center() Point {
	return Point{X: g.Width / 2, Y: g.Height / 2}
}

// LitterBox is where the avatar has to go before it may settle in a Litter room.
func (g Geometry) LitterBox() Point {
	return Point{X: g.Width - g.MarginX - (g.Width-2*g.MarginX)/4, Y: g.MarginY + (g.Height-2*g.MarginY)/4}
}

// Doorway returns p moved onto the wall on side d.
func (g Geometry) Doorway(p Point, d maze.Direction) Point {
	switch d {
	case maze.Up:
		p.Y = g.MarginY
	case maze.Down:
		p.Y = g.Height - g.MarginY
	case maze.Left:
		p.X = g.MarginX
	case maze.Right:
		p.X = g.Width - g.MarginX
	}
	return p
}

// stepToward moves p toward target by at most step on each axis and reports
// whether p has arrived. Arrival snaps p onto the target.
func stepToward(p *Point, target Point, step float64) bool {
	dx := target.X - p.X
	dy := target.Y - p.Y
	if math.Abs(dx) <= step && math.Abs(dy) <= step {
		*p = target
		return true
	}
	p.X += clamp(dx, step)
	p.Y += clamp(dy, step)
	return false
}

func clamp(v, limit float64) float64 {
	return math.Max(-limit, math.Min(limit, v))
}
