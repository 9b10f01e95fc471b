package maze

import (
	"fmt"

	"github.com/zyedidia/generic/mapset"
)

const (
	MinWidth  = 4
	MinHeight = 3
)

// Grid owns every Room of one generated map. Rooms are indexed rooms[y][x].
type Grid struct {
	Width  int
	Height int
	rooms  [][]*Room
	start  *Room
	goal   *Room
}

func newGrid(width, height int) *Grid {
	rooms := make([][]*Room, height)
	for y := range rooms {
		rooms[y] = make([]*Room, width)
	}
	return &Grid{Width: width, Height: height, rooms: rooms}
}

func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.Width && y >= 0 && y < g.Height
}

// Room returns the room at x,y or nil when outside the grid.
func (g *Grid) Room(x, y int) *Room {
	if !g.InBounds(x, y) {
		return nil
	}
	return g.rooms[y][x]
}

func (g *Grid) Start() *Room { return g.start }
func (g *Grid) Goal() *Room  { return g.goal }

// Neighbor returns the grid-adjacent room in direction d, ignoring doors.
func (g *Grid) Neighbor(r *Room, d Direction) *Room {
	dx, dy := d.Delta()
	return g.Room(r.X+dx, r.Y+dy)
}

// Through returns the room reached by walking through r's door in direction d.
// It fails with ErrLogic when the door is missing or leads off the grid.
func (g *Grid) Through(r *Room, d Direction) (*Room, error) {
	if !r.HasDoor(d) {
		return nil, fmt.Errorf("%w: room (%d,%d) has no %s door", ErrLogic, r.X, r.Y, d)
	}
	next := g.Neighbor(r, d)
	if next == nil {
		return nil, fmt.Errorf("%w: %s door of room (%d,%d) leads outside the grid", ErrLogic, d, r.X, r.Y)
	}
	return next, nil
}

// PossibleDirections returns the directions from x,y that stay inside the grid.
func (g *Grid) PossibleDirections(x, y int) []Direction {
	dirs := make([]Direction, 0, 4)
	for _, d := range Directions {
		dx, dy := d.Delta()
		if g.InBounds(x+dx, y+dy) {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// Rooms returns every room in row-major order.
func (g *Grid) Rooms() []*Room {
	out := make([]*Room, 0, g.Width*g.Height)
	for y := 0; y < g.Height; y++ {
		out = append(out, g.rooms[y]...)
	}
	return out
}

// Visit marks r as visited and discovers every room behind one of its doors.
func (g *Grid) Visit(r *Room) {
	r.Visited = true
	r.Discovered = true
	for _, d := range r.Doors.Open() {
		if n := g.Neighbor(r, d); n != nil {
			n.Discovered = true
		}
	}
}

// Distances runs a breadth-first search over door edges from start and
// returns the hop count of every reachable room.
func (g *Grid) Distances(start *Room) map[*Room]int {
	dist := map[*Room]int{start: 0}
	visited := mapset.New[*Room]()
	visited.Put(start)
	queue := []*Room{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, d := range current.Doors.Open() {
			next := g.Neighbor(current, d)
			if next == nil || visited.Has(next) {
				continue
			}
			visited.Put(next)
			dist[next] = dist[current] + 1
			queue = append(queue, next)
		}
	}
	return dist
}

// RoomsWithinRange returns the rooms whose BFS distance from start lies in
// [minDistance, maxDistance], in discovery order.
func (g *Grid) RoomsWithinRange(start *Room, minDistance, maxDistance int) []*Room {
	type entry struct {
		room     *Room
		distance int
	}
	var inRange []*Room
	visited := mapset.New[*Room]()
	visited.Put(start)
	queue := []entry{{room: start}}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current.distance >= minDistance && current.distance <= maxDistance {
			inRange = append(inRange, current.room)
		}
		if current.distance >= maxDistance {
			continue
		}
		for _, d := range current.room.Doors.Open() {
			next := g.Neighbor(current.room, d)
			if next == nil || visited.Has(next) {
				continue
			}
			visited.Put(next)
			queue = append(queue, entry{room: next, distance: current.distance + 1})
		}
	}
	return inRange
}

// NewGrid assembles a grid from rooms laid out rooms[y][x]. It is meant for
// hand-built maps; generated maps come from a Generator.
func NewGrid(rooms [][]*Room, start, goal *Room) (*Grid, error) {
	height := len(rooms)
	if height < MinHeight || len(rooms[0]) < MinWidth {
		return nil, fmt.Errorf("%w: grid must be at least %dx%d", ErrConfiguration, MinWidth, MinHeight)
	}
	g := newGrid(len(rooms[0]), height)
	for y, row := range rooms {
		if len(row) != g.Width {
			return nil, fmt.Errorf("%w: row %d has %d rooms, want %d", ErrConfiguration, y, len(row), g.Width)
		}
		for x, r := range row {
			if r == nil {
				return nil, fmt.Errorf("%w: missing room at (%d,%d)", ErrConfiguration, x, y)
			}
			r.X, r.Y = x, y
			g.rooms[y][x] = r
		}
	}
	if start == nil || g.Room(start.X, start.Y) != start {
		return nil, fmt.Errorf("%w: start room is not part of the grid", ErrConfiguration)
	}
	if goal != nil && g.Room(goal.X, goal.Y) != goal {
		return nil, fmt.Errorf("%w: goal room is not part of the grid", ErrConfiguration)
	}
	g.start, g.goal = start, goal
	return g, nil
}
