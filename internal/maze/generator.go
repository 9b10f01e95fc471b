package maze

import (
	"fmt"
	"math/rand"
)

const minDoorsPerRoom = 2

// Config describes the maps a Generator builds.
type Config struct {
	Width           int
	Height          int
	MinGoalDistance int
	MaxGoalDistance int
	LitterRooms     int // Basic rooms converted to Litter rooms after the goal is placed
}

func (c Config) Validate() error {
	if c.Width < MinWidth {
		return fmt.Errorf("%w: width must be %d or more, got %d", ErrConfiguration, MinWidth, c.Width)
	}
	if c.Height < MinHeight {
		return fmt.Errorf("%w: height must be %d or more, got %d", ErrConfiguration, MinHeight, c.Height)
	}
	if c.MinGoalDistance < 0 || c.MinGoalDistance > c.MaxGoalDistance {
		return fmt.Errorf("%w: goal distance range [%d, %d]", ErrConfiguration, c.MinGoalDistance, c.MaxGoalDistance)
	}
	if c.LitterRooms < 0 {
		return fmt.Errorf("%w: litter rooms must not be negative, got %d", ErrConfiguration, c.LitterRooms)
	}
	return nil
}

// Generator builds random room grids. It is not safe for concurrent use
// because it shares its random source.
type Generator struct {
	cfg Config
	rng *rand.Rand
}

func NewGenerator(cfg Config, rng *rand.Rand) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: nil random source", ErrConfiguration)
	}
	return &Generator{cfg: cfg, rng: rng}, nil
}

// Generate builds a new grid. A returned ErrNoEligibleGoal is final for this
// attempt; callers decide whether to try again.
func (g *Generator) Generate() (*Grid, error) {
	grid := newGrid(g.cfg.Width, g.cfg.Height)
	g.placeStartRoom(grid)
	g.fillRemainingRooms(grid)
	g.addDoors(grid)
	if err := g.placeGoalRoom(grid); err != nil {
		return nil, err
	}
	g.placeLitterRooms(grid)
	return grid, nil
}

// Generate is a one-shot helper around NewGenerator.
func Generate(rng *rand.Rand, width, height, minGoalDistance, maxGoalDistance int) (*Grid, error) {
	gen, err := NewGenerator(Config{
		Width:           width,
		Height:          height,
		MinGoalDistance: minGoalDistance,
		MaxGoalDistance: maxGoalDistance,
	}, rng)
	if err != nil {
		return nil, err
	}
	return gen.Generate()
}

// placeStartRoom puts an all-doors Basic room somewhere off the border.
func (g *Generator) placeStartRoom(grid *Grid) {
	x := g.rng.Intn(grid.Width-2) + 1
	y := g.rng.Intn(grid.Height-2) + 1
	start := newRoom(x, y, VariantBasic)
	start.Doors = DoorsOf(Up, Down, Left, Right)
	grid.rooms[y][x] = start
	grid.start = start
}

func (g *Generator) fillRemainingRooms(grid *Grid) {
	for y := 0; y < grid.Height; y++ {
		for x := 0; x < grid.Width; x++ {
			if grid.rooms[y][x] == nil {
				grid.rooms[y][x] = newRoom(x, y, VariantBasic)
			}
		}
	}
}

// addDoors walks the grid row by row. Each room is topped up to the minimum
// door count and its doors are mirrored onto its neighbours before the next
// room is visited, so later rooms see the doors they already inherited.
func (g *Generator) addDoors(grid *Grid) {
	for y := 0; y < grid.Height; y++ {
		for x := 0; x < grid.Width; x++ {
			room := grid.rooms[y][x]
			g.ensureMinimumDoors(room, grid.PossibleDirections(x, y))
			mirrorDoors(grid, room)
		}
	}
}

func (g *Generator) ensureMinimumDoors(room *Room, possible []Direction) {
	remaining := make([]Direction, 0, len(possible))
	for _, d := range possible {
		if !room.Doors[d] {
			remaining = append(remaining, d)
		}
	}
	for room.Doors.Count() < minDoorsPerRoom && len(remaining) > 0 {
		i := g.rng.Intn(len(remaining))
		room.Doors[remaining[i]] = true
		remaining = append(remaining[:i], remaining[i+1:]...)
	}
}

func mirrorDoors(grid *Grid, room *Room) {
	for _, d := range room.Doors.Open() {
		if n := grid.Neighbor(room, d); n != nil {
			n.Doors[d.Opposite()] = true
		}
	}
}

// placeGoalRoom swaps a room inside the distance band for a Goal room with
// the same doors.
func (g *Generator) placeGoalRoom(grid *Grid) error {
	eligible := grid.RoomsWithinRange(grid.start, g.cfg.MinGoalDistance, g.cfg.MaxGoalDistance)
	if len(eligible) == 0 {
		return fmt.Errorf("%w: distance range [%d, %d] on a %dx%d grid",
			ErrNoEligibleGoal, g.cfg.MinGoalDistance, g.cfg.MaxGoalDistance, grid.Width, grid.Height)
	}
	picked := eligible[g.rng.Intn(len(eligible))]
	goal := newRoom(picked.X, picked.Y, VariantGoal)
	goal.Doors = picked.Doors
	grid.rooms[picked.Y][picked.X] = goal
	if picked == grid.start {
		grid.start = goal
	}
	grid.goal = goal
	return nil
}

func (g *Generator) placeLitterRooms(grid *Grid) {
	if g.cfg.LitterRooms == 0 {
		return
	}
	var candidates []*Room
	for _, r := range grid.Rooms() {
		if r != grid.start && r.Variant == VariantBasic {
			candidates = append(candidates, r)
		}
	}
	g.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	for i := 0; i < g.cfg.LitterRooms && i < len(candidates); i++ {
		picked := candidates[i]
		litter := newRoom(picked.X, picked.Y, VariantLitter)
		litter.Doors = picked.Doors
		grid.rooms[picked.Y][picked.X] = litter
	}
}
