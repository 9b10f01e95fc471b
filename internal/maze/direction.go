package maze

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

// Directions lists every direction in fixed order. Iteration over doors and
// random picks always go through this order so seeded runs are reproducible.
var Directions = [4]Direction{Up, Down, Left, Right}

var directionNames = [4]string{"up", "down", "left", "right"}

func (d Direction) Valid() bool {
	return d >= Up && d <= Right
}

func (d Direction) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return directionNames[d]
}

// Opposite returns the mirrored direction (up<->down, left<->right).
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	default:
		return Left
	}
}

// Delta returns the grid offset of one step in d.
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case Up:
		return 0, -1
	case Down:
		return 0, 1
	case Left:
		return -1, 0
	case Right:
		return 1, 0
	}
	return 0, 0
}

func ParseDirection(s string) (Direction, bool) {
	for i, name := range directionNames {
		if strings.EqualFold(s, name) {
			return Direction(i), true
		}
	}
	return 0, false
}

func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid direction %d", int(d))
	}
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(b []byte) error {
	parsed, ok := ParseDirection(string(b))
	if !ok {
		return fmt.Errorf("unknown direction %q", string(b))
	}
	*d = parsed
	return nil
}

// Doors holds one flag per direction, indexed by Direction.
type Doors [4]bool

func DoorsOf(dirs ...Direction) Doors {
	var d Doors
	for _, dir := range dirs {
		d[dir] = true
	}
	return d
}

func (d Doors) Has(dir Direction) bool {
	return dir.Valid() && d[dir]
}

func (d Doors) Count() int {
	n := 0
	for _, open := range d {
		if open {
			n++
		}
	}
	return n
}

// Open returns the directions that have a door, in fixed order.
func (d Doors) Open() []Direction {
	open := make([]Direction, 0, 4)
	for _, dir := range Directions {
		if d[dir] {
			open = append(open, dir)
		}
	}
	return open
}

type doorsJSON struct {
	Up    bool `json:"up"`
	Down  bool `json:"down"`
	Left  bool `json:"left"`
	Right bool `json:"right"`
}

func (d Doors) MarshalJSON() ([]byte, error) {
	return json.Marshal(doorsJSON{Up: d[Up], Down: d[Down], Left: d[Left], Right: d[Right]})
}

func (d *Doors) UnmarshalJSON(b []byte) error {
	var j doorsJSON
	if err := json.Unmarshal(b, &j); err != nil {
		return err
	}
	*d = Doors{Up: j.Up, Down: j.Down, Left: j.Left, Right: j.Right}
	return nil
}
