package maze

import "fmt"

// Variant selects what happens when the player enters or leaves a room.
type Variant int

const (
	VariantBasic Variant = iota
	VariantGoal
	VariantLitter
)

var variantNames = map[Variant]string{
	VariantBasic:  "basic_room",
	VariantGoal:   "goal_room",
	VariantLitter: "litter_room",
}

func (v Variant) String() string {
	if name, ok := variantNames[v]; ok {
		return name
	}
	return fmt.Sprintf("Variant(%d)", int(v))
}

func (v Variant) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *Variant) UnmarshalText(b []byte) error {
	for variant, name := range variantNames {
		if name == string(b) {
			*v = variant
			return nil
		}
	}
	return fmt.Errorf("unknown room variant %q", string(b))
}

// Room is one cell of the grid.
type Room struct {
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Doors      Doors   `json:"doors"`
	Variant    Variant `json:"variant"`
	Discovered bool    `json:"discovered"` // a door leading here has been seen
	Visited    bool    `json:"visited"`    // the player has stood in it
}

func newRoom(x, y int, v Variant) *Room {
	return &Room{X: x, Y: y, Variant: v}
}

func (r *Room) HasDoor(d Direction) bool {
	return r.Doors.Has(d)
}
