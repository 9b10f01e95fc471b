package engine

import "github.com/DoyleJ11/crowd-maze/internal/maze"

// Coord addresses a room in the grid.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type MapView struct {
	Width  int         `json:"width"`
	Height int         `json:"height"`
	Rooms  []maze.Room `json:"rooms"`
	Player Coord       `json:"player"`
	Goal   *Coord      `json:"goal,omitempty"`
}

// View is a detached copy of everything a renderer may show.
type View struct {
	State          State                  `json:"state"`
	Round          int                    `json:"round"`
	RemainingMs    int64                  `json:"remaining_ms"`
	AllowVoting    bool                   `json:"allow_voting"`
	MovesRemaining int                    `json:"moves_remaining"`
	Wins           int                    `json:"wins"`
	Losses         int                    `json:"losses"`
	Votes          map[maze.Direction]int `json:"votes"`
	VoteTotal      int                    `json:"vote_total"`
	LastVote       *maze.Direction        `json:"last_vote,omitempty"`
	Direction      *maze.Direction        `json:"direction,omitempty"`
	Avatar         Point                  `json:"avatar"`
	Map            MapView                `json:"map"`
}

// View copies the machine state. The goal position is only included when
// revealGoal is set.
func (m *Machine) View(revealGoal bool) View {
	v := View{
		State:          m.state,
		Round:          m.round,
		RemainingMs:    m.Remaining().Milliseconds(),
		AllowVoting:    m.AllowVoting(),
		MovesRemaining: m.movesRemaining,
		Wins:           m.wins,
		Losses:         m.losses,
		Votes:          m.tally.Counts(),
		VoteTotal:      m.tally.Total(),
		Avatar:         m.avatar,
		Map: MapView{
			Width:  m.grid.Width,
			Height: m.grid.Height,
			Player: Coord{X: m.playerRoom.X, Y: m.playerRoom.Y},
		},
	}
	if last, ok := m.tally.Last(); ok {
		v.LastVote = &last
	}
	if m.hasDirection {
		d := m.direction
		v.Direction = &d
	}
	rooms := m.grid.Rooms()
	v.Map.Rooms = make([]maze.Room, len(rooms))
	for i, r := range rooms {
		v.Map.Rooms[i] = *r
		if !revealGoal && r.Variant == maze.VariantGoal {
			v.Map.Rooms[i].Variant = maze.VariantBasic
		}
	}
	if goal := m.grid.Goal(); revealGoal && goal != nil {
		v.Map.Goal = &Coord{X: goal.X, Y: goal.Y}
	}
	return v
}
