package engine

import (
	"fmt"

	"github.com/DoyleJ11/crowd-maze/internal/maze"
)

type roomHooks struct {
	enter func(m *Machine, r *maze.Room) error
	exit  func(m *Machine, r *maze.Room)
}

func noExit(*Machine, *maze.Room) {}

var variantHooks = map[maze.Variant]roomHooks{
	maze.VariantBasic: {
		enter: func(*Machine, *maze.Room) error { return nil },
		exit:  noExit,
	},
	maze.VariantGoal: {
		enter: func(m *Machine, _ *maze.Room) error {
			m.winGame()
			return nil
		},
		exit: noExit,
	},
	maze.VariantLitter: {
		enter: func(m *Machine, _ *maze.Room) error {
			box := m.cfg.Room.LitterBox()
			m.waypoint = &box
			return nil
		},
		exit: func(m *Machine, _ *maze.Room) {
			m.waypoint = nil
		},
	},
}

func hooksFor(v maze.Variant) (roomHooks, error) {
	h, ok := variantHooks[v]
	if !ok {
		return roomHooks{}, fmt.Errorf("%w: no hooks for room variant %s", maze.ErrLogic, v)
	}
	return h, nil
}
