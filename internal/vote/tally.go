// Package vote accumulates directional votes for one round and turns them
// into a single movement direction.
package vote

import (
	"fmt"
	"math/rand"

	"github.com/DoyleJ11/crowd-maze/internal/maze"
)

// Tally holds the per-round vote counts. The zero value is an empty tally.
type Tally struct {
	counts  [4]int
	last    maze.Direction
	hasLast bool
}

func (t *Tally) Reset() {
	*t = Tally{}
}

// Add counts one vote for d. Votes for a direction without a door in doors
// are ignored and Add reports false.
func (t *Tally) Add(d maze.Direction, doors maze.Doors) bool {
	if !doors.Has(d) {
		return false
	}
	t.counts[d]++
	t.last = d
	t.hasLast = true
	return true
}

func (t *Tally) Count(d maze.Direction) int {
	if !d.Valid() {
		return 0
	}
	return t.counts[d]
}

// Counts returns a copy of the counts keyed by direction.
func (t *Tally) Counts() map[maze.Direction]int {
	out := make(map[maze.Direction]int, len(maze.Directions))
	for _, d := range maze.Directions {
		out[d] = t.counts[d]
	}
	return out
}

// Last returns the most recently counted direction, if any vote was counted.
func (t *Tally) Last() (maze.Direction, bool) {
	return t.last, t.hasLast
}

func (t *Tally) Total() int {
	n := 0
	for _, c := range t.counts {
		n += c
	}
	return n
}

// Resolve picks the direction the player moves in. Only directions with a
// door in doors are considered. With no votes the pick is uniform over those
// doors; a tie goes to the last voted direction when it is among the leaders,
// otherwise it is uniform over the leaders.
func (t *Tally) Resolve(doors maze.Doors, rng *rand.Rand) (maze.Direction, error) {
	available := doors.Open()
	if len(available) == 0 {
		return 0, fmt.Errorf("%w: resolving votes in a room without doors", maze.ErrLogic)
	}

	maxCount := 0
	for _, d := range available {
		maxCount = max(maxCount, t.counts[d])
	}
	if maxCount == 0 {
		return available[rng.Intn(len(available))], nil
	}

	top := make([]maze.Direction, 0, len(available))
	for _, d := range available {
		if t.counts[d] == maxCount {
			top = append(top, d)
		}
	}
	if len(top) == 1 {
		return top[0], nil
	}
	if t.hasLast {
		for _, d := range top {
			if d == t.last {
				return d, nil
			}
		}
	}
	return top[rng.Intn(len(top))], nil
}
