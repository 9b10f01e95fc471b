// Package engine runs the vote-driven round loop: it collects votes, resolves
// a direction when voting closes and walks the avatar into the next room.
package engine

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/DoyleJ11/crowd-maze/internal/maze"
	"github.com/DoyleJ11/crowd-maze/internal/vote"
)

var ErrNilGenerator = errors.New("nil map generator")

// MapGenerator builds a fresh map. *maze.Generator satisfies it.
type MapGenerator interface {
	Generate() (*maze.Grid, error)
}

// Machine is the round state machine. It is not safe for concurrent use; the
// owner serializes Tick, AddVote and View calls.
type Machine struct {
	cfg Config
	gen MapGenerator
	rng *rand.Rand

	state State
	timer time.Duration // elapsed since the current phase was entered

	grid       *maze.Grid
	playerRoom *maze.Room
	tally      vote.Tally

	direction    maze.Direction
	hasDirection bool
	avatar       Point
	waypoint     *Point // set by rooms that need a detour before settling

	round          int
	roundSeq       int // rounds started over the machine's lifetime; never reset
	movesRemaining int
	wins           int
	losses         int
}

// NewMachine generates the first map and starts round 1.
func NewMachine(cfg Config, gen MapGenerator, rng *rand.Rand) (*Machine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", maze.ErrConfiguration, err)
	}
	if gen == nil {
		return nil, ErrNilGenerator
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: nil random source", maze.ErrConfiguration)
	}
	grid, err := gen.Generate()
	if err != nil {
		return nil, fmt.Errorf("generating first map: %w", err)
	}

	m := &Machine{cfg: cfg, gen: gen, rng: rng}
	m.setGrid(grid)
	m.startRound()
	return m, nil
}

// Tick advances the phase timer by dt and performs at most one phase change.
// A returned maze.ErrLogic means the machine is in an unusable state.
func (m *Machine) Tick(dt time.Duration) error {
	m.timer += dt
	step := m.cfg.Speed * dt.Seconds()

	switch m.state {
	case StateWaitingForVotes:
		if m.timer >= m.cfg.VotingDuration {
			m.enter(NextState(m.state))
		}

	case StateFinalizingVotes:
		if m.timer >= m.cfg.VotingGracePeriod {
			return m.finalizeVotes()
		}

	case StatePlayerLeavingRoom:
		if !m.hasDirection {
			return fmt.Errorf("%w: leaving room (%d,%d) without a direction", maze.ErrLogic, m.playerRoom.X, m.playerRoom.Y)
		}
		door := m.cfg.Room.Doorway(m.avatar, m.direction)
		if stepToward(&m.avatar, door, step) {
			return m.changeRoom()
		}

	case StatePlayerEnteringRoom:
		if m.waypoint != nil {
			if stepToward(&m.avatar, *m.waypoint, step) {
				m.waypoint = nil
			}
			return nil
		}
		m.enter(NextState(m.state))

	case StatePlayerMovingToCenter:
		if stepToward(&m.avatar, m.cfg.Room.Center(), step) {
			m.startRound()
		}

	case StateGameOver:
		if m.timer >= m.cfg.ResetDuration {
			return m.resetGame()
		}

	default:
		return fmt.Errorf("%w: unknown state %q", maze.ErrLogic, m.state)
	}
	return nil
}

// AllowVoting reports whether votes are currently accepted.
func (m *Machine) AllowVoting() bool {
	return m.state == StateWaitingForVotes || m.state == StateFinalizingVotes
}

// AddVote counts a vote for d. It reports false, changing nothing, when
// voting is closed or the current room has no door in d.
func (m *Machine) AddVote(d maze.Direction) bool {
	if !m.AllowVoting() {
		return false
	}
	return m.tally.Add(d, m.playerRoom.Doors)
}

func (m *Machine) enter(s State) {
	m.state = s
	m.timer = 0
}

func (m *Machine) finalizeVotes() error {
	dir, err := m.tally.Resolve(m.playerRoom.Doors, m.rng)
	if err != nil {
		return err
	}
	m.direction = dir
	m.hasDirection = true
	m.enter(NextState(m.state))

	m.movesRemaining--
	if m.movesRemaining <= 0 {
		m.movesRemaining = 0
		m.loseGame()
	}
	return nil
}

func (m *Machine) changeRoom() error {
	next, err := m.grid.Through(m.playerRoom, m.direction)
	if err != nil {
		return err
	}
	leaving, err := hooksFor(m.playerRoom.Variant)
	if err != nil {
		return err
	}
	entering, err := hooksFor(next.Variant)
	if err != nil {
		return err
	}

	leaving.exit(m, m.playerRoom)
	m.playerRoom = next
	m.grid.Visit(next)
	m.avatar = m.cfg.Room.Doorway(m.avatar, m.direction.Opposite())
	m.enter(StatePlayerEnteringRoom)
	return entering.enter(m, next)
}

func (m *Machine) startRound() {
	m.round++
	m.roundSeq++
	m.tally.Reset()
	m.hasDirection = false
	m.waypoint = nil
	m.avatar = m.cfg.Room.Center()
	m.enter(StateWaitingForVotes)
}

func (m *Machine) winGame() {
	m.wins++
	m.gameOver()
}

func (m *Machine) loseGame() {
	m.losses++
	m.gameOver()
}

func (m *Machine) gameOver() {
	m.hasDirection = false
	m.waypoint = nil
	m.avatar = m.cfg.Room.Center()
	m.enter(StateGameOver)
}

// resetGame swaps in a new map. On failure the machine stays in GameOver with
// its timer expired, so the next Tick tries again.
func (m *Machine) resetGame() error {
	grid, err := m.gen.Generate()
	if err != nil {
		return fmt.Errorf("regenerating map: %w", err)
	}
	m.setGrid(grid)
	m.round = 0
	m.startRound()
	return nil
}

func (m *Machine) setGrid(grid *maze.Grid) {
	m.grid = grid
	m.playerRoom = grid.Start()
	m.grid.Visit(m.playerRoom)
	m.movesRemaining = m.cfg.MaxMoves
}

func (m *Machine) State() State                   { return m.state }
func (m *Machine) Round() int                     { return m.round }
func (m *Machine) MovesRemaining() int            { return m.movesRemaining }
func (m *Machine) Wins() int                      { return m.wins }
func (m *Machine) Losses() int                    { return m.losses }
func (m *Machine) PlayerRoom() *maze.Room         { return m.playerRoom }
func (m *Machine) Grid() *maze.Grid               { return m.grid }
func (m *Machine) Avatar() Point                  { return m.avatar }
func (m *Machine) Counts() map[maze.Direction]int { return m.tally.Counts() }

// RoundSeq identifies the current round across resets: it grows by one every
// time a round starts, while Round restarts at 1 with each new game.
func (m *Machine) RoundSeq() int { return m.roundSeq }

// Direction returns the direction resolved for the current move, if any.
func (m *Machine) Direction() (maze.Direction, bool) {
	return m.direction, m.hasDirection
}

// Remaining returns the time left in the current phase, or 0 for phases that
// end on movement rather than on a timer.
func (m *Machine) Remaining() time.Duration {
	left := m.cfg.phaseDuration(m.state) - m.timer
	if left < 0 {
		return 0
	}
	return left
}
