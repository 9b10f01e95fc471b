package engine

import (
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// Config holds the round timings and avatar settings.
type Config struct {
	VotingDuration    time.Duration
	VotingGracePeriod time.Duration // late votes for the closing round still count
	ResetDuration     time.Duration
	MaxMoves          int
	Speed             float64 // pixels per second
	Room              Geometry
}

func DefaultConfig() Config {
	return Config{
		VotingDuration:    10 * time.Second,
		VotingGracePeriod: 2 * time.Second,
		ResetDuration:     5 * time.Second,
		MaxMoves:          12,
		Speed:             400,
		Room:              Geometry{Width: 1280, Height: 720, MarginX: 160, MarginY: 120},
	}
}

func (c Config) Validate() error {
	var err error
	if c.VotingDuration <= 0 {
		err = multierr.Append(err, fmt.Errorf("voting duration must be positive, got %s", c.VotingDuration))
	}
	if c.VotingGracePeriod < 0 {
		err = multierr.Append(err, fmt.Errorf("voting grace period must not be negative, got %s", c.VotingGracePeriod))
	}
	if c.ResetDuration < 0 {
		err = multierr.Append(err, fmt.Errorf("reset duration must not be negative, got %s", c.ResetDuration))
	}
	if c.MaxMoves < 1 {
		err = multierr.Append(err, fmt.Errorf("max moves must be at least 1, got %d", c.MaxMoves))
	}
	if c.Speed <= 0 {
		err = multierr.Append(err, fmt.Errorf("speed must be positive, got %v", c.Speed))
	}
	if c.Room.MarginX < 0 || c.Room.MarginY < 0 || 2*c.Room.MarginX >= c.Room.Width || 2*c.Room.MarginY >= c.Room.Height {
		err = multierr.Append(err, fmt.Errorf("room margins %vx%v do not fit a %vx%v room",
			c.Room.MarginX, c.Room.MarginY, c.Room.Width, c.Room.Height))
	}
	return err
}

// phaseDuration is how long a timed phase lasts. Untimed phases return 0.
func (c Config) phaseDuration(s State) time.Duration {
	switch s {
	case StateWaitingForVotes:
		return c.VotingDuration
	case StateFinalizingVotes:
		return c.VotingGracePeriod
	case StateGameOver:
		return c.ResetDuration
	default:
		return 0
	}
}
