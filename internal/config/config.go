// Package config reads server settings from the environment, after loading
// a .env file when one exists.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/DoyleJ11/crowd-maze/internal/engine"
	"github.com/DoyleJ11/crowd-maze/internal/maze"
	"github.com/DoyleJ11/crowd-maze/internal/session"
)

type Config struct {
	HTTPAddr string
	Env      string
	Seed     int64 // 0 picks a time based seed

	Maze    maze.Config
	Engine  engine.Config
	Session session.Config
}

// Load reads .env (if present) and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup. Every malformed or out of range value
// is reported, not just the first.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	r := reader{lookup: lookup}

	cfg := Config{
		HTTPAddr: r.str("HTTP_ADDR", ":8080"),
		Env:      r.str("APP_ENV", "production"),
		Seed:     int64(r.integer("SEED", 0)),
		Maze: maze.Config{
			Width:           r.integer("GRID_WIDTH", 5),
			Height:          r.integer("GRID_HEIGHT", 4),
			MinGoalDistance: r.integer("MIN_GOAL_DISTANCE", 3),
			MaxGoalDistance: r.integer("MAX_GOAL_DISTANCE", 4),
			LitterRooms:     r.integer("LITTER_ROOMS", 1),
		},
		Engine:  engine.DefaultConfig(),
		Session: session.DefaultConfig(),
	}
	cfg.Engine.MaxMoves = r.integer("MAX_MOVES", cfg.Engine.MaxMoves)
	cfg.Engine.VotingDuration = r.millis("VOTING_DURATION_MS", cfg.Engine.VotingDuration)
	cfg.Engine.VotingGracePeriod = r.millis("VOTING_GRACE_MS", cfg.Engine.VotingGracePeriod)
	cfg.Engine.ResetDuration = r.millis("RESET_DURATION_MS", cfg.Engine.ResetDuration)
	cfg.Engine.Speed = r.float("AVATAR_SPEED", cfg.Engine.Speed)
	cfg.Session.TickInterval = r.millis("TICK_INTERVAL_MS", cfg.Session.TickInterval)
	cfg.Session.RevealGoal = r.boolean("REVEAL_GOAL", false)

	err := r.err
	err = multierr.Append(err, cfg.Maze.Validate())
	err = multierr.Append(err, cfg.Engine.Validate())
	if cfg.Session.TickInterval <= 0 {
		err = multierr.Append(err, fmt.Errorf("TICK_INTERVAL_MS must be positive, got %s", cfg.Session.TickInterval))
	}
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type reader struct {
	lookup func(string) (string, bool)
	err    error
}

func (r *reader) str(key, def string) string {
	if v, ok := r.lookup(key); ok && v != "" {
		return v
	}
	return def
}

func (r *reader) integer(key string, def int) int {
	v, ok := r.lookup(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.err = multierr.Append(r.err, fmt.Errorf("%s must be an integer: %w", key, err))
		return def
	}
	return n
}

func (r *reader) float(key string, def float64) float64 {
	v, ok := r.lookup(key)
	if !ok || v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.err = multierr.Append(r.err, fmt.Errorf("%s must be a number: %w", key, err))
		return def
	}
	return f
}

func (r *reader) boolean(key string, def bool) bool {
	v, ok := r.lookup(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.err = multierr.Append(r.err, fmt.Errorf("%s must be a boolean: %w", key, err))
		return def
	}
	return b
}

func (r *reader) millis(key string, def time.Duration) time.Duration {
	ms := r.integer(key, int(def/time.Millisecond))
	return time.Duration(ms) * time.Millisecond
}
