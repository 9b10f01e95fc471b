package maze

import "errors"

var (
	// ErrConfiguration reports grid dimensions or goal bounds the generator cannot work with.
	ErrConfiguration = errors.New("invalid map configuration")
	// ErrNoEligibleGoal is returned when no room lies inside the goal distance band.
	ErrNoEligibleGoal = errors.New("no eligible goal room")
	// ErrLogic marks a broken internal invariant. It is never caused by player input.
	ErrLogic = errors.New("logic error")
)
