package engine

type State string

const (
	StateWaitingForVotes      State = "waiting_for_votes"
	StateFinalizingVotes      State = "finalizing_votes"
	StatePlayerLeavingRoom    State = "player_leaving_room"
	StatePlayerEnteringRoom   State = "player_entering_room"
	StatePlayerMovingToCenter State = "player_moving_to_center"
	StateGameOver             State = "game_over"
)

// RoundOrder is the phase sequence of one round. GameOver sits outside it and
// can interrupt any phase.
var RoundOrder = []State{
	StateWaitingForVotes,
	StateFinalizingVotes,
	StatePlayerLeavingRoom,
	StatePlayerEnteringRoom,
	StatePlayerMovingToCenter,
}

// NextState returns the phase that follows s in RoundOrder, wrapping back to
// WaitingForVotes. GameOver is always followed by WaitingForVotes.
func NextState(s State) State {
	for i, st := range RoundOrder {
		if st == s {
			return RoundOrder[(i+1)%len(RoundOrder)]
		}
	}
	return StateWaitingForVotes
}
