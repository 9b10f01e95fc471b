// Package chat turns raw chat lines into votes. It extracts a direction from
// each line and lets every sender cast at most one vote per round.
package chat

import (
	"regexp"

	"github.com/zyedidia/generic/mapset"

	"github.com/DoyleJ11/crowd-maze/internal/maze"
)

var directionRe = regexp.MustCompile(`(?i)\b(up|down|left|right)\b`)

// ParseDirection returns the first direction word in text.
func ParseDirection(text string) (maze.Direction, bool) {
	m := directionRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	return maze.ParseDirection(m[1])
}

// Voter is the part of the round machine a Gate feeds.
type Voter interface {
	RoundSeq() int
	AllowVoting() bool
	AddVote(d maze.Direction) bool
}

// Gate remembers which senders already had a vote accepted this round. Rounds
// are told apart by RoundSeq, so a reset back to round 1 still starts fresh.
type Gate struct {
	round    int
	accepted mapset.Set[string]
}

func NewGate() *Gate {
	return &Gate{accepted: mapset.New[string]()}
}

// Offer casts the vote contained in text on behalf of sender and reports
// whether it was accepted. A line is accepted when voting is open, the sender
// has no accepted line this round, the line names a direction and the
// current room has a door that way.
func (g *Gate) Offer(v Voter, sender, text string) bool {
	if r := v.RoundSeq(); r != g.round {
		g.round = r
		g.accepted = mapset.New[string]()
	}
	if !v.AllowVoting() || g.accepted.Has(sender) {
		return false
	}
	d, ok := ParseDirection(text)
	if !ok || !v.AddVote(d) {
		return false
	}
	g.accepted.Put(sender)
	return true
}

