package chat

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/crowd-maze/internal/engine"
	"github.com/DoyleJ11/crowd-maze/internal/maze"
)

func TestParseDirection(t *testing.T) {
	cases := []struct {
		text string
		want maze.Direction
		ok   bool
	}{
		{"up", maze.Up, true},
		{"LEFT please", maze.Left, true},
		{"go Down then left", maze.Down, true},
		{"right!", maze.Right, true},
		{"upstairs", 0, false},
		{"setup", 0, false},
		{"", 0, false},
		{"hello chat", 0, false},
		{"left-right", maze.Left, true},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			got, ok := ParseDirection(tc.text)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

type fakeVoter struct {
	round int
	open  bool
	doors maze.Doors
	votes []maze.Direction
}

func (f *fakeVoter) RoundSeq() int     { return f.round }
func (f *fakeVoter) AllowVoting() bool { return f.open }

func (f *fakeVoter) AddVote(d maze.Direction) bool {
	if !f.doors.Has(d) {
		return false
	}
	f.votes = append(f.votes, d)
	return true
}

func TestGate_OneVotePerSenderPerRound(t *testing.T) {
	v := &fakeVoter{round: 1, open: true, doors: maze.DoorsOf(maze.Up, maze.Left)}
	g := NewGate()

	assert.True(t, g.Offer(v, "alice", "up"))
	assert.False(t, g.Offer(v, "alice", "left"))
	assert.True(t, g.Offer(v, "bob", "left"))
	assert.Equal(t, []maze.Direction{maze.Up, maze.Left}, v.votes)

	v.round = 2
	assert.True(t, g.Offer(v, "alice", "left"))
}

func TestGate_RejectedLinesDoNotUseUpTheVote(t *testing.T) {
	v := &fakeVoter{round: 1, open: true, doors: maze.DoorsOf(maze.Up)}
	g := NewGate()

	assert.False(t, g.Offer(v, "alice", "hello"))
	assert.False(t, g.Offer(v, "alice", "down"), "no door down")
	assert.True(t, g.Offer(v, "alice", "up"))
	assert.False(t, g.Offer(v, "alice", "up"), "vote already used")
}

func TestGate_ClosedVoting(t *testing.T) {
	v := &fakeVoter{round: 1, doors: maze.DoorsOf(maze.Up)}
	g := NewGate()

	assert.False(t, g.Offer(v, "alice", "up"))
	assert.Empty(t, v.votes)
}

func TestLog_KeepsMostRecentLines(t *testing.T) {
	l := NewLog(3)
	for i := 0; i < 5; i++ {
		l.Add(Line{Sender: fmt.Sprint(i), Text: "up"})
	}

	lines := l.Lines()
	require.Len(t, lines, 3)
	assert.Equal(t, "2", lines[0].Sender)
	assert.Equal(t, "4", lines[2].Sender)

	lines[0].Sender = "changed"
	assert.Equal(t, "2", l.Lines()[0].Sender)
}

func TestNewLog_DefaultSize(t *testing.T) {
	l := NewLog(0)
	for i := 0; i < 30; i++ {
		l.Add(Line{Text: "x"})
	}
	assert.Len(t, l.Lines(), DefaultLogSize)
}

func TestGate_FreshVoteAfterGameReset(t *testing.T) {
	gen, err := maze.NewGenerator(maze.Config{Width: 5, Height: 4, MinGoalDistance: 1, MaxGoalDistance: 20}, rand.New(rand.NewSource(9)))
	require.NoError(t, err)
	cfg := engine.DefaultConfig()
	cfg.MaxMoves = 1
	m, err := engine.NewMachine(cfg, gen, rand.New(rand.NewSource(9)))
	require.NoError(t, err)
	g := NewGate()

	first := m.PlayerRoom().Doors.Open()[0]
	require.True(t, g.Offer(m, "alice", first.String()))

	// The only move is spent, so the game ends in round 1.
	require.NoError(t, m.Tick(cfg.VotingDuration))
	require.NoError(t, m.Tick(cfg.VotingGracePeriod))
	require.Equal(t, engine.StateGameOver, m.State())
	require.NoError(t, m.Tick(cfg.ResetDuration))
	require.Equal(t, engine.StateWaitingForVotes, m.State())
	require.Equal(t, 1, m.Round())

	next := m.PlayerRoom().Doors.Open()[0]
	assert.True(t, g.Offer(m, "alice", next.String()), "a new game re-arms every sender")
	assert.Equal(t, 1, m.Counts()[next])
}
