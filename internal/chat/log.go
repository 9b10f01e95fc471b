package chat

import "time"

// DefaultLogSize is how many lines a renderer gets to show.
const DefaultLogSize = 20

type Line struct {
	Sender   string    `json:"sender"`
	Text     string    `json:"text"`
	Accepted bool      `json:"accepted"`
	At       time.Time `json:"at"`
}

// Log keeps the most recent chat lines, oldest first.
type Log struct {
	size  int
	lines []Line
}

func NewLog(size int) *Log {
	if size <= 0 {
		size = DefaultLogSize
	}
	return &Log{size: size, lines: make([]Line, 0, size)}
}

func (l *Log) Add(line Line) {
	if len(l.lines) == l.size {
		copy(l.lines, l.lines[1:])
		l.lines = l.lines[:l.size-1]
	}
	l.lines = append(l.lines, line)
}

// Lines returns a copy of the log.
func (l *Log) Lines() []Line {
	out := make([]Line, len(l.lines))
	copy(out, l.lines)
	return out
}
