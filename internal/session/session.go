package session

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/crowd-maze/internal/chat"
	"github.com/DoyleJ11/crowd-maze/internal/engine"
	"github.com/DoyleJ11/crowd-maze/internal/maze"
)

var ErrClosed = errors.New("session closed")

type Msg interface{ isSessionMsg() }

type Join struct {
	ClientID string
	Outbox   chan Snapshot // where this client wants to receive snapshots
}

func (Join) isSessionMsg() {}

type Leave struct{ ClientID string }

func (Leave) isSessionMsg() {}

// Chat is one line from the chat bridge. It is queued and offered to the
// round machine at the start of the next tick.
type Chat struct {
	SenderID string
	Text     string
	Reply    chan bool // optional; receives whether the line was queued
}

func (Chat) isSessionMsg() {}

// Advance runs one tick of the given length. Sessions without a ticker are
// driven this way.
type Advance struct{ Elapsed time.Duration }

func (Advance) isSessionMsg() {}

type Shutdown struct{}

func (Shutdown) isSessionMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isSessionMsg() {}

type Snapshot struct {
	Version int         `json:"version"`
	Game    engine.View `json:"game"`
	Chats   []chat.Line `json:"chats"`
	Failed  bool        `json:"failed"`
}

type View struct {
	Code       string      `json:"code"`
	Version    int         `json:"version"`
	NumClients int         `json:"num_clients"`
	Pending    int         `json:"pending"`
	Failed     bool        `json:"failed"`
	Game       engine.View `json:"game"`
	Chats      []chat.Line `json:"chats"`
}

type Config struct {
	TickInterval time.Duration // 0 disables the ticker
	MaxPending   int           // chat lines waiting for the next tick
	ChatLogSize  int
	RevealGoal   bool
}

func DefaultConfig() Config {
	return Config{
		TickInterval: 50 * time.Millisecond,
		MaxPending:   256,
		ChatLogSize:  chat.DefaultLogSize,
	}
}

type Session struct {
	code    string
	cfg     Config
	log     *zap.Logger
	inbox   chan Msg
	machine *engine.Machine
	gate    *chat.Gate
	chats   *chat.Log
	pending []Chat
	version int
	failed  bool
	clients map[string]chan Snapshot
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

// New starts the session goroutine. The session owns m from here on.
func New(parent context.Context, code string, m *engine.Machine, cfg Config, log *zap.Logger) *Session {
	ctx, cancel := context.WithCancel(parent)
	if cfg.MaxPending <= 0 {
		cfg.MaxPending = DefaultConfig().MaxPending
	}

	s := &Session{
		code:    code,
		cfg:     cfg,
		log:     log.With(zap.String("session", code)),
		inbox:   make(chan Msg, 64),
		machine: m,
		gate:    chat.NewGate(),
		chats:   chat.NewLog(cfg.ChatLogSize),
		clients: make(map[string]chan Snapshot),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go s.loop()
	return s
}

func (s *Session) loop() {
	defer close(s.done)

	var tick <-chan time.Time
	if s.cfg.TickInterval > 0 {
		ticker := time.NewTicker(s.cfg.TickInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-s.ctx.Done():
			s.shutdown()
			return

		case <-tick:
			s.advance(s.cfg.TickInterval)

		case m := <-s.inbox:
			switch msg := m.(type) {
			case Join:
				s.clients[msg.ClientID] = msg.Outbox
				msg.Outbox <- s.snapshot()

			case Leave:
				if ch, ok := s.clients[msg.ClientID]; ok {
					close(ch)
					delete(s.clients, msg.ClientID)
				}

			case Chat:
				queued := len(s.pending) < s.cfg.MaxPending
				if queued {
					s.pending = append(s.pending, msg)
				} else {
					s.log.Debug("chat queue full, dropping line", zap.String("sender", msg.SenderID))
				}
				if msg.Reply != nil {
					msg.Reply <- queued
				}

			case Advance:
				s.advance(msg.Elapsed)

			case GetState:
				msg.Reply <- View{
					Code:       s.code,
					Version:    s.version,
					NumClients: len(s.clients),
					Pending:    len(s.pending),
					Failed:     s.failed,
					Game:       s.machine.View(s.cfg.RevealGoal),
					Chats:      s.chats.Lines(),
				}

			case Shutdown:
				s.shutdown()
				return
			}
		}
	}
}

// advance applies queued chat lines, then ticks the machine once.
func (s *Session) advance(dt time.Duration) {
	if s.failed {
		return
	}
	s.applyPending()

	before := s.machine.State()
	err := s.machine.Tick(dt)
	switch {
	case errors.Is(err, maze.ErrLogic):
		s.failed = true
		s.log.Error("round machine failed, session halted", zap.Error(err))
	case errors.Is(err, maze.ErrNoEligibleGoal):
		s.log.Warn("map regeneration found no goal room, retrying", zap.Error(err))
	case err != nil:
		s.log.Warn("tick failed", zap.Error(err))
	}

	if after := s.machine.State(); after != before {
		s.log.Info("state changed",
			zap.String("from", string(before)),
			zap.String("to", string(after)),
			zap.Int("round", s.machine.Round()),
			zap.Int("moves_remaining", s.machine.MovesRemaining()))
	}

	s.version++
	s.broadcast(s.snapshot())
}

func (s *Session) applyPending() {
	for _, line := range s.pending {
		accepted := s.gate.Offer(s.machine, line.SenderID, line.Text)
		s.chats.Add(chat.Line{
			Sender:   line.SenderID,
			Text:     line.Text,
			Accepted: accepted,
			At:       time.Now(),
		})
	}
	clear(s.pending)
	s.pending = s.pending[:0]
}

func (s *Session) snapshot() Snapshot {
	return Snapshot{
		Version: s.version,
		Game:    s.machine.View(s.cfg.RevealGoal),
		Chats:   s.chats.Lines(),
		Failed:  s.failed,
	}
}

func (s *Session) shutdown() {
	for id, ch := range s.clients {
		close(ch) // no more snapshots
		delete(s.clients, id)
	}
	s.cancel()
}

func (s *Session) broadcast(snap Snapshot) {
	for id, ch := range s.clients {
		select {
		case ch <- snap:
		default:
			// Client is slow/full - drop them.
			s.log.Debug("dropping slow client", zap.String("client", id))
			close(ch)
			delete(s.clients, id)
		}
	}
}

// Send delivers msg unless the session has stopped.
func (s *Session) Send(ctx context.Context, msg Msg) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	select {
	case s.inbox <- msg:
		return nil
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Inbox exposes the inbox so the hub, tests and the ws layer can send messages.
func (s *Session) Inbox() chan<- Msg { return s.inbox }

// Done is closed once the session goroutine has exited.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) Code() string { return s.code }
