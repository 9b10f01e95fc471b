package hub

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/DoyleJ11/crowd-maze/internal/engine"
	"github.com/DoyleJ11/crowd-maze/internal/session"
)

var (
	ErrCodeTaken = errors.New("session code already in use")
	ErrHubClosed = errors.New("hub closed")
)

// MachineFactory builds the round machine for a new session.
type MachineFactory func() (*engine.Machine, error)

type Config struct {
	NewMachine  MachineFactory
	Session     session.Config
	StopTimeout time.Duration // how long shutdown waits for each session
}

type Result struct {
	Session *session.Session
	Err     error
}

type HubMsg interface{ isHubMsg() }

// CreateSession fails with ErrCodeTaken if Code is in use.
type CreateSession struct {
	Code  string
	Reply chan Result
}

type GetSession struct {
	Code  string
	Reply chan *session.Session
}

// EnsureSession returns the session for Code, creating it if needed.
type EnsureSession struct {
	Code  string
	Reply chan Result
}

type RemoveSession struct {
	Code string
}

type ListSessions struct {
	Reply chan []string
}

type ShutdownHub struct {
	Reply chan error // optional
}

func (CreateSession) isHubMsg() {}
func (GetSession) isHubMsg()    {}
func (EnsureSession) isHubMsg() {}
func (RemoveSession) isHubMsg() {}
func (ListSessions) isHubMsg()  {}
func (ShutdownHub) isHubMsg()   {}

type Hub struct {
	cfg      Config
	log      *zap.Logger
	inbox    chan HubMsg
	sessions map[string]*session.Session
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewHub(parent context.Context, cfg Config, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = time.Second
	}
	h := &Hub{
		cfg:      cfg,
		log:      log,
		inbox:    make(chan HubMsg, 64),
		sessions: make(map[string]*session.Session),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Done is closed once the hub has shut down.
func (h *Hub) Done() <-chan struct{} { return h.done }

// Send delivers msg to the hub loop. It fails with ErrHubClosed once the hub
// has stopped instead of blocking on an inbox nobody reads.
func (h *Hub) Send(ctx context.Context, msg HubMsg) error {
	select {
	case <-h.done:
		return ErrHubClosed
	default:
	}
	select {
	case h.inbox <- msg:
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ask sends msg and waits for its answer on reply. The hub stopping before it
// answers is reported as ErrHubClosed.
func Ask[T any](ctx context.Context, h *Hub, msg HubMsg, reply <-chan T) (T, error) {
	var zero T
	if err := h.Send(ctx, msg); err != nil {
		return zero, err
	}
	select {
	case v := <-reply:
		return v, nil
	case <-h.done:
		// The loop may have answered just before stopping.
		select {
		case v := <-reply:
			return v, nil
		default:
		}
		return zero, ErrHubClosed
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (h *Hub) loop() {
	defer close(h.done)
	for {
		select {
		case <-h.ctx.Done():
			if err := h.shutdown(); err != nil {
				h.log.Warn("hub shutdown", zap.Error(err))
			}
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateSession:
				if h.sessions[msg.Code] != nil {
					msg.Reply <- Result{Err: fmt.Errorf("%w: %s", ErrCodeTaken, msg.Code)}
					break
				}
				s, err := h.create(msg.Code)
				msg.Reply <- Result{Session: s, Err: err}

			case GetSession:
				msg.Reply <- h.sessions[msg.Code] // May be nil

			case EnsureSession:
				if s := h.sessions[msg.Code]; s != nil {
					msg.Reply <- Result{Session: s}
					break
				}
				s, err := h.create(msg.Code)
				msg.Reply <- Result{Session: s, Err: err}

			case RemoveSession:
				if s := h.sessions[msg.Code]; s != nil {
					_ = s.Send(h.ctx, session.Shutdown{})
					delete(h.sessions, msg.Code)
					h.log.Info("session removed", zap.String("session", msg.Code))
				}

			case ListSessions:
				codes := make([]string, 0, len(h.sessions))
				for code := range h.sessions {
					codes = append(codes, code)
				}
				sort.Strings(codes)
				msg.Reply <- codes

			case ShutdownHub:
				err := h.shutdown()
				if msg.Reply != nil {
					msg.Reply <- err
				}
				return
			}
		}
	}
}

func (h *Hub) create(code string) (*session.Session, error) {
	m, err := h.cfg.NewMachine()
	if err != nil {
		h.log.Error("creating session", zap.String("session", code), zap.Error(err))
		return nil, fmt.Errorf("creating session %s: %w", code, err)
	}
	s := session.New(h.ctx, code, m, h.cfg.Session, h.log)
	h.sessions[code] = s
	h.log.Info("session created", zap.String("session", code))
	return s, nil
}

// shutdown stops every session and waits for each to exit.
func (h *Hub) shutdown() error {
	// Sessions run under the hub context, so cancelling it stops them all.
	h.cancel()
	var err error
	for code, s := range h.sessions {
		select {
		case <-s.Done():
		case <-time.After(h.cfg.StopTimeout):
			err = multierr.Append(err, fmt.Errorf("session %s did not stop within %s", code, h.cfg.StopTimeout))
		}
	}
	clear(h.sessions)
	return err
}
