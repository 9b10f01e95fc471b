package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/DoyleJ11/crowd-maze/internal/hub"
	"github.com/DoyleJ11/crowd-maze/internal/maze"
	"github.com/DoyleJ11/crowd-maze/internal/session"
	"github.com/DoyleJ11/crowd-maze/internal/types"
)

const (
	codeLength      = 6
	maxCodeAttempts = 8
	maxChatBytes    = 1 << 12
)

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, codeLength)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

func CreateSession(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for attempt := 0; attempt < maxCodeAttempts; attempt++ {
			code, err := GenerateCode()
			if err != nil {
				writeError(w, http.StatusInternalServerError, "failed to generate code")
				return
			}

			reply := make(chan hub.Result, 1)
			res, err := hub.Ask(r.Context(), h, hub.CreateSession{Code: code, Reply: reply}, reply)
			if err != nil {
				writeHubError(w, err)
				return
			}
			switch {
			case errors.Is(res.Err, hub.ErrCodeTaken):
				log.Debug("collision on code, regenerating", zap.String("session", code))
				continue
			case errors.Is(res.Err, maze.ErrNoEligibleGoal):
				writeError(w, http.StatusServiceUnavailable, "could not generate a map, try again")
				return
			case res.Err != nil:
				writeError(w, http.StatusInternalServerError, "failed to create session")
				return
			}

			writeJSON(w, http.StatusCreated, types.CreateSessionResponse{Code: code})
			return
		}
		writeError(w, http.StatusServiceUnavailable, "no free session code")
	}
}

func ListSessions(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply := make(chan []string, 1)
		codes, err := hub.Ask(r.Context(), h, hub.ListSessions{Reply: reply}, reply)
		if err != nil {
			writeHubError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, types.ListSessionsResponse{Codes: codes})
	}
}

// EnsureSession opens a session under a caller-chosen code, or returns the
// one already running there. Chat bridges use it to bind a channel name.
func EnsureSession(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.ToUpper(chi.URLParam(r, "code"))
		if !validCode(code) {
			writeError(w, http.StatusBadRequest, "code must be 6 letters or digits")
			return
		}

		reply := make(chan hub.Result, 1)
		res, err := hub.Ask(r.Context(), h, hub.EnsureSession{Code: code, Reply: reply}, reply)
		if err != nil {
			writeHubError(w, err)
			return
		}
		switch {
		case errors.Is(res.Err, maze.ErrNoEligibleGoal):
			writeError(w, http.StatusServiceUnavailable, "could not generate a map, try again")
			return
		case res.Err != nil:
			writeError(w, http.StatusInternalServerError, "failed to create session")
			return
		}
		writeJSON(w, http.StatusOK, types.CreateSessionResponse{Code: code})
	}
}

func GetSession(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := lookup(w, r, h, chi.URLParam(r, "code"))
		if !ok {
			return
		}

		reply := make(chan session.View, 1)
		if err := s.Send(r.Context(), session.GetState{Reply: reply}); err != nil {
			writeError(w, http.StatusGone, "session closed")
			return
		}
		select {
		case v := <-reply:
			writeJSON(w, http.StatusOK, v)
		case <-s.Done():
			writeError(w, http.StatusGone, "session closed")
		case <-r.Context().Done():
		}
	}
}

func DeleteSession(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		if _, ok := lookup(w, r, h, code); !ok {
			return
		}
		if err := h.Send(r.Context(), hub.RemoveSession{Code: code}); err != nil {
			writeHubError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// chatLimiters hands out one limiter per session code, so a noisy bridge on
// one session cannot starve the others.
type chatLimiters struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

func newChatLimiters(limit rate.Limit, burst int) *chatLimiters {
	return &chatLimiters{limit: limit, burst: burst, limiters: make(map[string]*rate.Limiter)}
}

func (c *chatLimiters) get(code string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.limiters[code]
	if !ok {
		l = rate.NewLimiter(c.limit, c.burst)
		c.limiters[code] = l
	}
	return l
}

func PostChat(h *hub.Hub, limiters *chatLimiters) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		s, ok := lookup(w, r, h, code)
		if !ok {
			return
		}

		var req types.ChatRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBytes)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}
		req.SenderID = strings.TrimSpace(req.SenderID)
		if req.SenderID == "" || req.Text == "" {
			writeError(w, http.StatusBadRequest, "sender_id and text are required")
			return
		}
		if !limiters.get(code).Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limited")
			return
		}

		queued := make(chan bool, 1)
		if err := s.Send(r.Context(), session.Chat{SenderID: req.SenderID, Text: req.Text, Reply: queued}); err != nil {
			writeError(w, http.StatusGone, "session closed")
			return
		}
		select {
		case ok := <-queued:
			if !ok {
				writeError(w, http.StatusTooManyRequests, "chat queue full")
				return
			}
			w.WriteHeader(http.StatusAccepted)
		case <-s.Done():
			writeError(w, http.StatusGone, "session closed")
		case <-r.Context().Done():
		}
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// lookup finds the session for code. When it reports false the response has
// already been written.
func lookup(w http.ResponseWriter, r *http.Request, h *hub.Hub, code string) (*session.Session, bool) {
	reply := make(chan *session.Session, 1)
	s, err := hub.Ask(r.Context(), h, hub.GetSession{Code: code, Reply: reply}, reply)
	if err != nil {
		writeHubError(w, err)
		return nil, false
	}
	if s == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return s, true
}

func validCode(code string) bool {
	if len(code) != codeLength {
		return false
	}
	for _, c := range code {
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

// writeHubError answers 503 once the hub is gone. A cancelled request gets
// no body since nobody is reading it.
func writeHubError(w http.ResponseWriter, err error) {
	if errors.Is(err, hub.ErrHubClosed) {
		writeError(w, http.StatusServiceUnavailable, "server shutting down")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, types.ErrorResponse{Error: msg})
}
