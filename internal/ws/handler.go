package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/DoyleJ11/crowd-maze/internal/hub"
	"github.com/DoyleJ11/crowd-maze/internal/session"
	"github.com/DoyleJ11/crowd-maze/internal/types"
)

const (
	outboxSize   = 16
	writeTimeout = 3 * time.Second
	// Renderers rarely send anything, so the read deadline is generous.
	readTimeout = 5 * time.Minute
)

func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		reply := make(chan *session.Session, 1)
		s, err := hub.Ask(r.Context(), h, hub.GetSession{Code: code, Reply: reply}, reply)
		if err != nil {
			http.Error(w, "server shutting down", http.StatusServiceUnavailable)
			return
		}
		if s == nil {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			// In dev ONLY, you can loosen origin checks:
			// OriginPatterns: []string{"http://localhost:*", "http://127.0.0.1:*"},
		})
		if err != nil {
			log.Debug("websocket accept", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		clientID := uuid.NewString()
		log := log.With(zap.String("session", code), zap.String("client", clientID))

		out := make(chan session.Snapshot, outboxSize)
		if err := s.Send(r.Context(), session.Join{ClientID: clientID, Outbox: out}); err != nil {
			conn.Close(websocket.StatusGoingAway, "session closed")
			return
		}
		defer func() { _ = s.Send(context.Background(), session.Leave{ClientID: clientID}) }()
		log.Debug("client joined")

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			// out is closed on Leave, on shutdown or when this client falls behind.
			for snap := range out {
				msg := types.ServerMessage{Type: "StateSnapshot", Version: snap.Version, Snapshot: &snap}
				if err := writeMessage(writeCtx, conn, msg); err != nil {
					log.Debug("write failed", zap.Error(err))
					conn.Close(websocket.StatusInternalError, "write failed")
					return
				}
			}
			conn.Close(websocket.StatusGoingAway, "stream ended")
		}()

		limiter := rate.NewLimiter(20, 40)

		// Reader loop
		for {
			ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
			_, data, err := conn.Read(ctx)
			cancel()
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					log.Debug("read failed", zap.Error(err))
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				_ = writeMessage(r.Context(), conn, types.ServerMessage{Type: "Error", Error: "bad json"})
				continue
			}
			if cm.Type != "Chat" {
				_ = writeMessage(r.Context(), conn, types.ServerMessage{Type: "Error", Error: "unknown type"})
				continue
			}
			if !limiter.Allow() {
				_ = writeMessage(r.Context(), conn, types.ServerMessage{Type: "Error", Error: "rate limited"})
				continue
			}

			sender := cm.SenderID
			if sender == "" {
				sender = clientID
			}
			if err := s.Send(r.Context(), session.Chat{SenderID: sender, Text: cm.Text}); err != nil {
				return
			}
		}
	}
}

func writeMessage(ctx context.Context, conn *websocket.Conn, msg types.ServerMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, payload)
}
