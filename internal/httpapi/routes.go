package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/DoyleJ11/crowd-maze/internal/hub"
	"github.com/DoyleJ11/crowd-maze/internal/ws"
)

const (
	chatRate  rate.Limit = 50
	chatBurst            = 100
)

func SetupRoutes(h *hub.Hub, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Public routes
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, log))

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", CreateSession(h, log))
		r.Get("/", ListSessions(h))
		r.Get("/{code}", GetSession(h))
		r.Put("/{code}", EnsureSession(h))
		r.Delete("/{code}", DeleteSession(h))
		r.Post("/{code}/chat", PostChat(h, newChatLimiters(chatRate, chatBurst)))
	})
	return r
}
