/*
Package handler provides the HTTP handlers and routing setup for the roomchat server.

This file defines the main Router, applying middleware like logging, CORS,
and IP-based rate limiting before delegating requests to specific handlers (API and WebSocket).
*/
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"roomchat/internal/pkg/limiter"
	"roomchat/internal/pkg/logx"
	"roomchat/internal/pkg/resp"
)

// Router sets up the main HTTP routing table (chi.Router) for the application.
// The rate limiters' cleanup goroutines live until ctx is cancelled.
func Router(ctx context.Context, deps *AppDeps) http.Handler {
	joinLimiter := limiter.NewIPRateLimiter(ctx, rate.Limit(deps.Config.JoinRate), deps.Config.JoinBurst)
	sendLimiter := limiter.NewIPRateLimiter(ctx, rate.Limit(deps.Config.SendRate), deps.Config.SendBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	var wsUpgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.IsDevelopment() {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", logx.ParticipantHeader},
		ExposedHeaders:   []string{},
		AllowCredentials: false,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]any{
			"status":      "ok",
			"service":     "roomchat",
			"connections": deps.Hub.Connections(),
		}
		resp.RespondSuccess(w, r, data)
	})

	r.Route("/participants", func(p chi.Router) {
		p.With(joinLimiter.Middleware).Post("/", HandleJoin(deps))
		p.Get("/", HandleListParticipants(deps))
		p.Delete("/", HandleLeave(deps))
	})

	r.Route("/messages", func(m chi.Router) {
		m.With(sendLimiter.Middleware).Post("/", HandleSendMessage(deps))
		m.Get("/", HandleListMessages(deps))
		m.Delete("/{id}", HandleDeleteMessage(deps))
	})

	r.Post("/status", HandleHeartbeat(deps))

	r.Get("/ws", HandleWebSocket(wsUpgrader, deps))

	return r
}

// participantName reads the requesting participant from the user header.
func participantName(r *http.Request) string {
	return r.Header.Get(logx.ParticipantHeader)
}
