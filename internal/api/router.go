package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/pvdmeer/babbel/internal/api/handlers"
	"github.com/pvdmeer/babbel/internal/auth"
	"github.com/pvdmeer/babbel/internal/services"
	"github.com/pvdmeer/babbel/internal/websocket"
)

// RouterConfig carries the dependencies the router wires together.
type RouterConfig struct {
	Hub            *websocket.Hub
	UserService    services.UserServiceProvider
	MessageService services.MessageServiceProvider
	Sessions       *auth.SessionStore
	SessionTTL     time.Duration
	WebRoot        string
	AllowedOrigin  string
}

// NewRouter creates and configures a new Chi router.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(cfg.UserService, cfg.Sessions, cfg.SessionTTL, cfg.WebRoot)
	messageHandler := handlers.NewMessageHandler(cfg.MessageService)
	wsHandler := handlers.NewWebSocketHandler(cfg.Hub)

	// Entry and auth flow
	r.Get("/", authHandler.Landing)
	r.Post("/register", authHandler.Register)
	r.Post("/login", authHandler.Login)
	r.Get("/logout", authHandler.Logout)
	r.Get("/session-user", authHandler.SessionUser)

	// Authenticated surface
	r.Group(func(r chi.Router) {
		r.Use(cfg.Sessions.Middleware())
		r.Get("/chat.html", authHandler.ChatPage)
		r.Get("/messages", messageHandler.History)
	})

	// WebSocket connection endpoint. Labeling still happens via the join
	// event, so the upgrade itself is not session-gated.
	r.Get("/ws", wsHandler.Serve)

	// Remaining static assets (scripts, styles)
	r.Handle("/*", http.FileServer(http.Dir(cfg.WebRoot)))

	return r
}
