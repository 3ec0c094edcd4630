package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pvdmeer/babbel/internal/api"
	"github.com/pvdmeer/babbel/internal/assistant"
	"github.com/pvdmeer/babbel/internal/auth"
	"github.com/pvdmeer/babbel/internal/config"
	"github.com/pvdmeer/babbel/internal/database"
	"github.com/pvdmeer/babbel/internal/logger"
	"github.com/pvdmeer/babbel/internal/monitoring"
	"github.com/pvdmeer/babbel/internal/services"
	"github.com/pvdmeer/babbel/internal/websocket"
	"github.com/rs/zerolog/log"
)

func main() {
	logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up services
	userService := services.NewUserService(db)
	messageService := services.NewMessageService(db)

	// Set up the assistant bridge. Without an API key the trigger is simply
	// inert and everything else works.
	var responder websocket.Responder
	if cfg.AssistantAPIKey != "" {
		client, err := assistant.New(context.Background(), cfg.AssistantAPIKey, cfg.AssistantModel, cfg.AssistantPersona)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize assistant client")
		}
		responder = client
	} else {
		log.Warn().Msg("GEMINI_API_KEY not set; assistant trigger disabled")
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub(messageService, responder, cfg.AssistantName, cfg.AssistantTrigger)
	go hub.Run()

	// Set up sessions and the expiry sweeper
	sessions := auth.NewSessionStore(cfg.SessionTTL)
	sweeper := monitoring.NewSessionSweeper(sessions)
	sweeper.Run()

	// Set up router
	router := api.NewRouter(api.RouterConfig{
		Hub:            hub,
		UserService:    userService,
		MessageService: messageService,
		Sessions:       sessions,
		SessionTTL:     cfg.SessionTTL,
		WebRoot:        cfg.WebRoot,
		AllowedOrigin:  cfg.AllowedOrigin,
	})

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
