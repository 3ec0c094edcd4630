package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pvdmeer/babbel/internal/models"
	"github.com/pvdmeer/babbel/internal/services"
	"github.com/rs/zerolog/log"
)

// MessageHandler serves the persisted chat history.
type MessageHandler struct {
	service services.MessageServiceProvider
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(service services.MessageServiceProvider) *MessageHandler {
	return &MessageHandler{service: service}
}

// History returns every chat line in insertion order.
func (h *MessageHandler) History(w http.ResponseWriter, r *http.Request) {
	lines, err := h.service.History()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load message history")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "database error"})
		return
	}
	if lines == nil {
		lines = []models.ChatLine{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(lines)
}
