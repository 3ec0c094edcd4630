package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// SystemName labels join/leave notices.
const SystemName = "System"

// MessageAppender is the slice of the message service the hub needs.
type MessageAppender interface {
	Append(username, message string) error
}

// Responder produces an assistant reply for a prompt. Implementations never
// return an error; failures map to a fallback string.
type Responder interface {
	Ask(ctx context.Context, prompt string) string
}

// InboundEvent is a decoded frame from one client.
type InboundEvent struct {
	Client   *Client
	Envelope Envelope
}

// Hub maintains the set of active clients, the presence roster, and broadcasts
// messages to every connection. All state is owned by the Run loop; other
// goroutines only talk to it through the channels.
type Hub struct {
	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	// Decoded events from client read pumps.
	Inbound chan InboundEvent

	// Messages for global broadcast, used by out-of-loop senders such as
	// assistant reply goroutines.
	Broadcast chan []byte

	// Registered clients.
	clients map[*Client]bool

	// Online usernames with the number of connections carrying each name.
	// A name leaves the roster only when its last connection goes, so a
	// second tab closing does not announce a premature departure.
	presence map[string]int

	store     MessageAppender
	responder Responder

	assistantName string
	trigger       string

	now func() time.Time
}

// NewHub creates a new Hub. responder may be nil, which disables the
// assistant trigger.
func NewHub(store MessageAppender, responder Responder, assistantName, trigger string) *Hub {
	return &Hub{
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
		Inbound:       make(chan InboundEvent),
		Broadcast:     make(chan []byte),
		clients:       make(map[*Client]bool),
		presence:      make(map[string]int),
		store:         store,
		responder:     responder,
		assistantName: assistantName,
		trigger:       trigger,
		now:           time.Now,
	}
}

// Run starts the Hub's message processing loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.clients[client] = true
			log.Info().Int("total_clients", len(h.clients)).Msg("Client connected")
		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				h.handleDeparture(client.Username)
				log.Info().Int("total_clients", len(h.clients)).Msg("Client disconnected")
			}
		case message := <-h.Broadcast:
			h.fanOut(message)
		case event := <-h.Inbound:
			h.handleEvent(event)
		}
	}
}

// handleEvent dispatches one decoded client frame.
func (h *Hub) handleEvent(event InboundEvent) {
	switch event.Envelope.Event {
	case EventJoin:
		var username string
		if err := json.Unmarshal(event.Envelope.Data, &username); err != nil {
			log.Error().Err(err).Msg("Malformed join payload")
			return
		}
		h.handleJoin(event.Client, username)
	case EventChatMessage:
		var text string
		if err := json.Unmarshal(event.Envelope.Data, &text); err != nil {
			log.Error().Err(err).Msg("Malformed chat payload")
			return
		}
		h.handleChat(event.Client, text)
	default:
		log.Warn().Str("event", event.Envelope.Event).Msg("Unknown websocket event received")
	}
}

// handleJoin labels the connection and announces the arrival. A repeated join
// with the same name on the same connection is a no-op.
func (h *Hub) handleJoin(client *Client, username string) {
	if username == "" || client.Username == username {
		return
	}
	if client.Username != "" {
		// The connection switched names; retire the old one first.
		h.handleDeparture(client.Username)
	}
	client.Username = username

	h.presence[username]++
	if h.presence[username] == 1 {
		h.fanOut(NewChatMessage(SystemName, fmt.Sprintf("%s joined the chat.", username), h.timestamp()))
	}
	h.fanOut(NewOnlineUsers(h.roster()))
}

// handleChat persists and broadcasts one chat line, then hands the text to the
// assistant when it carries the trigger prefix. Persistence is best effort: a
// store failure is logged and the broadcast proceeds regardless.
func (h *Hub) handleChat(client *Client, text string) {
	if client.Username == "" {
		log.Warn().Msg("Chat message from a connection that never joined")
		return
	}

	if err := h.store.Append(client.Username, text); err != nil {
		log.Error().Err(err).Str("username", client.Username).Msg("Failed to persist chat message")
	}
	h.fanOut(NewChatMessage(client.Username, text, h.timestamp()))

	prompt, ok := h.assistantPrompt(text)
	if !ok || h.responder == nil {
		return
	}
	go func() {
		reply := h.responder.Ask(context.Background(), prompt)
		h.Broadcast <- NewChatMessage(h.assistantName, reply, h.timestamp())
	}()
}

// handleDeparture drops one connection's claim on a username and announces the
// departure once the last connection with that name is gone.
func (h *Hub) handleDeparture(username string) {
	if username == "" {
		return
	}
	h.presence[username]--
	if h.presence[username] > 0 {
		return
	}
	delete(h.presence, username)
	h.fanOut(NewChatMessage(SystemName, fmt.Sprintf("%s left the chat.", username), h.timestamp()))
	h.fanOut(NewOnlineUsers(h.roster()))
}

// assistantPrompt extracts the prompt from a triggering message. Matching is
// case-insensitive; an empty remainder means no assistant call.
func (h *Hub) assistantPrompt(text string) (string, bool) {
	if h.trigger == "" || !strings.HasPrefix(strings.ToLower(text), strings.ToLower(h.trigger)) {
		return "", false
	}
	prompt := strings.TrimSpace(text[len(h.trigger):])
	return prompt, prompt != ""
}

// fanOut delivers message to every registered client. Clients whose send
// buffer is full are dropped, and their departure is processed like a normal
// disconnect.
func (h *Hub) fanOut(message []byte) {
	if message == nil {
		return
	}
	var dropped []*Client
	for client := range h.clients {
		select {
		case client.Send <- message:
		default:
			dropped = append(dropped, client)
		}
	}
	for _, client := range dropped {
		delete(h.clients, client)
		close(client.Send)
		log.Warn().Str("username", client.Username).Msg("Dropping slow websocket client")
		h.handleDeparture(client.Username)
	}
}

// roster returns the presence set as a sorted snapshot.
func (h *Hub) roster() []string {
	names := make([]string, 0, len(h.presence))
	for name := range h.presence {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (h *Hub) timestamp() string {
	return h.now().Format("15:04:05")
}
