package websocket

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// Wire event names, shared with the browser client.
const (
	EventJoin        = "join"
	EventChatMessage = "chatMessage"
	EventOnlineUsers = "onlineUsers"
)

// Envelope is the frame for inbound client messages. Data stays raw until the
// event name says how to decode it.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ChatPayload is the broadcast form of a single chat line.
type ChatPayload struct {
	Username string `json:"username"`
	Message  string `json:"message"`
	Time     string `json:"time"`
}

type outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// NewChatMessage builds a chatMessage broadcast frame.
func NewChatMessage(username, message, timestamp string) []byte {
	return marshal(outbound{
		Event: EventChatMessage,
		Data:  ChatPayload{Username: username, Message: message, Time: timestamp},
	})
}

// NewOnlineUsers builds an onlineUsers broadcast frame carrying the full
// roster snapshot.
func NewOnlineUsers(usernames []string) []byte {
	return marshal(outbound{Event: EventOnlineUsers, Data: usernames})
}

func marshal(msg outbound) []byte {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("event", msg.Event).Msg("Failed to encode websocket message")
		return nil
	}
	return data
}
