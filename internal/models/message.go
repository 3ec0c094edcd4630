package models

import "time"

// Message is a persisted chat line.
type Message struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// ChatLine is the wire form of a message: what the history endpoint returns
// and what the hub broadcasts. Time is formatted to second granularity.
type ChatLine struct {
	Username string `json:"username"`
	Message  string `json:"message"`
	Time     string `json:"time"`
}
