package socket

import "notelink/internal/chatbot"

const (
	QueryType = "query" // Free-text turn from the user
	EventType = "event" // Named event, e.g. WELCOME on widget open
	ReplyType = "reply"
	ErrorType = "error"
)

// WSMessage is an inbound frame.
type WSMessage struct {
	Type       string         `json:"type"`
	Message    string         `json:"message,omitempty"`
	EventName  string         `json:"eventName,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
	SessionID  string         `json:"sessionId,omitempty"`
}

// ReplyMessage is the outbound frame for a completed turn.
type ReplyMessage struct {
	Type string `json:"type"`
	chatbot.Reply
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
