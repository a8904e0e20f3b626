// Package chatbot relays chat turns to an external intent-detection service.
// Conversation state lives in that service, keyed by session id.
package chatbot

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"notelink/pkg/logger"
)

const (
	FallbackReply = "Sorry, I'm having trouble connecting right now. Please try again later."
	DefaultReply  = "I'm not sure how to respond to that."
)

var (
	ErrEmptyMessage  = errors.New("message is required")
	ErrEmptyEvent    = errors.New("event name is required")
	ErrNotConfigured = errors.New("chatbot is not configured")
)

// Result is what the intent service returned for one turn.
type Result struct {
	Reply      string
	Intent     string
	Parameters map[string]any
	Confidence float32
}

// IntentClient detects intents for a session.
type IntentClient interface {
	DetectText(ctx context.Context, sessionID, text string) (Result, error)
	DetectEvent(ctx context.Context, sessionID, event string, params map[string]any) (Result, error)
}

type QueryRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

type EventRequest struct {
	EventName  string         `json:"eventName"`
	SessionID  string         `json:"sessionId"`
	Parameters map[string]any `json:"parameters"`
}

type Reply struct {
	Reply      string         `json:"reply"`
	Intent     string         `json:"intent,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Confidence float32        `json:"confidence,omitempty"`
	SessionID  string         `json:"sessionId"`
	Fallback   bool           `json:"fallback,omitempty"`
}

type Bridge struct {
	Client       IntentClient
	newSessionID func() string
}

// NewBridge returns a bridge over client. A nil client yields a bridge that
// answers every turn with ErrNotConfigured.
func NewBridge(client IntentClient) *Bridge {
	return &Bridge{Client: client, newSessionID: uuid.NewString}
}

// Query sends a free-text turn.
func (b *Bridge) Query(ctx context.Context, req QueryRequest) (Reply, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return Reply{}, ErrEmptyMessage
	}
	if b.Client == nil {
		return Reply{}, ErrNotConfigured
	}

	session := b.session(req.SessionID)
	result, err := b.Client.DetectText(ctx, session, message)
	if err != nil {
		logger.Sugar.Errorf("Chatbot: query failed for session %s: %v", session, err)
		return fallback(session), nil
	}
	return reply(session, result), nil
}

// SendEvent triggers a named event, e.g. a welcome intent.
func (b *Bridge) SendEvent(ctx context.Context, req EventRequest) (Reply, error) {
	event := strings.TrimSpace(req.EventName)
	if event == "" {
		return Reply{}, ErrEmptyEvent
	}
	if b.Client == nil {
		return Reply{}, ErrNotConfigured
	}

	session := b.session(req.SessionID)
	result, err := b.Client.DetectEvent(ctx, session, event, req.Parameters)
	if err != nil {
		logger.Sugar.Errorf("Chatbot: event %s failed for session %s: %v", event, session, err)
		return fallback(session), nil
	}
	return reply(session, result), nil
}

func (b *Bridge) session(id string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	return b.newSessionID()
}

func reply(session string, r Result) Reply {
	text := r.Reply
	if strings.TrimSpace(text) == "" {
		text = DefaultReply
	}
	return Reply{
		Reply:      text,
		Intent:     r.Intent,
		Parameters: r.Parameters,
		Confidence: r.Confidence,
		SessionID:  session,
	}
}

func fallback(session string) Reply {
	return Reply{Reply: FallbackReply, SessionID: session, Fallback: true}
}
