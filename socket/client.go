package socket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"notelink/internal/chatbot"
	"notelink/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	turnTimeout    = 15 * time.Second
	maxMessageSize = 8 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The chat widget is served from the frontend origin; CORS does not apply to websockets.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Client struct {
	Conn      *websocket.Conn
	Bridge    *chatbot.Bridge
	SessionID string
	Send      chan []byte
}

// ServeChat upgrades the request and runs chat turns until the peer goes away.
// Every frame written back is a reply to a frame read, apart from pings.
func ServeChat(bridge *chatbot.Bridge, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Sugar.Errorf("Websocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		Conn:      conn,
		Bridge:    bridge,
		SessionID: r.URL.Query().Get("sessionId"),
		Send:      make(chan []byte, 16),
	}

	go client.writePump()
	client.readPump(r.Context())
}

func (c *Client) readPump(ctx context.Context) {
	defer func() {
		close(c.Send)
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Sugar.Errorf("Chat socket closed unexpectedly: %v", err)
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.enqueue(ErrorMessage{Type: ErrorType, Message: "Invalid message"})
			continue
		}
		c.enqueue(c.turn(ctx, msg))
	}
}

// turn runs one inbound frame through the bridge. The session id sticks to
// the connection once known.
func (c *Client) turn(ctx context.Context, msg WSMessage) any {
	if msg.SessionID != "" {
		c.SessionID = msg.SessionID
	}

	ctx, cancel := context.WithTimeout(ctx, turnTimeout)
	defer cancel()

	var (
		reply chatbot.Reply
		err   error
	)
	switch msg.Type {
	case QueryType:
		reply, err = c.Bridge.Query(ctx, chatbot.QueryRequest{Message: msg.Message, SessionID: c.SessionID})
	case EventType:
		reply, err = c.Bridge.SendEvent(ctx, chatbot.EventRequest{
			EventName:  msg.EventName,
			SessionID:  c.SessionID,
			Parameters: msg.Parameters,
		})
	default:
		return ErrorMessage{Type: ErrorType, Message: "Unknown message type"}
	}

	switch {
	case errors.Is(err, chatbot.ErrEmptyMessage):
		return ErrorMessage{Type: ErrorType, Message: "Message is required"}
	case errors.Is(err, chatbot.ErrEmptyEvent):
		return ErrorMessage{Type: ErrorType, Message: "Event name is required"}
	case err != nil:
		logger.Sugar.Errorf("Chat turn failed: %v", err)
		return ErrorMessage{Type: ErrorType, Message: "Failed to process chatbot query"}
	}

	c.SessionID = reply.SessionID
	return ReplyMessage{Type: ReplyType, Reply: reply}
}

func (c *Client) enqueue(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Sugar.Errorf("Error marshalling chat frame: %v", err)
		return
	}
	c.Send <- data
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
