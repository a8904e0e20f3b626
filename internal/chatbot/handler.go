package chatbot

import (
	"encoding/json"
	"errors"
	"net/http"

	"notelink/pkg/logger"
	"notelink/pkg/response"
)

type Handler struct {
	Bridge *Bridge
}

func NewHandler(bridge *Bridge) *Handler {
	return &Handler{Bridge: bridge}
}

func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, response.Validation("Invalid request body", nil))
		return
	}
	reply, err := h.Bridge.Query(r.Context(), req)
	if err != nil {
		writeError(w, err, "Failed to process chatbot query")
		return
	}
	response.JSON(w, http.StatusOK, Fields(reply))
}

func (h *Handler) Event(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, response.Validation("Invalid request body", nil))
		return
	}
	reply, err := h.Bridge.SendEvent(r.Context(), req)
	if err != nil {
		writeError(w, err, "Failed to trigger event")
		return
	}
	response.JSON(w, http.StatusOK, Fields(reply))
}

// Fields flattens a reply into envelope payload fields.
func Fields(reply Reply) map[string]any {
	fields := map[string]any{
		"reply":     reply.Reply,
		"sessionId": reply.SessionID,
	}
	if reply.Intent != "" {
		fields["intent"] = reply.Intent
	}
	if len(reply.Parameters) > 0 {
		fields["parameters"] = reply.Parameters
	}
	if reply.Confidence != 0 {
		fields["confidence"] = reply.Confidence
	}
	if reply.Fallback {
		fields["fallback"] = true
	}
	return fields
}

func writeError(w http.ResponseWriter, err error, failMsg string) {
	switch {
	case errors.Is(err, ErrEmptyMessage):
		response.Error(w, response.Validation("Message is required", nil))
	case errors.Is(err, ErrEmptyEvent):
		response.Error(w, response.Validation("Event name is required", nil))
	default:
		logger.Sugar.Errorf("Chatbot: %s: %v", failMsg, err)
		response.Error(w, response.Internal(failMsg, err))
	}
}
