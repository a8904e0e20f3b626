package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"notelink/internal/note/lifecycle"
	"notelink/internal/note/model"
	"notelink/internal/note/service"
	"notelink/middleware"
	"notelink/pkg/logger"
	"notelink/pkg/response"
)

type NoteHandler struct {
	Service *service.NoteService
}

func NewNoteHandler(service *service.NoteService) *NoteHandler {
	return &NoteHandler{Service: service}
}

// ListNotes serves GET /api/notes with optional ?category= and ?q=.
func (h *NoteHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}

	filter := model.ListFilter{
		Bucket: r.URL.Query().Get("category"),
		Query:  r.URL.Query().Get("q"),
	}
	notes, err := h.Service.List(r.Context(), uid, filter)
	if err != nil {
		h.fail(w, err, "Failed to fetch notes")
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{"count": len(notes), "notes": notes})
}

func (h *NoteHandler) ListBin(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}

	notes, err := h.Service.ListBin(r.Context(), uid)
	if err != nil {
		h.fail(w, err, "Failed to fetch deleted notes")
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{"count": len(notes), "notes": notes})
}

func (h *NoteHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}

	note, err := h.Service.Get(r.Context(), uid, r.PathValue("id"))
	if err != nil {
		h.fail(w, err, "Failed to fetch note")
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{"note": note})
}

func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}

	var req model.CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, response.Validation("Invalid request body", nil))
		return
	}

	note, err := h.Service.Create(r.Context(), uid, req)
	if err != nil {
		h.fail(w, err, "Failed to create note")
		return
	}
	response.JSON(w, http.StatusCreated, map[string]any{
		"message": "Note created successfully",
		"note":    note,
	})
}

func (h *NoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}

	var req model.UpdateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, response.Validation("Invalid request body", nil))
		return
	}

	note, err := h.Service.Update(r.Context(), uid, r.PathValue("id"), req)
	if err != nil {
		h.fail(w, err, "Failed to update note")
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"message": "Note updated successfully",
		"note":    note,
	})
}

func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.Service.SoftDelete, "Note moved to bin", "Failed to delete note")
}

func (h *NoteHandler) ArchiveNote(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.Service.Archive, "Note archived successfully", "Failed to archive note")
}

func (h *NoteHandler) RestoreNote(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.Service.Restore, "Note restored successfully", "Failed to restore note")
}

func (h *NoteHandler) PurgeNote(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.Service.Purge, "Note permanently deleted", "Failed to permanently delete note")
}

type mutation func(ctx context.Context, uid, id string) error

func (h *NoteHandler) mutate(w http.ResponseWriter, r *http.Request, op mutation, okMsg, failMsg string) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := op(r.Context(), uid, r.PathValue("id")); err != nil {
		h.fail(w, err, failMsg)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{"message": okMsg})
}

// fail translates a service error into the matching envelope. Anything that
// is not a domain error is logged and reported as failMsg.
func (h *NoteHandler) fail(w http.ResponseWriter, err error, failMsg string) {
	var fieldErr *service.FieldError
	switch {
	case errors.As(err, &fieldErr):
		response.Error(w, response.Validation(fieldErr.Message, []service.FieldError{*fieldErr}))
	case errors.Is(err, service.ErrNotFound):
		response.Error(w, response.NotFound("Note not found"))
	case errors.Is(err, service.ErrForbidden):
		response.Error(w, response.Forbidden("Access denied"))
	case errors.Is(err, lifecycle.ErrAlreadyDeleted):
		response.Error(w, response.Conflict("Note is already in the bin"))
	case errors.Is(err, lifecycle.ErrNotDeleted):
		response.Error(w, response.Conflict("Note is not in the bin"))
	case errors.Is(err, service.ErrConflict):
		response.Error(w, response.Conflict("Note cannot change state"))
	default:
		logger.Sugar.Errorf("Handler: %s: %v", failMsg, err)
		response.Error(w, response.Internal(failMsg, err))
	}
}

func callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok || id.UID == "" {
		response.Error(w, response.Unauthenticated("Authentication required"))
		return "", false
	}
	return id.UID, true
}
