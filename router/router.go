package router

import (
	"context"
	"net/http"
	"time"

	"notelink/internal/auth"
	"notelink/internal/chatbot"
	"notelink/internal/identity"
	noteHandler "notelink/internal/note"
	"notelink/internal/note/service"
	"notelink/middleware"
	"notelink/pkg/logger"
	"notelink/pkg/response"
	"notelink/socket"
)

const readyTimeout = 2 * time.Second

type Dependencies struct {
	Notes      *service.NoteService
	Verifier   identity.Verifier
	Bridge     *chatbot.Bridge
	CORSOrigin string
}

func Setup(deps Dependencies) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", health)
	mux.HandleFunc("GET /api/ready", ready(deps.Notes))

	authed := middleware.AuthMiddleware(deps.Verifier)
	protect := func(h http.HandlerFunc) http.Handler { return authed(h) }

	// Auth
	mux.Handle("POST /api/auth/verify", protect(auth.VerifyToken))
	mux.Handle("GET /api/auth/user", protect(auth.CurrentUser))

	// Notes
	notes := noteHandler.NewNoteHandler(deps.Notes)
	mux.Handle("GET /api/notes", protect(notes.ListNotes))
	mux.Handle("GET /api/notes/bin/all", protect(notes.ListBin))
	mux.Handle("GET /api/notes/{id}", protect(notes.GetNote))
	mux.Handle("POST /api/notes", protect(notes.CreateNote))
	mux.Handle("PUT /api/notes/{id}", protect(notes.UpdateNote))
	mux.Handle("DELETE /api/notes/{id}", protect(notes.DeleteNote))
	mux.Handle("POST /api/notes/{id}/archive", protect(notes.ArchiveNote))
	mux.Handle("POST /api/notes/{id}/restore", protect(notes.RestoreNote))
	mux.Handle("DELETE /api/notes/{id}/permanent", protect(notes.PurgeNote))

	// Chatbot, open to anonymous visitors
	chat := chatbot.NewHandler(deps.Bridge)
	mux.HandleFunc("POST /api/chatbot/query", chat.Query)
	mux.HandleFunc("POST /api/chatbot/event", chat.Event)
	mux.HandleFunc("GET /api/chatbot/ws", func(w http.ResponseWriter, r *http.Request) {
		socket.ServeChat(deps.Bridge, w, r)
	})

	mux.HandleFunc("/", notFound)

	return middleware.Chain(mux,
		middleware.RequestLogger,
		middleware.Recoverer,
		middleware.CORSMiddleware(deps.CORSOrigin),
	)
}

func health(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, map[string]any{
		"message":   "NoteLink API is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func ready(notes *service.NoteService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := notes.Ping(ctx); err != nil {
			logger.Sugar.Warnf("Readiness check failed: %v", err)
			response.Error(w, response.Unavailable("Note store unavailable", err))
			return
		}
		response.JSON(w, http.StatusOK, map[string]any{"message": "ready"})
	}
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	response.Error(w, response.NotFound("Route not found"))
}
