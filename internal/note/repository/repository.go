package repository

import (
	"context"
	"errors"

	"notelink/internal/note/model"
)

var ErrNotFound = errors.New("note not found")

// NoteRepository is the note store. Every note it returns has been normalized,
// so callers never see missing legacy fields.
type NoteRepository interface {
	// Create stores a new note and returns the id the store assigned.
	Create(ctx context.Context, note model.Note) (string, error)
	GetByID(ctx context.Context, id string) (model.Note, error)
	// ListActive returns the owner's notes that are not in the bin, newest first.
	ListActive(ctx context.Context, ownerID string) ([]model.Note, error)
	// ListDeleted returns every soft-deleted note of the owner, expired or not.
	ListDeleted(ctx context.Context, ownerID string) ([]model.Note, error)
	Update(ctx context.Context, id string, patch model.NotePatch) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
