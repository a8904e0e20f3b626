package model

import (
	"strings"
	"time"
)

const (
	CategoryPersonal = "personal"
	CategoryWork     = "work"
	CategoryIdeas    = "ideas"
	CategoryArchived = "archived"

	DefaultCategory = CategoryPersonal
)

// Note is a note as seen by the service and the API. It always satisfies
// IsDeleted == (DeletedAt != nil).
type Note struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"userId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	IsImportant bool       `json:"isImportant"`
	IsDeleted   bool       `json:"isDeleted"`
	DeletedAt   *time.Time `json:"deletedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// NoteRecord is a note as persisted. Older records may lack the category and
// lifecycle fields, so those are nullable here.
type NoteRecord struct {
	ID          string
	OwnerID     string
	Title       string
	Description string
	Category    *string
	IsImportant *bool
	IsDeleted   *bool
	DeletedAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Normalize fills in defaults for missing legacy fields. The record itself is
// left untouched.
func (r NoteRecord) Normalize() Note {
	n := Note{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		Title:       r.Title,
		Description: r.Description,
		Category:    DefaultCategory,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.Category != nil && strings.TrimSpace(*r.Category) != "" {
		n.Category = *r.Category
	}
	if r.IsImportant != nil {
		n.IsImportant = *r.IsImportant
	}
	if r.IsDeleted != nil && *r.IsDeleted {
		n.IsDeleted = true
		deletedAt := r.UpdatedAt
		if r.DeletedAt != nil {
			deletedAt = *r.DeletedAt
		}
		n.DeletedAt = &deletedAt
	}
	return n
}

// Deletion is the pair of lifecycle fields written together.
type Deletion struct {
	IsDeleted bool
	DeletedAt *time.Time
}

// NotePatch lists the fields of a single partial update. Nil fields are left
// unchanged; UpdatedAt is always written.
type NotePatch struct {
	Title       *string
	Description *string
	Category    *string
	IsImportant *bool
	Deletion    *Deletion
	UpdatedAt   time.Time
}

// BinNote is a soft-deleted note with its retention countdown.
type BinNote struct {
	Note
	DaysRemaining int `json:"daysRemaining"`
}

type CreateNoteRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    *string `json:"category"`
	IsImportant *bool   `json:"isImportant"`
}

// UpdateNoteRequest only carries client-editable fields; ownership and
// lifecycle fields in the body are ignored.
type UpdateNoteRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	IsImportant *bool   `json:"isImportant"`
}

// ListFilter narrows the active listing to a category bucket and a
// case-insensitive substring match on title or description.
type ListFilter struct {
	Bucket string
	Query  string
}
