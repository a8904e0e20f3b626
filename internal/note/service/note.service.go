package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"notelink/internal/note/lifecycle"
	"notelink/internal/note/model"
	"notelink/internal/note/repository"
)

const (
	BucketAll       = "all"
	BucketImportant = "important"
)

var buckets = map[string]bool{
	BucketAll:              true,
	BucketImportant:        true,
	model.CategoryPersonal: true,
	model.CategoryWork:     true,
	model.CategoryIdeas:    true,
	model.CategoryArchived: true,
}

type NoteService struct {
	Repo          repository.NoteRepository
	retentionDays int
	now           func() time.Time
}

type Option func(*NoteService)

// WithClock replaces the wall clock, mainly for retention tests.
func WithClock(now func() time.Time) Option {
	return func(s *NoteService) { s.now = now }
}

func NewNoteService(repo repository.NoteRepository, retentionDays int, opts ...Option) *NoteService {
	if retentionDays <= 0 {
		retentionDays = lifecycle.DefaultRetentionDays
	}
	s := &NoteService{Repo: repo, retentionDays: retentionDays, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the caller's active notes, newest first, narrowed by filter.
func (s *NoteService) List(ctx context.Context, uid string, filter model.ListFilter) ([]model.Note, error) {
	bucket := strings.ToLower(strings.TrimSpace(filter.Bucket))
	if bucket != "" && !buckets[bucket] {
		return nil, &FieldError{Field: "category", Message: fmt.Sprintf("Unknown category filter %q", filter.Bucket)}
	}
	notes, err := s.Repo.ListActive(ctx, uid)
	if err != nil {
		return nil, err
	}

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	result := make([]model.Note, 0, len(notes))
	for _, n := range notes {
		if n.IsDeleted || !inBucket(n, bucket) || !matchesQuery(n, query) {
			continue
		}
		result = append(result, n)
	}
	return result, nil
}

// ListBin returns the caller's soft-deleted notes still inside the retention
// window, most recently deleted first.
func (s *NoteService) ListBin(ctx context.Context, uid string) ([]model.BinNote, error) {
	notes, err := s.Repo.ListDeleted(ctx, uid)
	if err != nil {
		return nil, err
	}

	now := s.now()
	bin := make([]model.BinNote, 0, len(notes))
	for _, n := range notes {
		if !n.IsDeleted || n.DeletedAt == nil || lifecycle.IsExpired(*n.DeletedAt, now, s.retentionDays) {
			continue
		}
		bin = append(bin, model.BinNote{
			Note:          n,
			DaysRemaining: lifecycle.DaysRemaining(*n.DeletedAt, now, s.retentionDays),
		})
	}
	sort.SliceStable(bin, func(i, j int) bool {
		return bin[i].DeletedAt.After(*bin[j].DeletedAt)
	})
	return bin, nil
}

func (s *NoteService) Get(ctx context.Context, uid, id string) (model.Note, error) {
	return s.owned(ctx, uid, id)
}

func (s *NoteService) Create(ctx context.Context, uid string, req model.CreateNoteRequest) (model.Note, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return model.Note{}, &FieldError{Field: "title", Message: "Title is required"}
	}

	now := s.now()
	note := model.Note{
		OwnerID:     uid,
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Category:    model.DefaultCategory,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Category != nil && strings.TrimSpace(*req.Category) != "" {
		note.Category = strings.TrimSpace(*req.Category)
	}
	if req.IsImportant != nil {
		note.IsImportant = *req.IsImportant
	}

	id, err := s.Repo.Create(ctx, note)
	if err != nil {
		return model.Note{}, err
	}
	note.ID = id
	return note, nil
}

// Update merges the provided fields into the note. Owner and lifecycle fields
// cannot be changed through it.
func (s *NoteService) Update(ctx context.Context, uid, id string, req model.UpdateNoteRequest) (model.Note, error) {
	patch := model.NotePatch{
		Description: trimmed(req.Description),
		IsImportant: req.IsImportant,
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return model.Note{}, &FieldError{Field: "title", Message: "Title cannot be empty"}
		}
		patch.Title = &title
	}
	if req.Category != nil {
		category := strings.TrimSpace(*req.Category)
		if category == "" {
			category = model.DefaultCategory
		}
		patch.Category = &category
	}

	if _, err := s.owned(ctx, uid, id); err != nil {
		return model.Note{}, err
	}
	patch.UpdatedAt = s.now()
	if err := s.write(ctx, id, patch); err != nil {
		return model.Note{}, err
	}
	return s.owned(ctx, uid, id)
}

// SoftDelete moves the note to the bin.
func (s *NoteService) SoftDelete(ctx context.Context, uid, id string) error {
	return s.transition(ctx, uid, id, lifecycle.ActionDelete)
}

// Restore takes the note out of the bin.
func (s *NoteService) Restore(ctx context.Context, uid, id string) error {
	return s.transition(ctx, uid, id, lifecycle.ActionRestore)
}

// Archive files an active note under the archived category.
func (s *NoteService) Archive(ctx context.Context, uid, id string) error {
	note, err := s.owned(ctx, uid, id)
	if err != nil {
		return err
	}
	if note.IsDeleted {
		return fmt.Errorf("%w: %w", ErrConflict, lifecycle.ErrAlreadyDeleted)
	}
	if err := lifecycle.CanTransition(deletionOf(note), lifecycle.ActionArchive); err != nil {
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	category := model.CategoryArchived
	return s.write(ctx, id, model.NotePatch{Category: &category, UpdatedAt: s.now()})
}

// Purge removes the note permanently, whether or not it is in the bin.
func (s *NoteService) Purge(ctx context.Context, uid, id string) error {
	note, err := s.owned(ctx, uid, id)
	if err != nil {
		return err
	}
	if err := lifecycle.CanTransition(deletionOf(note), lifecycle.ActionPurge); err != nil {
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Ping reports whether the note store is reachable.
func (s *NoteService) Ping(ctx context.Context) error {
	return s.Repo.Ping(ctx)
}

func (s *NoteService) transition(ctx context.Context, uid, id string, action lifecycle.Action) error {
	note, err := s.owned(ctx, uid, id)
	if err != nil {
		return err
	}
	now := s.now()
	next, err := lifecycle.Apply(deletionOf(note), action, now)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return s.write(ctx, id, model.NotePatch{Deletion: &next, UpdatedAt: now})
}

// owned loads the note and checks that uid owns it. Unknown ids are
// ErrNotFound, foreign notes ErrForbidden.
func (s *NoteService) owned(ctx context.Context, uid, id string) (model.Note, error) {
	note, err := s.Repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Note{}, ErrNotFound
	}
	if err != nil {
		return model.Note{}, err
	}
	if note.OwnerID != uid {
		return model.Note{}, ErrForbidden
	}
	return note, nil
}

func (s *NoteService) write(ctx context.Context, id string, patch model.NotePatch) error {
	err := s.Repo.Update(ctx, id, patch)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func deletionOf(n model.Note) model.Deletion {
	return model.Deletion{IsDeleted: n.IsDeleted, DeletedAt: n.DeletedAt}
}

func inBucket(n model.Note, bucket string) bool {
	switch bucket {
	case "", BucketAll:
		return true
	case model.CategoryArchived:
		return n.Category == model.CategoryArchived
	case BucketImportant:
		return n.IsImportant && n.Category != model.CategoryArchived
	default:
		return n.Category == bucket
	}
}

func matchesQuery(n model.Note, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(n.Title), query) ||
		strings.Contains(strings.ToLower(n.Description), query)
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}
