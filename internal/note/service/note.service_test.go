package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notelink/internal/note/model"
	"notelink/internal/note/repository"
)

// memRepo is an in-memory NoteRepository.
type memRepo struct {
	notes   map[string]model.Note
	nextID  int
	failGet error
}

func newMemRepo() *memRepo {
	return &memRepo{notes: map[string]model.Note{}}
}

func (m *memRepo) Create(_ context.Context, note model.Note) (string, error) {
	m.nextID++
	note.ID = fmt.Sprintf("note-%d", m.nextID)
	m.notes[note.ID] = note
	return note.ID, nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (model.Note, error) {
	if m.failGet != nil {
		return model.Note{}, m.failGet
	}
	n, ok := m.notes[id]
	if !ok {
		return model.Note{}, repository.ErrNotFound
	}
	return n, nil
}

func (m *memRepo) ListActive(_ context.Context, ownerID string) ([]model.Note, error) {
	out := []model.Note{}
	for _, n := range m.notes {
		if n.OwnerID == ownerID && !n.IsDeleted {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memRepo) ListDeleted(_ context.Context, ownerID string) ([]model.Note, error) {
	out := []model.Note{}
	for _, n := range m.notes {
		if n.OwnerID == ownerID && n.IsDeleted {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memRepo) Update(_ context.Context, id string, patch model.NotePatch) error {
	n, ok := m.notes[id]
	if !ok {
		return repository.ErrNotFound
	}
	if patch.Title != nil {
		n.Title = *patch.Title
	}
	if patch.Description != nil {
		n.Description = *patch.Description
	}
	if patch.Category != nil {
		n.Category = *patch.Category
	}
	if patch.IsImportant != nil {
		n.IsImportant = *patch.IsImportant
	}
	if patch.Deletion != nil {
		n.IsDeleted = patch.Deletion.IsDeleted
		n.DeletedAt = patch.Deletion.DeletedAt
	}
	n.UpdatedAt = patch.UpdatedAt
	m.notes[id] = n
	return nil
}

func (m *memRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.notes[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.notes, id)
	return nil
}

func (m *memRepo) Ping(context.Context) error { return nil }

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func setup(t *testing.T) (*NoteService, *memRepo, *clock) {
	t.Helper()
	repo := newMemRepo()
	clk := &clock{t: time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)}
	return NewNoteService(repo, 30, WithClock(clk.now)), repo, clk
}

func ptr[T any](v T) *T { return &v }

func ids[T interface{ model.Note | model.BinNote }](items []T) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		switch v := any(it).(type) {
		case model.Note:
			out = append(out, v.ID)
		case model.BinNote:
			out = append(out, v.ID)
		}
	}
	return out
}

func assertInvariant(t *testing.T, repo *memRepo) {
	t.Helper()
	for id, n := range repo.notes {
		assert.Equal(t, n.IsDeleted, n.DeletedAt != nil, "note %s breaks isDeleted/deletedAt invariant", id)
	}
}

func TestGroceriesScenario(t *testing.T) {
	svc, repo, clk := setup(t)
	ctx := context.Background()

	note, err := svc.Create(ctx, "user-a", model.CreateNoteRequest{Title: "Groceries", Description: "milk"})
	require.NoError(t, err)

	list, err := svc.List(ctx, "user-a", model.ListFilter{})
	require.NoError(t, err)
	require.Equal(t, []string{note.ID}, ids(list))
	assert.Equal(t, model.CategoryPersonal, list[0].Category)
	assert.False(t, list[0].IsImportant)

	require.NoError(t, svc.SoftDelete(ctx, "user-a", note.ID))
	assertInvariant(t, repo)

	list, err = svc.List(ctx, "user-a", model.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	bin, err := svc.ListBin(ctx, "user-a")
	require.NoError(t, err)
	require.Equal(t, []string{note.ID}, ids(bin))
	assert.Equal(t, 30, bin[0].DaysRemaining)

	clk.advance(40 * 24 * time.Hour)
	bin, err = svc.ListBin(ctx, "user-a")
	require.NoError(t, err)
	assert.Empty(t, bin)
	assert.Contains(t, repo.notes, note.ID, "expiry hides the note but never deletes it")
}

func TestCreateThenGet(t *testing.T) {
	svc, _, clk := setup(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "user-a", model.CreateNoteRequest{
		Title:       "  Plan  ",
		Category:    ptr(model.CategoryWork),
		IsImportant: ptr(true),
	})
	require.NoError(t, err)

	got, err := svc.Get(ctx, "user-a", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "user-a", got.OwnerID)
	assert.Equal(t, "Plan", got.Title)
	assert.Equal(t, model.CategoryWork, got.Category)
	assert.True(t, got.IsImportant)
	assert.False(t, got.IsDeleted)
	assert.Nil(t, got.DeletedAt)
	assert.Equal(t, clk.t, got.CreatedAt)
	assert.Equal(t, clk.t, got.UpdatedAt)
}

func TestCreateRejectsBlankTitle(t *testing.T) {
	svc, repo, _ := setup(t)

	_, err := svc.Create(context.Background(), "user-a", model.CreateNoteRequest{Title: "   "})

	assert.ErrorIs(t, err, ErrValidation)
	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "title", fe.Field)
	assert.Empty(t, repo.notes)
}

func TestUpdateEmptyTitleLeavesStoredTitle(t *testing.T) {
	svc, repo, _ := setup(t)
	ctx := context.Background()
	note, err := svc.Create(ctx, "user-a", model.CreateNoteRequest{Title: "Keep me"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, "user-a", note.ID, model.UpdateNoteRequest{Title: ptr("")})

	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "Keep me", repo.notes[note.ID].Title)
}

func TestUpdateMergesFieldsAndRefreshesUpdatedAt(t *testing.T) {
	svc, _, clk := setup(t)
	ctx := context.Background()
	note, err := svc.Create(ctx, "user-a", model.CreateNoteRequest{Title: "Draft", Description: "v1"})
	require.NoError(t, err)

	clk.advance(time.Hour)
	updated, err := svc.Update(ctx, "user-a", note.ID, model.UpdateNoteRequest{
		Description: ptr(" v2 "),
		IsImportant: ptr(true),
	})

	require.NoError(t, err)
	assert.Equal(t, "Draft", updated.Title)
	assert.Equal(t, "v2", updated.Description)
	assert.True(t, updated.IsImportant)
	assert.Equal(t, "user-a", updated.OwnerID)
	assert.Equal(t, note.CreatedAt, updated.CreatedAt)
	assert.Equal(t, clk.t, updated.UpdatedAt)
}

func TestSoftDeleteRestoreRoundTrip(t *testing.T) {
	svc, repo, clk := setup(t)
	ctx := context.Background()
	note, err := svc.Create(ctx, "user-a", model.CreateNoteRequest{Title: "Round trip"})
	require.NoError(t, err)

	require.NoError(t, svc.SoftDelete(ctx, "user-a", note.ID))
	clk.advance(2 * time.Hour)
	require.NoError(t, svc.Restore(ctx, "user-a", note.ID))
	assertInvariant(t, repo)

	list, err := svc.List(ctx, "user-a", model.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{note.ID}, ids(list))
	assert.Nil(t, list[0].DeletedAt)
	assert.Equal(t, clk.t, list[0].UpdatedAt)

	bin, err := svc.ListBin(ctx, "user-a")
	require.NoError(t, err)
	assert.Empty(t, bin)
}

func TestRedundantTransitionsConflict(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()
	note, err := svc.Create(ctx, "user-a", model.CreateNoteRequest{Title: "Once"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Restore(ctx, "user-a", note.ID), ErrConflict)
	require.NoError(t, svc.SoftDelete(ctx, "user-a", note.ID))
	assert.ErrorIs(t, svc.SoftDelete(ctx, "user-a", note.ID), ErrConflict)
	assert.ErrorIs(t, svc.Archive(ctx, "user-a", note.ID), ErrConflict)
}

func TestArchive(t *testing.T) {
	svc, repo, _ := setup(t)
	ctx := context.Background()
	note, err := svc.Create(ctx, "user-a", model.CreateNoteRequest{Title: "Old idea", Category: ptr(model.CategoryIdeas)})
	require.NoError(t, err)

	require.NoError(t, svc.Archive(ctx, "user-a", note.ID))

	stored := repo.notes[note.ID]
	assert.Equal(t, model.CategoryArchived, stored.Category)
	assert.False(t, stored.IsDeleted)
}

func TestPurgeThenGetIsNotFound(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()
	active, err := svc.Create(ctx, "user-a", model.CreateNoteRequest{Title: "Active"})
	require.NoError(t, err)
	binned, err := svc.Create(ctx, "user-a", model.CreateNoteRequest{Title: "Binned"})
	require.NoError(t, err)
	require.NoError(t, svc.SoftDelete(ctx, "user-a", binned.ID))

	require.NoError(t, svc.Purge(ctx, "user-a", active.ID), "purge is not gated on the bin")
	require.NoError(t, svc.Purge(ctx, "user-a", binned.ID))

	_, err = svc.Get(ctx, "user-a", active.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Get(ctx, "user-a", binned.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestForeignNoteIsForbiddenForEveryOperation(t *testing.T) {
	svc, repo, _ := setup(t)
	ctx := context.Background()
	note, err := svc.Create(ctx, "owner", model.CreateNoteRequest{Title: "Mine"})
	require.NoError(t, err)

	ops := map[string]func() error{
		"get": func() error { _, err := svc.Get(ctx, "intruder", note.ID); return err },
		"update": func() error {
			_, err := svc.Update(ctx, "intruder", note.ID, model.UpdateNoteRequest{Title: ptr("x")})
			return err
		},
		"softDelete": func() error { return svc.SoftDelete(ctx, "intruder", note.ID) },
		"restore":    func() error { return svc.Restore(ctx, "intruder", note.ID) },
		"archive":    func() error { return svc.Archive(ctx, "intruder", note.ID) },
		"purge":      func() error { return svc.Purge(ctx, "intruder", note.ID) },
	}
	for name, op := range ops {
		assert.ErrorIs(t, op(), ErrForbidden, name)
	}
	assert.Equal(t, "Mine", repo.notes[note.ID].Title)
	assert.False(t, repo.notes[note.ID].IsDeleted)
}

func TestUnknownIDIsNotFound(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	_, err := svc.Get(ctx, "user-a", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.SoftDelete(ctx, "user-a", "missing"), ErrNotFound)
	assert.ErrorIs(t, svc.Purge(ctx, "user-a", "missing"), ErrNotFound)
}

func TestStoreFailureIsNotMappedToDomainError(t *testing.T) {
	svc, repo, _ := setup(t)
	repo.failGet = errors.New("connection reset")

	_, err := svc.Get(context.Background(), "user-a", "any")

	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrForbidden)
}

func TestListOnlyReturnsOwnNotesNewestFirst(t *testing.T) {
	svc, _, clk := setup(t)
	ctx := context.Background()
	first, _ := svc.Create(ctx, "user-a", model.CreateNoteRequest{Title: "first"})
	clk.advance(time.Minute)
	second, _ := svc.Create(ctx, "user-a", model.CreateNoteRequest{Title: "second"})
	_, _ = svc.Create(ctx, "user-b", model.CreateNoteRequest{Title: "theirs"})

	list, err := svc.List(ctx, "user-a", model.ListFilter{})

	require.NoError(t, err)
	assert.Equal(t, []string{second.ID, first.ID}, ids(list))
}

func TestListBuckets(t *testing.T) {
	svc, _, clk := setup(t)
	ctx := context.Background()
	create := func(title, category string, important bool) string {
		clk.advance(time.Minute)
		n, err := svc.Create(ctx, "u", model.CreateNoteRequest{Title: title, Category: ptr(category), IsImportant: ptr(important)})
		require.NoError(t, err)
		return n.ID
	}
	personal := create("Dentist", model.CategoryPersonal, false)
	work := create("Quarterly report", model.CategoryWork, true)
	archived := create("Old report", model.CategoryWork, true)
	require.NoError(t, svc.Archive(ctx, "u", archived))

	cases := map[string][]string{
		"":          {archived, work, personal},
		"all":       {archived, work, personal},
		"work":      {work},
		"personal":  {personal},
		"ideas":     {},
		"important": {work},
		"archived":  {archived},
	}
	for bucket, want := range cases {
		got, err := svc.List(ctx, "u", model.ListFilter{Bucket: bucket})
		require.NoError(t, err, bucket)
		assert.Equal(t, want, ids(got), bucket)
	}

	_, err := svc.List(ctx, "u", model.ListFilter{Bucket: "secret"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestListSearch(t *testing.T) {
	svc, _, clk := setup(t)
	ctx := context.Background()
	milk, _ := svc.Create(ctx, "u", model.CreateNoteRequest{Title: "Groceries", Description: "Milk and eggs"})
	clk.advance(time.Minute)
	_, _ = svc.Create(ctx, "u", model.CreateNoteRequest{Title: "Gym"})

	got, err := svc.List(ctx, "u", model.ListFilter{Query: "  MILK "})

	require.NoError(t, err)
	assert.Equal(t, []string{milk.ID}, ids(got))
}

func TestListBinOrderAndCountdown(t *testing.T) {
	svc, _, clk := setup(t)
	ctx := context.Background()
	older, _ := svc.Create(ctx, "u", model.CreateNoteRequest{Title: "older"})
	newer, _ := svc.Create(ctx, "u", model.CreateNoteRequest{Title: "newer"})

	require.NoError(t, svc.SoftDelete(ctx, "u", older.ID))
	clk.advance(3 * 24 * time.Hour)
	require.NoError(t, svc.SoftDelete(ctx, "u", newer.ID))
	clk.advance(12 * time.Hour)

	bin, err := svc.ListBin(ctx, "u")

	require.NoError(t, err)
	require.Equal(t, []string{newer.ID, older.ID}, ids(bin))
	assert.Equal(t, 30, bin[0].DaysRemaining)
	assert.Equal(t, 27, bin[1].DaysRemaining)

	clk.advance(27 * 24 * time.Hour)
	bin, err = svc.ListBin(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, []string{newer.ID}, ids(bin), "older note reached the end of its retention window")
}
