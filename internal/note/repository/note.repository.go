package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"notelink/internal/note/model"
	"notelink/pkg/logger"
)

const noteColumns = `id, owner_id, title, description, category, is_important, is_deleted, deleted_at, created_at, updated_at`

type PostgresRepository struct {
	DB *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{DB: db}
}

func (r *PostgresRepository) Create(ctx context.Context, note model.Note) (string, error) {
	var id string
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO notes (owner_id, title, description, category, is_important, is_deleted, deleted_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		note.OwnerID, note.Title, note.Description, note.Category, note.IsImportant,
		note.IsDeleted, note.DeletedAt, note.CreatedAt, note.UpdatedAt,
	).Scan(&id)
	if err != nil {
		logger.Sugar.Errorf("Failed to create note for user %s: %v", note.OwnerID, err)
		return "", fmt.Errorf("insert note: %w", err)
	}
	return id, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (model.Note, error) {
	if !validID(id) {
		return model.Note{}, ErrNotFound
	}
	row := r.DB.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = $1`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Note{}, ErrNotFound
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to get note %s: %v", id, err)
		return model.Note{}, fmt.Errorf("select note: %w", err)
	}
	return rec.Normalize(), nil
}

func (r *PostgresRepository) ListActive(ctx context.Context, ownerID string) ([]model.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes
		WHERE owner_id = $1 AND COALESCE(is_deleted, FALSE) = FALSE
		ORDER BY created_at DESC`
	return r.list(ctx, query, ownerID)
}

func (r *PostgresRepository) ListDeleted(ctx context.Context, ownerID string) ([]model.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes
		WHERE owner_id = $1 AND is_deleted = TRUE
		ORDER BY deleted_at DESC`
	return r.list(ctx, query, ownerID)
}

func (r *PostgresRepository) list(ctx context.Context, query, ownerID string) ([]model.Note, error) {
	rows, err := r.DB.QueryContext(ctx, query, ownerID)
	if err != nil {
		logger.Sugar.Errorf("Failed to list notes for user %s: %v", ownerID, err)
		return nil, fmt.Errorf("select notes: %w", err)
	}
	defer rows.Close()

	notes := []model.Note{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			logger.Sugar.Errorf("Failed to scan note for user %s: %v", ownerID, err)
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, rec.Normalize())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}
	return notes, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, patch model.NotePatch) error {
	if !validID(id) {
		return ErrNotFound
	}
	sets := []string{}
	args := []any{}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Category != nil {
		add("category", *patch.Category)
	}
	if patch.IsImportant != nil {
		add("is_important", *patch.IsImportant)
	}
	if patch.Deletion != nil {
		add("is_deleted", patch.Deletion.IsDeleted)
		add("deleted_at", patch.Deletion.DeletedAt)
	}
	add("updated_at", patch.UpdatedAt)

	args = append(args, id)
	query := fmt.Sprintf("UPDATE notes SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	result, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		logger.Sugar.Errorf("Failed to update note %s: %v", id, err)
		return fmt.Errorf("update note: %w", err)
	}
	return expectOneRow(result)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	result, err := r.DB.ExecContext(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		logger.Sugar.Errorf("Failed to delete note %s: %v", id, err)
		return fmt.Errorf("delete note: %w", err)
	}
	return expectOneRow(result)
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.DB.PingContext(ctx)
}

// validID filters ids Postgres would reject as malformed uuids; such ids can
// never match a row.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (model.NoteRecord, error) {
	var (
		rec         model.NoteRecord
		category    sql.NullString
		isImportant sql.NullBool
		isDeleted   sql.NullBool
		deletedAt   sql.NullTime
	)
	err := row.Scan(&rec.ID, &rec.OwnerID, &rec.Title, &rec.Description,
		&category, &isImportant, &isDeleted, &deletedAt, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return model.NoteRecord{}, err
	}
	if category.Valid {
		rec.Category = &category.String
	}
	if isImportant.Valid {
		rec.IsImportant = &isImportant.Bool
	}
	if isDeleted.Valid {
		rec.IsDeleted = &isDeleted.Bool
	}
	if deletedAt.Valid {
		rec.DeletedAt = &deletedAt.Time
	}
	return rec, nil
}

func expectOneRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
