// Package lifecycle holds the pure rules for moving a note between the active
// list, the bin and permanent removal, and for the bin retention window.
package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"notelink/internal/note/model"
)

type Action string

const (
	ActionDelete  Action = "delete"
	ActionRestore Action = "restore"
	ActionArchive Action = "archive"
	ActionPurge   Action = "purge"
)

const (
	DefaultRetentionDays = 30
	day                  = 24 * time.Hour
)

var (
	ErrAlreadyDeleted = errors.New("note is already in the bin")
	ErrNotDeleted     = errors.New("note is not in the bin")
	ErrUnknownAction  = errors.New("unknown lifecycle action")
)

// CanTransition reports whether action may be applied to a note in the given
// deletion state. Archive and purge are not gated on the deletion state.
func CanTransition(current model.Deletion, action Action) error {
	switch action {
	case ActionDelete:
		if current.IsDeleted {
			return ErrAlreadyDeleted
		}
	case ActionRestore:
		if !current.IsDeleted {
			return ErrNotDeleted
		}
	case ActionArchive, ActionPurge:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	return nil
}

// Apply returns the deletion state after action. Archive and purge leave it
// unchanged; purge removes the record instead.
func Apply(current model.Deletion, action Action, now time.Time) (model.Deletion, error) {
	if err := CanTransition(current, action); err != nil {
		return current, err
	}
	switch action {
	case ActionDelete:
		deletedAt := now
		return model.Deletion{IsDeleted: true, DeletedAt: &deletedAt}, nil
	case ActionRestore:
		return model.Deletion{}, nil
	}
	return current, nil
}

// DaysRemaining is the number of whole retention days left for a note deleted
// at deletedAt. It never goes below zero.
func DaysRemaining(deletedAt, now time.Time, retentionDays int) int {
	retentionDays = normalizeRetention(retentionDays)
	elapsed := now.Sub(deletedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	remaining := retentionDays - int(elapsed/day)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsExpired reports whether the retention window has fully elapsed. It is true
// exactly when DaysRemaining is zero. Nothing is deleted by expiry.
func IsExpired(deletedAt, now time.Time, retentionDays int) bool {
	return now.Sub(deletedAt) >= time.Duration(normalizeRetention(retentionDays))*day
}

func normalizeRetention(retentionDays int) int {
	if retentionDays <= 0 {
		return DefaultRetentionDays
	}
	return retentionDays
}
