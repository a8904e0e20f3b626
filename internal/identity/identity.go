// Package identity verifies bearer credentials issued by an external identity
// provider and turns them into the caller's Identity.
package identity

import (
	"context"
	"errors"
)

var (
	ErrExpired = errors.New("credential expired")
	ErrInvalid = errors.New("credential invalid")
)

// Identity is the verified caller.
type Identity struct {
	UID           string `json:"uid"`
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"emailVerified"`
}

// Verifier checks a raw bearer credential. Failures wrap ErrExpired or
// ErrInvalid.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}
