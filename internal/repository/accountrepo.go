// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"
	"time"

	"github.com/and161185/cardvault/internal/model"
	"github.com/gofrs/uuid/v5"
)

// AccountRepository provides access to sign-in identities.
type AccountRepository interface {
	// Create inserts a new account together with its initial profile in one write;
	// ErrAlreadyExists when the email is taken.
	Create(ctx context.Context, a *model.Account, profile model.ProfilePatch, now time.Time) error
	// GetByID loads an account by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error)
	// GetByEmail loads an account by (lower-cased) email.
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	// BumpSessionGen invalidates previously issued tokens and returns the new generation.
	BumpSessionGen(ctx context.Context, id uuid.UUID) (int64, error)
}
