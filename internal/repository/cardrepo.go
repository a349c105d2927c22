package repository

import (
	"context"
	"time"

	"github.com/and161185/cardvault/internal/model"
	"github.com/gofrs/uuid/v5"
)

// CardRepository stores cards keyed by an opaque storage key and addressable by share id.
type CardRepository interface {
	// Create validates fields, assigns a fresh share id and persists a new card for owner.
	Create(ctx context.Context, ownerID uuid.UUID, f model.CardFields, createdAt time.Time) (model.Card, error)

	// Update merges patch into the owner's card and stamps updatedAt.
	Update(ctx context.Context, ownerID, cardID uuid.UUID, patch model.CardPatch, updatedAt time.Time) (model.Card, error)

	// Delete removes the owner's card. Missing keys are not an error.
	Delete(ctx context.Context, ownerID, cardID uuid.UUID) error

	// Get returns a card by storage key.
	Get(ctx context.Context, cardID uuid.UUID) (*model.Card, error)

	// ListByOwner returns the owner's cards, newest first.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Card, error)

	// GetByShareID returns the first card (in insertion order) with the share id, regardless of owner.
	GetByShareID(ctx context.Context, shareID string) (*model.Card, error)
}

// ProfileRepository stores per-account display profiles.
type ProfileRepository interface {
	// Get returns the profile or ErrNotFound.
	Get(ctx context.Context, accountID uuid.UUID) (*model.Profile, error)
	// Upsert creates or merges the profile; fields absent from patch keep their value.
	Upsert(ctx context.Context, accountID uuid.UUID, patch model.ProfilePatch, now time.Time) (model.Profile, error)
}

// NewShareID returns a random, collision-resistant public share token.
func NewShareID() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// ShareIDAttempts bounds how many fresh share ids Create tries on a uniqueness collision.
const ShareIDAttempts = 3
