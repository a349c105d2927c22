package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/and161185/cardvault/internal/errs"
	"github.com/and161185/cardvault/internal/model"
	"github.com/and161185/cardvault/internal/repository"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// ProfileRepo implements ProfileRepository using PostgreSQL.
type ProfileRepo struct{ db *DB }

var _ repository.ProfileRepository = (*ProfileRepo)(nil)

// NewProfileRepo constructs a profile repository.
func NewProfileRepo(db *DB) *ProfileRepo { return &ProfileRepo{db: db} }

// Get returns the account's profile.
func (r *ProfileRepo) Get(ctx context.Context, accountID uuid.UUID) (*model.Profile, error) {
	const q = `
SELECT account_id, name, company, photo_url, created_at, updated_at
FROM profiles WHERE account_id=$1`
	var p model.Profile
	err := r.db.Pool.QueryRow(ctx, q, accountID).Scan(&p.AccountID, &p.Name, &p.Company, &p.PhotoURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Upsert inserts the profile or merges the non-nil patch fields into it.
func (r *ProfileRepo) Upsert(ctx context.Context, accountID uuid.UUID, p model.ProfilePatch, now time.Time) (model.Profile, error) {
	const q = `
INSERT INTO profiles (account_id, name, company, photo_url, created_at, updated_at)
VALUES ($1, COALESCE($2, ''), COALESCE($3, ''), COALESCE($4, ''), $5, $5)
ON CONFLICT (account_id) DO UPDATE SET
  name       = COALESCE($2, profiles.name),
  company    = COALESCE($3, profiles.company),
  photo_url  = COALESCE($4, profiles.photo_url),
  updated_at = $5
RETURNING account_id, name, company, photo_url, created_at, updated_at`
	var out model.Profile
	err := r.db.Pool.QueryRow(ctx, q, accountID, p.Name, p.Company, p.PhotoURL, now).
		Scan(&out.AccountID, &out.Name, &out.Company, &out.PhotoURL, &out.CreatedAt, &out.UpdatedAt)
	return out, err
}
