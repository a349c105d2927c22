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

// AccountRepo implements AccountRepository using PostgreSQL.
type AccountRepo struct{ db *DB }

var _ repository.AccountRepository = (*AccountRepo)(nil)

// NewAccountRepo constructs an account repository.
func NewAccountRepo(db *DB) *AccountRepo { return &AccountRepo{db: db} }

// Create inserts the account and its profile row in a single statement and fills CreatedAt.
func (r *AccountRepo) Create(ctx context.Context, a *model.Account, profile model.ProfilePatch, now time.Time) error {
	const q = `
WITH acc AS (
  INSERT INTO accounts (id, email, pwd_hash, session_gen)
  VALUES ($1, $2, $3, $4)
  RETURNING id, created_at
), prof AS (
  INSERT INTO profiles (account_id, name, company, photo_url, created_at, updated_at)
  SELECT id, COALESCE($5, ''), COALESCE($6, ''), COALESCE($7, ''), $8, $8 FROM acc
)
SELECT created_at FROM acc`
	err := r.db.Pool.QueryRow(ctx, q, a.ID, a.Email, a.PwdHash, a.SessionGen,
		profile.Name, profile.Company, profile.PhotoURL, now).Scan(&a.CreatedAt)
	if _, ok := uniqueViolation(err); ok {
		return errs.ErrAlreadyExists
	}
	return err
}

// GetByID selects an account by ID.
func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	const q = `
SELECT id, email, pwd_hash, session_gen, created_at
FROM accounts WHERE id=$1`
	return r.one(ctx, q, id)
}

// GetByEmail selects an account by email.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	const q = `
SELECT id, email, pwd_hash, session_gen, created_at
FROM accounts WHERE email=$1`
	return r.one(ctx, q, email)
}

func (r *AccountRepo) one(ctx context.Context, q string, arg any) (*model.Account, error) {
	var a model.Account
	if err := r.db.Pool.QueryRow(ctx, q, arg).Scan(&a.ID, &a.Email, &a.PwdHash, &a.SessionGen, &a.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// BumpSessionGen increments the session generation, invalidating older tokens.
func (r *AccountRepo) BumpSessionGen(ctx context.Context, id uuid.UUID) (int64, error) {
	const q = `UPDATE accounts SET session_gen = session_gen + 1 WHERE id=$1 RETURNING session_gen`
	var gen int64
	if err := r.db.Pool.QueryRow(ctx, q, id).Scan(&gen); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, errs.ErrNotFound
		}
		return 0, err
	}
	return gen, nil
}
