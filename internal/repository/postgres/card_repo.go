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

const shareIDConstraint = "cards_share_id_uq"

const cardColumns = `id, share_id, owner_id, full_name, company, job_title, email, phone, website, socials, tags, front_url, back_url, created_at, updated_at`

// CardRepo implements CardRepository using PostgreSQL.
type CardRepo struct {
	db         *DB
	newShareID func() (string, error)
}

var _ repository.CardRepository = (*CardRepo)(nil)

// NewCardRepo constructs a card repository.
func NewCardRepo(db *DB) *CardRepo { return &CardRepo{db: db, newShareID: repository.NewShareID} }

func scanCard(row pgx.Row) (model.Card, error) {
	var c model.Card
	err := row.Scan(&c.ID, &c.ShareID, &c.OwnerID, &c.FullName, &c.Company, &c.JobTitle, &c.Email,
		&c.Phone, &c.Website, &c.Socials, &c.Tags, &c.FrontURL, &c.BackURL, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// Create inserts a card under a fresh share id, retrying on share id collisions.
func (r *CardRepo) Create(ctx context.Context, ownerID uuid.UUID, f model.CardFields, createdAt time.Time) (model.Card, error) {
	if err := f.Validate(); err != nil {
		return model.Card{}, err
	}
	f.Tags = model.NormalizeTags(f.Tags)

	const q = `
INSERT INTO cards (share_id, owner_id, full_name, company, job_title, email, phone, website, socials, tags, front_url, back_url, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
RETURNING id`
	for attempt := 0; attempt < repository.ShareIDAttempts; attempt++ {
		shareID, err := r.newShareID()
		if err != nil {
			return model.Card{}, err
		}
		var id uuid.UUID
		err = r.db.Pool.QueryRow(ctx, q, shareID, ownerID, f.FullName, f.Company, f.JobTitle, f.Email,
			f.Phone, f.Website, f.Socials, f.Tags, f.FrontURL, f.BackURL, createdAt).Scan(&id)
		if c, ok := uniqueViolation(err); ok {
			if c == shareIDConstraint {
				continue
			}
			return model.Card{}, errs.ErrAlreadyExists
		}
		if err != nil {
			return model.Card{}, err
		}
		return model.Card{ID: id, ShareID: shareID, OwnerID: ownerID, CardFields: f, CreatedAt: createdAt}, nil
	}
	return model.Card{}, errors.New("could not allocate a unique share id")
}

// Update merges the non-nil patch fields into the owner's card.
func (r *CardRepo) Update(ctx context.Context, ownerID, cardID uuid.UUID, p model.CardPatch, updatedAt time.Time) (model.Card, error) {
	if err := p.Validate(); err != nil {
		return model.Card{}, err
	}
	if p.Tags != nil {
		tags := model.NormalizeTags(*p.Tags)
		p.Tags = &tags
	}
	const q = `
UPDATE cards SET
  full_name  = COALESCE($3, full_name),
  company    = COALESCE($4, company),
  job_title  = COALESCE($5, job_title),
  email      = COALESCE($6, email),
  phone      = COALESCE($7, phone),
  website    = COALESCE($8, website),
  socials    = COALESCE($9, socials),
  tags       = COALESCE($10, tags),
  front_url  = COALESCE($11, front_url),
  back_url   = COALESCE($12, back_url),
  updated_at = $13
WHERE id=$1 AND owner_id=$2
RETURNING ` + cardColumns
	row := r.db.Pool.QueryRow(ctx, q, cardID, ownerID, p.FullName, p.Company, p.JobTitle, p.Email,
		p.Phone, p.Website, p.Socials, p.Tags, p.FrontURL, p.BackURL, updatedAt)
	c, err := scanCard(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Card{}, errs.ErrNotFound
	}
	return c, err
}

// Delete removes the owner's card; a missing row is not an error.
func (r *CardRepo) Delete(ctx context.Context, ownerID, cardID uuid.UUID) error {
	const q = `DELETE FROM cards WHERE id=$1 AND owner_id=$2`
	_, err := r.db.Pool.Exec(ctx, q, cardID, ownerID)
	return err
}

// Get returns a card by its storage key.
func (r *CardRepo) Get(ctx context.Context, cardID uuid.UUID) (*model.Card, error) {
	const q = `SELECT ` + cardColumns + ` FROM cards WHERE id=$1`
	return r.one(ctx, q, cardID)
}

// GetByShareID returns the earliest card carrying shareID.
func (r *CardRepo) GetByShareID(ctx context.Context, shareID string) (*model.Card, error) {
	const q = `SELECT ` + cardColumns + ` FROM cards WHERE share_id=$1 ORDER BY seq ASC LIMIT 1`
	return r.one(ctx, q, shareID)
}

func (r *CardRepo) one(ctx context.Context, q string, arg any) (*model.Card, error) {
	c, err := scanCard(r.db.Pool.QueryRow(ctx, q, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// ListByOwner returns the owner's cards ordered newest first.
func (r *CardRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Card, error) {
	const q = `SELECT ` + cardColumns + ` FROM cards WHERE owner_id=$1 ORDER BY created_at DESC, seq DESC`
	rows, err := r.db.Pool.Query(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Card{}
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
