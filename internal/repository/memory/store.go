// Package memory contains in-process implementations of repository interfaces.
// It backs the dev server mode and service tests; data does not survive a restart.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/and161185/cardvault/internal/errs"
	"github.com/and161185/cardvault/internal/model"
	"github.com/and161185/cardvault/internal/repository"
	"github.com/gofrs/uuid/v5"
)

// Store holds all tables behind one lock.
type Store struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]model.Account
	byEmail  map[string]uuid.UUID
	cards    []cardRow
	seq      int64
	profiles map[uuid.UUID]model.Profile

	newShareID func() (string, error)
}

type cardRow struct {
	seq  int64
	card model.Card
}

// New returns an empty store.
func New() *Store {
	return &Store{
		accounts:   make(map[uuid.UUID]model.Account),
		byEmail:    make(map[string]uuid.UUID),
		profiles:   make(map[uuid.UUID]model.Profile),
		newShareID: repository.NewShareID,
	}
}

// Accounts exposes the store as an AccountRepository.
func (s *Store) Accounts() *AccountRepo { return &AccountRepo{s: s} }

// Cards exposes the store as a CardRepository.
func (s *Store) Cards() *CardRepo { return &CardRepo{s: s} }

// Profiles exposes the store as a ProfileRepository.
func (s *Store) Profiles() *ProfileRepo { return &ProfileRepo{s: s} }

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// AccountRepo is the in-memory AccountRepository.
type AccountRepo struct{ s *Store }

var _ repository.AccountRepository = (*AccountRepo)(nil)

func (r *AccountRepo) Create(_ context.Context, a *model.Account, profile model.ProfilePatch, now time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.byEmail[a.Email]; ok {
		return errs.ErrAlreadyExists
	}
	if _, ok := r.s.accounts[a.ID]; ok {
		return errs.ErrAlreadyExists
	}
	a.CreatedAt = time.Now().UTC()
	r.s.accounts[a.ID] = *a
	r.s.byEmail[a.Email] = a.ID
	p := model.Profile{AccountID: a.ID, CreatedAt: now, UpdatedAt: now}
	if profile.Name != nil {
		p.Name = *profile.Name
	}
	if profile.Company != nil {
		p.Company = *profile.Company
	}
	if profile.PhotoURL != nil {
		p.PhotoURL = *profile.PhotoURL
	}
	r.s.profiles[a.ID] = p
	return nil
}

func (r *AccountRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &a, nil
}

func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	r.s.mu.RLock()
	id, ok := r.s.byEmail[email]
	r.s.mu.RUnlock()
	if !ok {
		return nil, errs.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *AccountRepo) BumpSessionGen(_ context.Context, id uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return 0, errs.ErrNotFound
	}
	a.SessionGen++
	r.s.accounts[id] = a
	return a.SessionGen, nil
}

// CardRepo is the in-memory CardRepository.
type CardRepo struct{ s *Store }

var _ repository.CardRepository = (*CardRepo)(nil)

func (r *CardRepo) Create(_ context.Context, ownerID uuid.UUID, f model.CardFields, createdAt time.Time) (model.Card, error) {
	if err := f.Validate(); err != nil {
		return model.Card{}, err
	}
	f.Tags = model.NormalizeTags(f.Tags)
	id, err := uuid.NewV4()
	if err != nil {
		return model.Card{}, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for attempt := 0; attempt < repository.ShareIDAttempts; attempt++ {
		shareID, err := r.s.newShareID()
		if err != nil {
			return model.Card{}, err
		}
		if r.s.shareTaken(shareID) {
			continue
		}
		r.s.seq++
		c := model.Card{ID: id, ShareID: shareID, OwnerID: ownerID, CardFields: f, CreatedAt: createdAt}
		r.s.cards = append(r.s.cards, cardRow{seq: r.s.seq, card: clone(c)})
		return c, nil
	}
	return model.Card{}, errors.New("could not allocate a unique share id")
}

func (s *Store) shareTaken(shareID string) bool {
	for _, row := range s.cards {
		if row.card.ShareID == shareID {
			return true
		}
	}
	return false
}

func (r *CardRepo) Update(_ context.Context, ownerID, cardID uuid.UUID, p model.CardPatch, updatedAt time.Time) (model.Card, error) {
	if err := p.Validate(); err != nil {
		return model.Card{}, err
	}
	if p.Tags != nil {
		tags := model.NormalizeTags(*p.Tags)
		p.Tags = &tags
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.cards {
		c := &r.s.cards[i].card
		if c.ID != cardID || c.OwnerID != ownerID {
			continue
		}
		c.CardFields = p.Apply(c.CardFields)
		at := updatedAt
		c.UpdatedAt = &at
		return clone(*c), nil
	}
	return model.Card{}, errs.ErrNotFound
}

func (r *CardRepo) Delete(_ context.Context, ownerID, cardID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, row := range r.s.cards {
		if row.card.ID == cardID && row.card.OwnerID == ownerID {
			r.s.cards = append(r.s.cards[:i], r.s.cards[i+1:]...)
			break
		}
	}
	return nil
}

func (r *CardRepo) Get(_ context.Context, cardID uuid.UUID) (*model.Card, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, row := range r.s.cards {
		if row.card.ID == cardID {
			c := clone(row.card)
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}

// GetByShareID scans in insertion order, so the earliest match wins.
func (r *CardRepo) GetByShareID(_ context.Context, shareID string) (*model.Card, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, row := range r.s.cards {
		if row.card.ShareID == shareID {
			c := clone(row.card)
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (r *CardRepo) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]model.Card, error) {
	r.s.mu.RLock()
	rows := make([]cardRow, 0)
	for _, row := range r.s.cards {
		if row.card.OwnerID == ownerID {
			rows = append(rows, cardRow{seq: row.seq, card: clone(row.card)})
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.card.CreatedAt.Equal(b.card.CreatedAt) {
			return a.card.CreatedAt.After(b.card.CreatedAt)
		}
		return a.seq > b.seq
	})
	out := make([]model.Card, len(rows))
	for i, row := range rows {
		out[i] = row.card
	}
	return out, nil
}

func clone(c model.Card) model.Card {
	if c.Tags != nil {
		c.Tags = append([]string(nil), c.Tags...)
	} else {
		c.Tags = []string{}
	}
	if c.UpdatedAt != nil {
		at := *c.UpdatedAt
		c.UpdatedAt = &at
	}
	return c
}

// ProfileRepo is the in-memory ProfileRepository.
type ProfileRepo struct{ s *Store }

var _ repository.ProfileRepository = (*ProfileRepo)(nil)

func (r *ProfileRepo) Get(_ context.Context, accountID uuid.UUID) (*model.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.profiles[accountID]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &p, nil
}

func (r *ProfileRepo) Upsert(_ context.Context, accountID uuid.UUID, patch model.ProfilePatch, now time.Time) (model.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.profiles[accountID]
	if !ok {
		p = model.Profile{AccountID: accountID, CreatedAt: now}
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Company != nil {
		p.Company = *patch.Company
	}
	if patch.PhotoURL != nil {
		p.PhotoURL = *patch.PhotoURL
	}
	p.UpdatedAt = now
	r.s.profiles[accountID] = p
	return p, nil
}
