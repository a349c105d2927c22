package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/cardvault/internal/errs"
	"github.com/and161185/cardvault/internal/live"
	"github.com/and161185/cardvault/internal/model"
	"github.com/and161185/cardvault/internal/repository"
)

// ShareService resolves public share ids and copies shared cards between vaults.
type ShareService interface {
	// Resolve looks a card up by share id regardless of owner. found is false when absent.
	Resolve(ctx context.Context, shareID string) (card model.Card, found bool, err error)
	// Clone copies the shared card into newOwner's vault under a fresh share id.
	Clone(ctx context.Context, shareID string, newOwner uuid.UUID) (model.Card, error)
	// Link returns the public URL of a share id.
	Link(shareID string) string
}

type ShareServiceImpl struct {
	cards   repository.CardRepository
	hub     *live.Hub
	baseURL string
	now     func() time.Time
}

var _ ShareService = (*ShareServiceImpl)(nil)

// NewShareService constructs ShareService. baseURL is the public origin, e.g. https://cards.example.
func NewShareService(cards repository.CardRepository, hub *live.Hub, baseURL string) *ShareServiceImpl {
	return &ShareServiceImpl{cards: cards, hub: hub, baseURL: strings.TrimRight(baseURL, "/"), now: time.Now}
}

func (s *ShareServiceImpl) Resolve(ctx context.Context, shareID string) (model.Card, bool, error) {
	shareID = strings.TrimSpace(shareID)
	if shareID == "" {
		return model.Card{}, false, nil
	}
	c, err := s.cards.GetByShareID(ctx, shareID)
	if errors.Is(err, errs.ErrNotFound) {
		return model.Card{}, false, nil
	}
	if err != nil {
		return model.Card{}, false, errs.Storage(err)
	}
	return *c, true, nil
}

// Clone keeps every attribute of the source, including its image URLs.
func (s *ShareServiceImpl) Clone(ctx context.Context, shareID string, newOwner uuid.UUID) (model.Card, error) {
	src, found, err := s.Resolve(ctx, shareID)
	if err != nil {
		return model.Card{}, err
	}
	if !found {
		return model.Card{}, errs.ErrNotFound
	}
	fields := src.CardFields
	fields.Tags = append([]string(nil), src.Tags...)

	c, err := s.cards.Create(ctx, newOwner, fields, s.now().UTC())
	if err != nil {
		return model.Card{}, errs.Storage(err)
	}
	s.hub.Publish(newOwner)
	return c, nil
}

func (s *ShareServiceImpl) Link(shareID string) string {
	return s.baseURL + "/card/" + url.PathEscape(shareID)
}
