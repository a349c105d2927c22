package service

import (
	"context"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/and161185/cardvault/internal/errs"
	"github.com/and161185/cardvault/internal/live"
	"github.com/and161185/cardvault/internal/model"
	"github.com/and161185/cardvault/internal/repository"
	"github.com/and161185/cardvault/internal/storage"
)

// CardService defines owner-scoped card operations.
type CardService interface {
	// Create uploads the images and stores a new card for owner.
	Create(ctx context.Context, ownerID uuid.UUID, f model.CardFields, front, back *model.Upload) (model.Card, error)
	// Update merges a patch into an owned card.
	Update(ctx context.Context, ownerID, cardID uuid.UUID, p model.CardPatch) (model.Card, error)
	// Delete removes an owned card; unknown ids are ignored.
	Delete(ctx context.Context, ownerID, cardID uuid.UUID) error
	// Get returns an owned card.
	Get(ctx context.Context, ownerID, cardID uuid.UUID) (model.Card, error)
	// List returns the owner's cards, newest first.
	List(ctx context.Context, ownerID uuid.UUID) ([]model.Card, error)
	// Subscribe streams fresh snapshots of the owner's cards after every change.
	Subscribe(ctx context.Context, ownerID uuid.UUID) (*Subscription, error)
}

type CardServiceImpl struct {
	cards   repository.CardRepository
	objects storage.ObjectStore
	hub     *live.Hub
	log     *zap.Logger
	now     func() time.Time
}

var _ CardService = (*CardServiceImpl)(nil)

// NewCardService constructs CardService.
func NewCardService(cards repository.CardRepository, objects storage.ObjectStore, hub *live.Hub, log *zap.Logger) *CardServiceImpl {
	return &CardServiceImpl{cards: cards, objects: objects, hub: hub, log: log, now: time.Now}
}

// Create validates fields, uploads front and back concurrently and writes the
// record only after both uploads succeeded.
func (s *CardServiceImpl) Create(ctx context.Context, ownerID uuid.UUID, f model.CardFields, front, back *model.Upload) (model.Card, error) {
	f.FrontURL, f.BackURL = "", ""
	if err := f.Validate(); err != nil {
		return model.Card{}, err
	}
	if front == nil {
		return model.Card{}, errs.Validation("front image is required")
	}

	now := s.now().UTC()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := s.objects.Put(gctx, storage.CardImagePath(ownerID, now, front.Filename), *front)
		f.FrontURL = u
		return err
	})
	if back != nil {
		g.Go(func() error {
			u, err := s.objects.Put(gctx, storage.CardImagePath(ownerID, now, back.Filename), *back)
			f.BackURL = u
			return err
		})
	}
	if err := g.Wait(); err != nil {
		s.log.Warn("card image upload failed", zap.String("owner", ownerID.String()), zap.Error(err))
		return model.Card{}, errs.Storage(err)
	}

	c, err := s.cards.Create(ctx, ownerID, f, now)
	if err != nil {
		return model.Card{}, errs.Storage(err)
	}
	s.hub.Publish(ownerID)
	return c, nil
}

func (s *CardServiceImpl) Update(ctx context.Context, ownerID, cardID uuid.UUID, p model.CardPatch) (model.Card, error) {
	if p.IsEmpty() {
		return s.Get(ctx, ownerID, cardID)
	}
	c, err := s.cards.Update(ctx, ownerID, cardID, p, s.now().UTC())
	if err != nil {
		return model.Card{}, errs.Storage(err)
	}
	s.hub.Publish(ownerID)
	return c, nil
}

func (s *CardServiceImpl) Delete(ctx context.Context, ownerID, cardID uuid.UUID) error {
	if err := s.cards.Delete(ctx, ownerID, cardID); err != nil {
		return errs.Storage(err)
	}
	s.hub.Publish(ownerID)
	return nil
}

// Get hides cards of other owners behind ErrNotFound.
func (s *CardServiceImpl) Get(ctx context.Context, ownerID, cardID uuid.UUID) (model.Card, error) {
	c, err := s.cards.Get(ctx, cardID)
	if err != nil {
		return model.Card{}, errs.Storage(err)
	}
	if c.OwnerID != ownerID {
		return model.Card{}, errs.ErrNotFound
	}
	return *c, nil
}

func (s *CardServiceImpl) List(ctx context.Context, ownerID uuid.UUID) ([]model.Card, error) {
	list, err := s.cards.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, errs.Storage(err)
	}
	return list, nil
}

// Subscription delivers card list snapshots. Only the newest undelivered
// snapshot is kept.
type Subscription struct {
	updates chan []model.Card
	stop    context.CancelFunc
	done    chan struct{}
	once    sync.Once
}

// Updates returns the snapshot channel; it is closed after Cancel.
func (s *Subscription) Updates() <-chan []model.Card { return s.updates }

// Cancel stops the subscription. No snapshot is observable after it returns.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.stop()
		<-s.done
		for range s.updates {
		}
	})
}

// Subscribe delivers the current list immediately, then a fresh list after
// each change to the owner's cards. The subscription ends with ctx or Cancel.
func (s *CardServiceImpl) Subscribe(ctx context.Context, ownerID uuid.UUID) (*Subscription, error) {
	signals, unsubscribe := s.hub.Subscribe(ownerID)
	first, err := s.List(ctx, ownerID)
	if err != nil {
		unsubscribe()
		return nil, err
	}

	ctx, stop := context.WithCancel(ctx)
	sub := &Subscription{updates: make(chan []model.Card, 1), stop: stop, done: make(chan struct{})}
	sub.offer(first)

	go func() {
		defer close(sub.done)
		defer close(sub.updates)
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-signals:
				if !ok {
					return
				}
			}
			list, err := s.List(ctx, ownerID)
			if err != nil {
				if ctx.Err() == nil {
					s.log.Warn("card snapshot failed", zap.String("owner", ownerID.String()), zap.Error(err))
				}
				continue
			}
			if ctx.Err() != nil {
				return
			}
			sub.offer(list)
		}
	}()
	return sub, nil
}

// offer replaces any pending snapshot with list. Only the subscription
// goroutine (or Subscribe before it starts) sends.
func (s *Subscription) offer(list []model.Card) {
	select {
	case <-s.updates:
	default:
	}
	s.updates <- list
}
