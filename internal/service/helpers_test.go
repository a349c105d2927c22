package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/cardvault/internal/live"
	"github.com/and161185/cardvault/internal/model"
	"github.com/and161185/cardvault/internal/repository"
	"github.com/and161185/cardvault/internal/repository/memory"
	"github.com/and161185/cardvault/internal/storage"
)

type fakeObjects struct {
	mu      sync.Mutex
	paths   []string
	failFor string // filename whose upload fails

	// barrier > 0 makes each Put wait until that many uploads are in flight
	barrier int
	arrived int
	release chan struct{}
}

var _ storage.ObjectStore = (*fakeObjects)(nil)

func (f *fakeObjects) Put(ctx context.Context, path string, u model.Upload) (string, error) {
	if f.barrier > 0 {
		f.mu.Lock()
		if f.release == nil {
			f.release = make(chan struct{})
		}
		f.arrived++
		if f.arrived == f.barrier {
			close(f.release)
		}
		rel := f.release
		f.mu.Unlock()
		select {
		case <-rel:
		case <-time.After(2 * time.Second):
			return "", errors.New("uploads were not concurrent")
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if _, err := io.Copy(io.Discard, u.Body); err != nil {
		return "", err
	}
	if f.failFor != "" && u.Filename == f.failFor {
		return "", errors.New("bucket unavailable")
	}
	f.mu.Lock()
	f.paths = append(f.paths, path)
	f.mu.Unlock()
	return "https://objects.test/" + path, nil
}

func (f *fakeObjects) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.paths)
}

func upload(name string) *model.Upload {
	return &model.Upload{Filename: name, ContentType: "image/png", Size: 3, Body: strings.NewReader("img")}
}

type fixture struct {
	store   *memory.Store
	hub     *live.Hub
	objects *fakeObjects
	cards   *CardServiceImpl
	share   *ShareServiceImpl
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memory.New()
	hub := live.NewHub()
	obj := &fakeObjects{}
	return &fixture{
		store:   st,
		hub:     hub,
		objects: obj,
		cards:   NewCardService(st.Cards(), obj, hub, zaptest.NewLogger(t)),
		share:   NewShareService(st.Cards(), hub, "https://cards.example/"),
	}
}

// clock returns strictly increasing instants one second apart.
func clock(start time.Time) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := next
		next = next.Add(time.Second)
		return t
	}
}

var errDBDown = errors.New("db down")

// brokenCards fails every call like an unreachable database.
type brokenCards struct{}

var _ repository.CardRepository = brokenCards{}

func (brokenCards) Create(context.Context, uuid.UUID, model.CardFields, time.Time) (model.Card, error) {
	return model.Card{}, errDBDown
}
func (brokenCards) Update(context.Context, uuid.UUID, uuid.UUID, model.CardPatch, time.Time) (model.Card, error) {
	return model.Card{}, errDBDown
}
func (brokenCards) Delete(context.Context, uuid.UUID, uuid.UUID) error { return errDBDown }
func (brokenCards) Get(context.Context, uuid.UUID) (*model.Card, error) {
	return nil, errDBDown
}
func (brokenCards) ListByOwner(context.Context, uuid.UUID) ([]model.Card, error) {
	return nil, errDBDown
}
func (brokenCards) GetByShareID(context.Context, string) (*model.Card, error) {
	return nil, errDBDown
}
