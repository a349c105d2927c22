package service

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/cardvault/internal/errs"
	"github.com/and161185/cardvault/internal/model"
	"github.com/and161185/cardvault/internal/repository"
	"github.com/and161185/cardvault/internal/storage"
)

// ProfileService manages the display profile of an account.
type ProfileService interface {
	// Get returns the profile; accounts without one get an empty default.
	Get(ctx context.Context, accountID uuid.UUID) (model.Profile, error)
	// Update merges the non-nil fields of patch.
	Update(ctx context.Context, accountID uuid.UUID, patch model.ProfilePatch) (model.Profile, error)
	// UploadPhoto stores a new photo and points the profile at it.
	UploadPhoto(ctx context.Context, accountID uuid.UUID, u model.Upload) (model.Profile, error)
}

type ProfileServiceImpl struct {
	profiles repository.ProfileRepository
	objects  storage.ObjectStore
	now      func() time.Time
}

var _ ProfileService = (*ProfileServiceImpl)(nil)

// NewProfileService constructs ProfileService.
func NewProfileService(profiles repository.ProfileRepository, objects storage.ObjectStore) *ProfileServiceImpl {
	return &ProfileServiceImpl{profiles: profiles, objects: objects, now: time.Now}
}

func (s *ProfileServiceImpl) Get(ctx context.Context, accountID uuid.UUID) (model.Profile, error) {
	p, err := s.profiles.Get(ctx, accountID)
	if errors.Is(err, errs.ErrNotFound) {
		return model.Profile{AccountID: accountID}, nil
	}
	if err != nil {
		return model.Profile{}, errs.Storage(err)
	}
	return *p, nil
}

func (s *ProfileServiceImpl) Update(ctx context.Context, accountID uuid.UUID, patch model.ProfilePatch) (model.Profile, error) {
	patch = trimProfile(patch)
	if patch.PhotoURL != nil {
		if err := model.CheckImageRef(*patch.PhotoURL); err != nil {
			return model.Profile{}, err
		}
	}
	p, err := s.profiles.Upsert(ctx, accountID, patch, s.now().UTC())
	if err != nil {
		return model.Profile{}, errs.Storage(err)
	}
	return p, nil
}

func (s *ProfileServiceImpl) UploadPhoto(ctx context.Context, accountID uuid.UUID, u model.Upload) (model.Profile, error) {
	if u.Body == nil {
		return model.Profile{}, errs.Validation("photo is required")
	}
	now := s.now().UTC()
	ref, err := s.objects.Put(ctx, storage.ProfilePhotoPath(accountID, now, u.Filename), u)
	if err != nil {
		return model.Profile{}, errs.Storage(err)
	}
	p, err := s.profiles.Upsert(ctx, accountID, model.ProfilePatch{PhotoURL: &ref}, now)
	if err != nil {
		return model.Profile{}, errs.Storage(err)
	}
	return p, nil
}
