package service

import (
	"context"
	"strings"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"

	"github.com/and161185/cardvault/internal/errs"
	"github.com/and161185/cardvault/internal/model"
	"github.com/and161185/cardvault/internal/repository/memory"
)

func TestProfile_GetDefaultsAndMerge(t *testing.T) {
	t.Parallel()
	s := NewProfileService(memory.New().Profiles(), &fakeObjects{})
	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())

	p, err := s.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, model.Profile{AccountID: id}, p)

	_, err = s.Update(ctx, id, model.ProfilePatch{Name: strp(" Ada "), Company: strp("Engines")})
	require.NoError(t, err)
	p, err = s.Update(ctx, id, model.ProfilePatch{Company: strp("Analytical")})
	require.NoError(t, err)
	require.Equal(t, "Ada", p.Name)
	require.Equal(t, "Analytical", p.Company)

	_, err = s.Update(ctx, id, model.ProfilePatch{PhotoURL: strp("javascript:alert(1)")})
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestProfile_UploadPhoto(t *testing.T) {
	t.Parallel()
	obj := &fakeObjects{}
	s := NewProfileService(memory.New().Profiles(), obj)
	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())

	_, err := s.Update(ctx, id, model.ProfilePatch{Name: strp("Ada")})
	require.NoError(t, err)

	p, err := s.UploadPhoto(ctx, id, *upload("me.jpg"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(p.PhotoURL, "https://objects.test/profiles/"+id.String()+"/"), p.PhotoURL)
	require.True(t, strings.HasSuffix(p.PhotoURL, "-me.jpg"))
	require.Equal(t, "Ada", p.Name)

	obj.failFor = "bad.jpg"
	_, err = s.UploadPhoto(ctx, id, *upload("bad.jpg"))
	require.ErrorIs(t, err, errs.ErrStorage)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, p.PhotoURL, got.PhotoURL, "failed upload keeps the old photo")

	_, err = s.UploadPhoto(ctx, id, model.Upload{Filename: "x"})
	require.ErrorIs(t, err, errs.ErrValidation)
}
