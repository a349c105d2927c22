package model

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/and161185/cardvault/internal/errs"
)

func strp(s string) *string { return &s }

func TestCardPatch_IsEmpty(t *testing.T) {
	t.Parallel()

	require.True(t, CardPatch{}.IsEmpty())
	require.False(t, CardPatch{Company: strp("")}.IsEmpty())
	tags := []string{}
	require.False(t, CardPatch{Tags: &tags}.IsEmpty())
}

func TestCardPatch_Apply_MergesOnlySetFields(t *testing.T) {
	t.Parallel()

	base := CardFields{FullName: "Ada", Company: "Analytical", Phone: "123", Tags: []string{"math"}}
	tags := []string{"eng", "history"}
	got := CardPatch{Company: strp("Engines Ltd"), Tags: &tags}.Apply(base)

	require.Equal(t, "Ada", got.FullName)
	require.Equal(t, "Engines Ltd", got.Company)
	require.Equal(t, "123", got.Phone)
	require.Equal(t, []string{"eng", "history"}, got.Tags)

	// the patch slice is copied
	tags[0] = "changed"
	require.Equal(t, "eng", got.Tags[0])
	// original untouched
	require.Equal(t, "Analytical", base.Company)
}

func TestNormalizeTags(t *testing.T) {
	t.Parallel()

	require.Equal(t, []string{"a", "b c"}, NormalizeTags([]string{" a ", "", "  ", "b c"}))
	require.Empty(t, NormalizeTags(nil))
}

func TestCardFields_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, CardFields{FullName: "Ada"}.Validate())
	require.NoError(t, CardFields{FullName: "Ada", FrontURL: "https://cdn.example/cards/a.png"}.Validate())

	require.ErrorIs(t, CardFields{}.Validate(), errs.ErrValidation)
	require.ErrorIs(t, CardFields{FullName: "   "}.Validate(), errs.ErrValidation)
	require.ErrorIs(t, CardFields{FullName: "Ada", FrontURL: "cards/a.png"}.Validate(), errs.ErrValidation)
	require.ErrorIs(t, CardFields{FullName: "Ada", BackURL: "ftp://x/y"}.Validate(), errs.ErrValidation)
}

func TestCardPatch_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, CardPatch{}.Validate())
	require.NoError(t, CardPatch{Company: strp("x"), BackURL: strp("")}.Validate())
	require.ErrorIs(t, CardPatch{FullName: strp(" ")}.Validate(), errs.ErrValidation)
	require.ErrorIs(t, CardPatch{FrontURL: strp("not a url")}.Validate(), errs.ErrValidation)
}
