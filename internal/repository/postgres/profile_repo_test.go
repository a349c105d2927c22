package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/and161185/cardvault/internal/errs"
	"github.com/and161185/cardvault/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

var profileCols = []string{"account_id", "name", "company", "photo_url", "created_at", "updated_at"}

func TestProfileRepo_Get(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProfileRepo(db)
	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT account_id, name, company, photo_url, created_at, updated_at FROM profiles WHERE account_id=\$1`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(profileCols).AddRow(id, "Ada", "Engines", "", now, now))
	p, err := r.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "Ada", p.Name)

	mock.ExpectQuery(`FROM profiles WHERE account_id=\$1`).WithArgs(id).WillReturnError(pgx.ErrNoRows)
	_, err = r.Get(ctx, id)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestProfileRepo_Upsert_PassesNilForUntouchedFields(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProfileRepo(db)
	id := uuid.Must(uuid.NewV4())
	now := time.Date(2026, 4, 4, 4, 4, 4, 0, time.UTC)
	company := "Analytical Engines"

	mock.ExpectQuery(`INSERT INTO profiles .* ON CONFLICT \(account_id\) DO UPDATE SET name = COALESCE\(\$2, profiles.name\)`).
		WithArgs(id, (*string)(nil), &company, (*string)(nil), now).
		WillReturnRows(pgxmock.NewRows(profileCols).AddRow(id, "Ada", company, "https://x/p.png", now.Add(-time.Hour), now))

	p, err := r.Upsert(context.Background(), id, model.ProfilePatch{Company: &company}, now)
	require.NoError(t, err)
	require.Equal(t, "Ada", p.Name, "name kept from existing row")
	require.Equal(t, company, p.Company)
	require.Equal(t, now, p.UpdatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}
