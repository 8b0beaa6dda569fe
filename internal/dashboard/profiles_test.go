package dashboard

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryProfileStoreToggle(t *testing.T) {
	store := NewMemoryProfileStore()
	ctx := context.Background()

	away, err := store.IsAway(ctx, RoleManager)
	require.NoError(t, err)
	assert.False(t, away)

	away, err = store.ToggleAway(ctx, RoleManager)
	require.NoError(t, err)
	assert.True(t, away)

	owner, err := store.IsAway(ctx, RoleOwner)
	require.NoError(t, err)
	assert.False(t, owner, "roles are independent")

	away, err = store.ToggleAway(ctx, RoleManager)
	require.NoError(t, err)
	assert.False(t, away)

	_, err = store.ToggleAway(ctx, Role("visitor"))
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func newMockProfiles(t *testing.T) (pgxmock.PgxPoolIface, *PostgresProfileStore) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, newPostgresProfileStoreWithDB(mock)
}

func TestPostgresProfileStoreIsAway(t *testing.T) {
	mock, store := newMockProfiles(t)

	mock.ExpectQuery(`SELECT is_away FROM profiles WHERE role = \$1`).
		WithArgs("manager").
		WillReturnRows(pgxmock.NewRows([]string{"is_away"}).AddRow(true))
	mock.ExpectQuery(`SELECT is_away FROM profiles WHERE role = \$1`).
		WithArgs("owner").
		WillReturnError(pgx.ErrNoRows)

	away, err := store.IsAway(context.Background(), RoleManager)
	require.NoError(t, err)
	assert.True(t, away)

	away, err = store.IsAway(context.Background(), RoleOwner)
	require.NoError(t, err)
	assert.False(t, away, "a missing profile reads as available")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresProfileStoreToggleAway(t *testing.T) {
	mock, store := newMockProfiles(t)

	mock.ExpectQuery(`(?s)INSERT INTO profiles.*ON CONFLICT \(role\) DO UPDATE SET is_away = NOT profiles\.is_away`).
		WithArgs("manager").
		WillReturnRows(pgxmock.NewRows([]string{"is_away"}).AddRow(true))

	away, err := store.ToggleAway(context.Background(), RoleManager)
	require.NoError(t, err)
	assert.True(t, away)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresProfileStoreErrors(t *testing.T) {
	mock, store := newMockProfiles(t)

	mock.ExpectQuery(`INSERT INTO profiles`).
		WithArgs("owner").
		WillReturnError(errors.New("connection refused"))

	_, err := store.ToggleAway(context.Background(), RoleOwner)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "toggle away flag")

	_, err = store.IsAway(context.Background(), Role("visitor"))
	assert.ErrorIs(t, err, ErrUnknownRole)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAwayFor(t *testing.T) {
	store := NewMemoryProfileStore()
	lookup := AwayFor(store, RoleOwner)

	away, err := lookup(context.Background())
	require.NoError(t, err)
	assert.False(t, away)

	_, err = store.ToggleAway(context.Background(), RoleOwner)
	require.NoError(t, err)
	away, err = lookup(context.Background())
	require.NoError(t, err)
	assert.True(t, away)
}
