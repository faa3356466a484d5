package sqlite

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice.app/internal/auth"
	"backoffice.app/internal/media"
	"backoffice.app/internal/migrate"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	m, err := migrate.NewManager(s.DB(), migrate.SQLite)
	require.NoError(t, err)
	_, err = m.Up(context.Background())
	require.NoError(t, err)
	return s
}

func TestAccountLifecycle(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)

	created, err := s.CreateAccount(ctx, auth.Account{Username: "Alice", PasswordHash: "h1", Role: auth.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, "alice", created.Username)
	assert.False(t, created.CreatedAt.IsZero())

	byName, err := s.FindAccountByUsername(ctx, "ALICE")
	require.NoError(t, err)
	assert.Equal(t, created, byName)

	s.now = func() time.Time { return created.UpdatedAt.Add(time.Second) }
	hash := "h2"
	updated, err := s.UpdateAccount(ctx, created.ID, auth.AccountUpdate{PasswordHash: &hash})
	require.NoError(t, err)
	assert.Equal(t, "h2", updated.PasswordHash)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	require.NoError(t, s.DeleteAccount(ctx, created.ID))
	require.ErrorIs(t, s.DeleteAccount(ctx, created.ID), auth.ErrNotFound)
	_, err = s.FindAccountByID(ctx, created.ID)
	require.ErrorIs(t, err, auth.ErrNotFound)
}

func TestUniqueUsernameMapsToConflict(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)
	_, err := s.CreateAccount(ctx, auth.Account{Username: "bob", PasswordHash: "h", Role: auth.RoleUser})
	require.NoError(t, err)
	other, err := s.CreateAccount(ctx, auth.Account{Username: "carol", PasswordHash: "h", Role: auth.RoleUser})
	require.NoError(t, err)

	_, err = s.CreateAccount(ctx, auth.Account{Username: "BOB", PasswordHash: "h", Role: auth.RoleUser})
	require.ErrorIs(t, err, auth.ErrConflict)

	name := "Bob"
	_, err = s.UpdateAccount(ctx, other.ID, auth.AccountUpdate{Username: &name})
	require.ErrorIs(t, err, auth.ErrConflict)

	_, err = s.UpdateAccount(ctx, "missing", auth.AccountUpdate{Username: &name})
	require.ErrorIs(t, err, auth.ErrNotFound)
}

func TestConcurrentCreatesOneWins(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CreateAccount(ctx, auth.Account{Username: "dave", PasswordHash: "h", Role: auth.RoleUser})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok int
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		require.True(t, errors.Is(err, auth.ErrConflict), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, ok)
}

func TestListAccountsOrderedByCreation(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"c", "a", "b"} {
		s.now = func() time.Time { return base.Add(time.Duration(i) * time.Millisecond) }
		_, err := s.CreateAccount(ctx, auth.Account{Username: name, PasswordHash: "h", Role: auth.RoleUser})
		require.NoError(t, err)
	}
	list, err := s.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{list[0].Username, list[1].Username, list[2].Username})
}

func TestUnknownStoredRoleFallsBack(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)
	acct, err := s.CreateAccount(ctx, auth.Account{Username: "erin", PasswordHash: "h", Role: auth.RoleAdmin})
	require.NoError(t, err)

	// Simulate a legacy row written before roles were constrained.
	_, err = s.DB().ExecContext(ctx, `pragma ignore_check_constraints = on`)
	require.NoError(t, err)
	_, err = s.DB().ExecContext(ctx, `update admins set role = '' where id = ?`, acct.ID)
	require.NoError(t, err)

	got, err := s.FindAccountByID(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, auth.FallbackRole, got.Role)
}

func TestImages(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)
	url := "https://example.com/a.png"
	img, err := s.CreateImage(ctx, media.Image{Base64: "aGk=", URL: &url})
	require.NoError(t, err)
	assert.Nil(t, img.AltText)
	require.NotNil(t, img.URL)

	list, err := s.ListImages(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, s.DeleteImage(ctx, img.ID))
	require.ErrorIs(t, s.DeleteImage(ctx, img.ID), media.ErrNotFound)
	_, err = s.FindImageByID(ctx, img.ID)
	require.ErrorIs(t, err, media.ErrNotFound)
}

func TestPing(t *testing.T) {
	require.NoError(t, setupStore(t).Ping(context.Background()))
}
