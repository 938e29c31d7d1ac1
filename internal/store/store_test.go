package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse-dev/gatehouse/internal/database"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "store.sqlite"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	return New(db)
}

func TestStore_CreateAndFind(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateUser(ctx, NewUser{Email: "real@user.com", Name: "Real User", PasswordHash: "hash"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Len(t, created.ID, 26, "IDs are ULIDs")

	byEmail, err := s.FindUserByEmail(ctx, "real@user.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)
	assert.True(t, byEmail.HasPassword())
	assert.Equal(t, "Real User", byEmail.DisplayName())

	byID, err := s.FindUserByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "real@user.com", byID.Email)
}

func TestStore_FindMissing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.FindUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.FindUserByID(ctx, "01HZZZZZZZZZZZZZZZZZZZZZZZ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_EmailLookupIsExact(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateUser(ctx, NewUser{Email: "real@user.com"})
	require.NoError(t, err)

	_, err = s.FindUserByEmail(ctx, "other@user.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_CreateDuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateUser(ctx, NewUser{Email: "dup@example.com"})
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, NewUser{Email: "dup@example.com"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestStore_UpdateName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user, err := s.CreateUser(ctx, NewUser{Email: "rename@example.com"})
	require.NoError(t, err)
	assert.Empty(t, user.DisplayName())

	updated, err := s.UpdateName(ctx, user.ID, "New Name")
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.DisplayName())

	_, err = s.UpdateName(ctx, "missing", "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_UpsertOAuthUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	profile := OAuthProfile{
		Provider:          "google",
		ProviderAccountID: "g-123",
		Email:             "oauth@example.com",
		EmailVerified:     true,
		Name:              "OAuth User",
		Image:             "https://example.com/a.png",
	}

	first, err := s.UpsertOAuthUser(ctx, profile)
	require.NoError(t, err)
	assert.False(t, first.HasPassword())
	assert.NotNil(t, first.EmailVerified)
	assert.Equal(t, "OAuth User", first.DisplayName())

	second, err := s.UpsertOAuthUser(ctx, profile)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "same provider account resolves to the same user")
}

func TestStore_UpsertOAuthUser_DoesNotLinkExistingEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateUser(ctx, NewUser{Email: "taken@example.com", PasswordHash: "hash"})
	require.NoError(t, err)

	_, err = s.UpsertOAuthUser(ctx, OAuthProfile{
		Provider:          "google",
		ProviderAccountID: "g-999",
		Email:             "taken@example.com",
	})
	assert.ErrorIs(t, err, ErrAccountNotLinked)
}

func TestStore_SessionSecretIsStable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.SessionSecret(ctx)
	require.NoError(t, err)
	assert.Len(t, first, 64)

	second, err := s.SessionSecret(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestStore_SetPasswordHash(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user, err := s.CreateUser(ctx, NewUser{Email: "oauth@user.com"})
	require.NoError(t, err)
	assert.False(t, user.HasPassword())

	require.NoError(t, s.SetPasswordHash(ctx, user.ID, "new-hash"))

	updated, err := s.FindUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, updated.HasPassword())
	assert.Equal(t, "new-hash", *updated.PasswordHash)

	assert.ErrorIs(t, s.SetPasswordHash(ctx, "01HZZZZZZZZZZZZZZZZZZZZZZZ", "x"), ErrNotFound)
}
