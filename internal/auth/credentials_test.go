package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse-dev/gatehouse/internal/models"
	"github.com/gatehouse-dev/gatehouse/internal/store"
)

// mockCredentialStore is an in-memory credential store keyed by email
type mockCredentialStore struct {
	users map[string]*models.User
	err   error
	calls int
}

func (m *mockCredentialStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	user, ok := m.users[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	return user, nil
}

func newMockStore(t *testing.T) *mockCredentialStore {
	t.Helper()

	hash, err := HashPassword("correct123")
	require.NoError(t, err)

	name := "Real User"
	return &mockCredentialStore{
		users: map[string]*models.User{
			"real@user.com": {
				BaseModel:    models.BaseModel{ID: "u1"},
				Email:        "real@user.com",
				PasswordHash: &hash,
				Name:         &name,
			},
			"oauth@user.com": {
				BaseModel: models.BaseModel{ID: "u2"},
				Email:     "oauth@user.com",
			},
		},
	}
}

func TestAuthenticate_Success(t *testing.T) {
	a := NewAuthenticator(newMockStore(t))

	user, err := a.Authenticate(context.Background(), []byte(`{"email":"real@user.com","password":"correct123"}`))
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "real@user.com", user.Email)
}

func TestAuthenticate_InvalidInput(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantFields []string
	}{
		{name: "password under six characters", raw: `{"email":"a@b.com","password":"short"}`, wantFields: []string{"password"}},
		{name: "malformed email", raw: `{"email":"not-an-email","password":"correct123"}`, wantFields: []string{"email"}},
		{name: "missing fields", raw: `{}`, wantFields: []string{"email", "password"}},
		{name: "password not a string", raw: `{"email":"a@b.com","password":123456}`},
		{name: "not json", raw: `email=a@b.com`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newMockStore(t)
			a := NewAuthenticator(s)

			user, err := a.Authenticate(context.Background(), []byte(tt.raw))
			assert.Nil(t, user)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Zero(t, s.calls, "invalid input must not reach the store")

			var inputErr *InvalidInputError
			require.ErrorAs(t, err, &inputErr)
			for _, field := range tt.wantFields {
				assert.Contains(t, inputErr.Fields, field)
			}
		})
	}
}

func TestAuthenticate_DenialsAreIndistinguishable(t *testing.T) {
	a := NewAuthenticator(newMockStore(t))
	ctx := context.Background()

	_, unknownErr := a.AuthenticateCredentials(ctx, Credentials{Email: "ghost@user.com", Password: "whatever1"})
	_, wrongErr := a.AuthenticateCredentials(ctx, Credentials{Email: "real@user.com", Password: "wrong-password"})
	_, noHashErr := a.AuthenticateCredentials(ctx, Credentials{Email: "oauth@user.com", Password: "whatever1"})

	for _, err := range []error{unknownErr, wrongErr, noHashErr} {
		assert.ErrorIs(t, err, ErrAuthenticationDenied)
		assert.Equal(t, ErrAuthenticationDenied.Error(), err.Error())
	}
}

func TestAuthenticate_UnregisteredEmails(t *testing.T) {
	a := NewAuthenticator(newMockStore(t))

	for _, email := range []string{"one@example.com", "two@example.org", "x@y.io"} {
		user, err := a.AuthenticateCredentials(context.Background(), Credentials{Email: email, Password: "password1"})
		assert.Nil(t, user)
		assert.Same(t, ErrAuthenticationDenied, err)
	}
}

func TestAuthenticate_StoreFailureIsInternal(t *testing.T) {
	s := newMockStore(t)
	s.err = errors.New("database is locked")
	a := NewAuthenticator(s)

	_, err := a.AuthenticateCredentials(context.Background(), Credentials{Email: "real@user.com", Password: "correct123"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAuthenticationDenied)
	assert.NotErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "database is locked")
}

func TestAuthenticate_CorruptHashIsInternal(t *testing.T) {
	s := newMockStore(t)
	bad := "not-a-bcrypt-hash"
	s.users["real@user.com"].PasswordHash = &bad
	a := NewAuthenticator(s)

	_, err := a.AuthenticateCredentials(context.Background(), Credentials{Email: "real@user.com", Password: "correct123"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAuthenticationDenied)
}
