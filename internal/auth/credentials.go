package auth

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/gatehouse-dev/gatehouse/internal/models"
	"github.com/gatehouse-dev/gatehouse/internal/store"
	"github.com/gatehouse-dev/gatehouse/internal/validate"
)

// Credentials is the sign-in payload. It is never persisted.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// CredentialStore looks users up by email. Implementations return
// store.ErrNotFound when no user matches.
type CredentialStore interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// UserDirectory is a CredentialStore that also resolves session subjects
// back to users.
type UserDirectory interface {
	CredentialStore
	FindUserByID(ctx context.Context, id string) (*models.User, error)
}

// Authenticator verifies email/password sign-ins
type Authenticator struct {
	store    CredentialStore
	validate *validator.Validate

	dummyOnce sync.Once
	dummyHash []byte
}

// NewAuthenticator creates an authenticator backed by the given store
func NewAuthenticator(s CredentialStore) *Authenticator {
	return &Authenticator{
		store:    s,
		validate: validate.New(),
	}
}

// Authenticate decodes and checks a raw JSON credentials payload
func (a *Authenticator) Authenticate(ctx context.Context, raw []byte) (*models.User, error) {
	var creds Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return nil, &InvalidInputError{}
	}
	return a.AuthenticateCredentials(ctx, creds)
}

// AuthenticateCredentials validates the credentials, looks up the user and
// verifies the password. Unknown users, users without a password and wrong
// passwords all yield ErrAuthenticationDenied.
func (a *Authenticator) AuthenticateCredentials(ctx context.Context, creds Credentials) (*models.User, error) {
	if err := a.validate.Struct(creds); err != nil {
		return nil, &InvalidInputError{Fields: validate.Fields(err)}
	}

	user, err := a.store.FindUserByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			a.burnComparison(creds.Password)
			return nil, ErrAuthenticationDenied
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !user.HasPassword() {
		a.burnComparison(creds.Password)
		return nil, ErrAuthenticationDenied
	}

	ok, err := VerifyPassword(creds.Password, *user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAuthenticationDenied
	}

	return user, nil
}

// burnComparison runs a bcrypt comparison against a throwaway hash so that a
// missing user costs as much time as a wrong password.
func (a *Authenticator) burnComparison(password string) {
	a.dummyOnce.Do(func() {
		secret := make([]byte, 16)
		_, _ = rand.Read(secret)
		a.dummyHash, _ = bcrypt.GenerateFromPassword(secret, bcrypt.DefaultCost)
	})
	if a.dummyHash != nil {
		_ = bcrypt.CompareHashAndPassword(a.dummyHash, []byte(password))
	}
}
