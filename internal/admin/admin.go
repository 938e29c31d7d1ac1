// Package admin holds operator tasks run against the local database, outside
// of the HTTP server.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/gatehouse-dev/gatehouse/internal/auth"
	"github.com/gatehouse-dev/gatehouse/internal/models"
	"github.com/gatehouse-dev/gatehouse/internal/store"
	"github.com/gatehouse-dev/gatehouse/internal/validate"
)

// NewUserInput is what an operator supplies to create a credential user
type NewUserInput struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"omitempty,max=120"`
	Password string `json:"password" validate:"required,min=6"`
}

// Admin runs operator tasks on a store
type Admin struct {
	users    *store.Store
	validate *validator.Validate
}

// New creates an Admin on top of a store
func New(users *store.Store) *Admin {
	return &Admin{users: users, validate: validate.New()}
}

// CreateUser validates the input, hashes the password and stores the user
func (a *Admin) CreateUser(ctx context.Context, in NewUserInput) (*models.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)

	if err := a.check(in); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	return a.users.CreateUser(ctx, store.NewUser{
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: hash,
	})
}

// SetPassword replaces the password of the user with the given email. Users
// that signed up with an OAuth provider gain credential sign-in this way.
func (a *Admin) SetPassword(ctx context.Context, email, password string) (*models.User, error) {
	if auth.PasswordTooShort(password) {
		return nil, &auth.InvalidInputError{Fields: map[string]string{
			"password": fmt.Sprintf("must be at least %d characters", auth.MinPasswordLength),
		}}
	}

	user, err := a.users.FindUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	if err := a.users.SetPasswordHash(ctx, user.ID, hash); err != nil {
		return nil, err
	}
	user.PasswordHash = &hash
	return user, nil
}

func (a *Admin) check(in NewUserInput) error {
	err := a.validate.Struct(in)
	if err == nil {
		return nil
	}
	if fields := validate.Fields(err); fields != nil {
		return &auth.InvalidInputError{Fields: fields}
	}
	return errors.Join(auth.ErrInvalidInput, err)
}
