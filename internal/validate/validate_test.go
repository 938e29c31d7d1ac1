package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type signup struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"max=5"`
}

func TestFields(t *testing.T) {
	v := New()

	err := v.Struct(signup{Email: "not-an-email", Password: "short", Name: "too long name"})
	fields := Fields(err)

	assert.Equal(t, map[string]string{
		"email":    "must be a valid email address",
		"password": "must be at least 6 characters",
		"name":     "must be at most 5 characters",
	}, fields)
}

func TestFields_Valid(t *testing.T) {
	v := New()

	err := v.Struct(signup{Email: "a@b.com", Password: "secret1"})
	assert.NoError(t, err)
	assert.Nil(t, Fields(err))
}

func TestFields_NonValidationError(t *testing.T) {
	assert.Nil(t, Fields(errors.New("boom")))
}
