package auth

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrInvalidInput means the credentials payload failed validation
	ErrInvalidInput = errors.New("invalid credentials payload")

	// ErrAuthenticationDenied covers both unknown emails and wrong passwords.
	// Callers must not be able to tell the two apart.
	ErrAuthenticationDenied = errors.New("invalid email or password")

	// ErrInvalidToken means a session token is malformed, expired or signed
	// with another secret
	ErrInvalidToken = errors.New("invalid session token")
)

// InvalidInputError carries per-field validation messages.
// It matches ErrInvalidInput with errors.Is.
type InvalidInputError struct {
	Fields map[string]string
}

func (e *InvalidInputError) Error() string {
	if len(e.Fields) == 0 {
		return ErrInvalidInput.Error()
	}

	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s %s", name, e.Fields[name])
	}
	return fmt.Sprintf("%s: %s", ErrInvalidInput, strings.Join(parts, "; "))
}

func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}
