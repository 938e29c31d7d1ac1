package auth

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const service = "gatehouse-cli"

// ErrNotAuthenticated is returned when no session token is stored for a server
var ErrNotAuthenticated = errors.New("not authenticated. Please run 'gatehouse login' first")

// keyringKey returns a unique key for storing session tokens per server
func keyringKey(serverURL string) string {
	return fmt.Sprintf("session-%s", serverURL)
}

// SaveToken persists the session token in the OS keychain/credential manager
func SaveToken(serverURL, token string) error {
	if err := keyring.Set(service, keyringKey(serverURL), token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// LoadToken retrieves the session token from the OS keychain/credential manager
func LoadToken(serverURL string) (string, error) {
	token, err := keyring.Get(service, keyringKey(serverURL))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotAuthenticated
		}
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	return token, nil
}

// DeleteToken removes the session token from the OS keychain/credential manager
func DeleteToken(serverURL string) error {
	if err := keyring.Delete(service, keyringKey(serverURL)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
