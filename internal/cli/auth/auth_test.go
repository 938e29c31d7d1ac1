package auth

import (
	"errors"
	"testing"

	"github.com/zalando/go-keyring"
)

func TestTokenStore_RoundTrip(t *testing.T) {
	keyring.MockInit()

	const server = "https://auth.example.com"

	if _, err := Default.LoadToken(server); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}

	if err := Default.SaveToken(server, "token-abc"); err != nil {
		t.Fatalf("failed to save token: %v", err)
	}

	token, err := Default.LoadToken(server)
	if err != nil {
		t.Fatalf("failed to load token: %v", err)
	}
	if token != "token-abc" {
		t.Errorf("expected token-abc, got %s", token)
	}

	// Tokens are scoped per server
	if _, err := Default.LoadToken("http://localhost:8080"); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("expected no token for another server, got %v", err)
	}

	if err := Default.DeleteToken(server); err != nil {
		t.Fatalf("failed to delete token: %v", err)
	}
	if err := Default.DeleteToken(server); err != nil {
		t.Errorf("deleting twice should be a no-op, got %v", err)
	}
	if _, err := Default.LoadToken(server); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated after delete, got %v", err)
	}
}
