package client

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

const validToken = "token-abc"

// fakeServer mimics the Gatehouse auth and action endpoints
func fakeServer(t *testing.T) *httptest.Server {
	t.Helper()

	authorized := func(r *http.Request) bool {
		return r.Header.Get("Authorization") == "Bearer "+validToken
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/callback/credentials", func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.Email != "real@user.com" || req.Password != "correct123" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"Invalid email or password"}`))
			return
		}
		w.Write([]byte(`{"token":"` + validToken + `","user":{"id":"u1","email":"real@user.com","name":"Real User"}}`))
	})
	mux.HandleFunc("GET /api/auth/session", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			w.Write([]byte(`{}`))
			return
		}
		w.Write([]byte(`{"user":{"id":"u1","email":"real@user.com"},"expires":"2030-01-01T00:00:00Z"}`))
	})
	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"User not authenticated. Please sign in."}`))
			return
		}
		w.Write([]byte(`{"id":"u1","email":"real@user.com","name":null}`))
	})
	mux.HandleFunc("POST /api/actions/update-profile", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"serverError":"User not authenticated. Please sign in."}`))
			return
		}
		var in struct {
			Name string `json:"name"`
		}
		json.NewDecoder(r.Body).Decode(&in)
		if in.Name == "" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"validationErrors":{"name":"is required"}}`))
			return
		}
		w.Write([]byte(`{"data":{"id":"u1","email":"real@user.com","name":"` + in.Name + `"}}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestLogin(t *testing.T) {
	srv := fakeServer(t)
	c := New(srv.URL)

	resp, err := c.Login("real@user.com", "correct123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Token != validToken {
		t.Errorf("expected token %s, got %s", validToken, resp.Token)
	}
	if resp.User.DisplayName() != "Real User" {
		t.Errorf("expected name 'Real User', got '%s'", resp.User.DisplayName())
	}

	_, err = c.Login("real@user.com", "wrong-password")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized || apiErr.Message != "Invalid email or password" {
		t.Errorf("unexpected error: %+v", apiErr)
	}
}

func TestSession(t *testing.T) {
	srv := fakeServer(t)

	session, err := New(srv.URL).Session()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session != nil {
		t.Errorf("expected no session without a token, got %+v", session)
	}

	session, err = New(srv.URL).WithToken(validToken).Session()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session == nil || session.User.ID != "u1" {
		t.Errorf("expected session for u1, got %+v", session)
	}
}

func TestMe(t *testing.T) {
	srv := fakeServer(t)

	user, err := New(srv.URL).WithToken(validToken).Me()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.DisplayName() != "real@user.com" {
		t.Errorf("expected email as display name, got %s", user.DisplayName())
	}

	_, err = New(srv.URL).WithToken("expired").Me()
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	srv := fakeServer(t)
	c := New(srv.URL).WithToken(validToken)

	user, err := c.UpdateProfile("Renamed")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.DisplayName() != "Renamed" {
		t.Errorf("expected 'Renamed', got '%s'", user.DisplayName())
	}

	_, err = c.UpdateProfile("")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Message != "name is required" {
		t.Errorf("unexpected error: %+v", apiErr)
	}

	_, err = New(srv.URL).WithToken("expired").UpdateProfile("x")
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}

	_, err = New(srv.URL).UpdateProfile("x")
	if !errors.As(err, &apiErr) || apiErr.Message != "User not authenticated. Please sign in." {
		t.Errorf("expected unauthenticated action error, got %v", err)
	}
}
