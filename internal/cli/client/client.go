package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrUnauthorized is returned when the server rejects the stored session
var ErrUnauthorized = errors.New("session expired or invalid. Please run 'gatehouse login' again")

// Client represents an HTTP client for the Gatehouse API
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a new API client for the server at baseURL
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetHTTPClient sets a custom HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// WithToken returns a copy of the client that sends token as a bearer credential
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.token = token
	return &clone
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// User is the user record returned by the server
type User struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Name          *string    `json:"name"`
	Image         *string    `json:"image"`
	EmailVerified *time.Time `json:"emailVerified"`
	CreatedAt     time.Time  `json:"created_at"`
}

// DisplayName returns the user's name or their email
func (u *User) DisplayName() string {
	if u.Name != nil && *u.Name != "" {
		return *u.Name
	}
	return u.Email
}

// LoginResponse represents the login response
type LoginResponse struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
	User    User      `json:"user"`
}

// Session is the session view returned by /api/auth/session
type Session struct {
	User *struct {
		ID    string `json:"id"`
		Name  string `json:"name,omitempty"`
		Email string `json:"email,omitempty"`
		Image string `json:"image,omitempty"`
	} `json:"user,omitempty"`
	Expires time.Time `json:"expires"`
}

// APIError is a non-2xx response
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request failed (status %d): %s", e.StatusCode, e.Message)
}

// Login authenticates the user and returns a session token
func (c *Client) Login(email, password string) (*LoginResponse, error) {
	var loginResp LoginResponse
	if err := c.do(http.MethodPost, "/api/auth/callback/credentials", LoginRequest{
		Email:    email,
		Password: password,
	}, &loginResp); err != nil {
		return nil, err
	}
	return &loginResp, nil
}

// Session returns the server's view of the current token, nil when signed out
func (c *Client) Session() (*Session, error) {
	var session Session
	if err := c.do(http.MethodGet, "/api/auth/session", nil, &session); err != nil {
		return nil, err
	}
	if session.User == nil || session.User.ID == "" {
		return nil, nil
	}
	return &session, nil
}

// Me returns the stored record of the signed-in user
func (c *Client) Me() (*User, error) {
	var user User
	if err := c.do(http.MethodGet, "/api/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SignOut ends the session on the server
func (c *Client) SignOut() error {
	return c.do(http.MethodPost, "/api/auth/signout", nil, nil)
}

type actionResult[Out any] struct {
	Data             *Out              `json:"data"`
	ServerError      string            `json:"serverError"`
	ValidationErrors map[string]string `json:"validationErrors"`
}

// UpdateProfile runs the update-profile action
func (c *Client) UpdateProfile(name string) (*User, error) {
	return runAction[User](c, "update-profile", map[string]string{"name": name})
}

// runAction posts input to an action endpoint. Action failures are returned
// as *APIError carrying the server's message.
func runAction[Out any](c *Client, name string, input any) (*Out, error) {
	var result actionResult[Out]
	err := c.do(http.MethodPost, "/api/actions/"+name, input, &result)

	var apiErr *APIError
	if err != nil && !errors.As(err, &apiErr) {
		return nil, err
	}

	switch {
	case result.ServerError != "":
		return nil, &APIError{StatusCode: statusOf(apiErr), Message: result.ServerError}
	case len(result.ValidationErrors) > 0:
		return nil, &APIError{StatusCode: statusOf(apiErr), Message: formatFields(result.ValidationErrors)}
	case err != nil:
		return nil, err
	case result.Data == nil:
		return nil, fmt.Errorf("action %s returned no data", name)
	}
	return result.Data, nil
}

func statusOf(err *APIError) int {
	if err == nil {
		return http.StatusOK
	}
	return err.StatusCode
}

func formatFields(fields map[string]string) string {
	var buf bytes.Buffer
	for field, msg := range fields {
		if buf.Len() > 0 {
			buf.WriteString("; ")
		}
		fmt.Fprintf(&buf, "%s %s", field, msg)
	}
	return buf.String()
}

// do sends a JSON request. Non-2xx responses become *APIError, except 401
// on authenticated requests which becomes ErrUnauthorized. The body is still
// decoded into out when present, so callers can read structured errors.
func (c *Client) do(method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		jsonData, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if out != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil && resp.StatusCode < 300 {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	if resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusUnauthorized && c.token != "" {
			return ErrUnauthorized
		}
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(respBody)}
	}
	return nil
}

func errorMessage(body []byte) string {
	var payload struct {
		Error       string `json:"error"`
		ServerError string `json:"serverError"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.ServerError != "" {
			return payload.ServerError
		}
	}
	return string(bytes.TrimSpace(body))
}
