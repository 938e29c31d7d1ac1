// Package action runs server-side operations behind a uniform error boundary.
//
// An action is a function that receives decoded, validated input and an
// execution Context. Clients compose middleware in front of actions; the
// Protected client requires a signed-in user. Every failure is logged. Only
// *ActionError messages reach the caller, everything else is replaced with
// DefaultServerErrorMessage.
package action

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/gatehouse-dev/gatehouse/internal/auth"
	"github.com/gatehouse-dev/gatehouse/internal/validate"
)

// DefaultServerErrorMessage is returned for every error that is not an *ActionError
const DefaultServerErrorMessage = "Something went wrong while executing the operation."

// UnauthenticatedMessage is returned when a protected action runs without a session
const UnauthenticatedMessage = "User not authenticated. Please sign in."

// ActionError is an expected failure whose message is safe to show to users
type ActionError struct {
	Message string
	Status  int // HTTP status, 0 = 400
}

// NewActionError creates an ActionError answered with 400 Bad Request
func NewActionError(message string) *ActionError {
	return &ActionError{Message: message}
}

func (e *ActionError) Error() string {
	return e.Message
}

// ErrUnauthenticated is raised by RequireSession
var ErrUnauthenticated = &ActionError{Message: UnauthenticatedMessage, Status: http.StatusUnauthorized}

// Context is passed from middleware to the action
type Context struct {
	User *auth.SessionUser
}

// Middleware runs before an action and may enrich or reject its Context
type Middleware func(ctx context.Context, actx Context) (Context, error)

// Func is the body of an action
type Func[In, Out any] func(ctx context.Context, actx Context, in In) (Out, error)

// Result is what the caller of an action sees
type Result[Out any] struct {
	Data             *Out              `json:"data,omitempty"`
	ServerError      string            `json:"serverError,omitempty"`
	ValidationErrors map[string]string `json:"validationErrors,omitempty"`

	Status int `json:"-"`
}

// OK reports whether the action succeeded
func (r Result[Out]) OK() bool {
	return r.ServerError == "" && r.ValidationErrors == nil
}

// Client executes actions through its middleware chain
type Client struct {
	log        zerolog.Logger
	validate   *validator.Validate
	middleware []Middleware
}

// NewClient creates a client with no middleware
func NewClient(log zerolog.Logger) *Client {
	return &Client{
		log:      log,
		validate: validate.New(),
	}
}

// Use returns a new client that runs mw after the receiver's middleware.
// The receiver is not modified.
func (c *Client) Use(mw Middleware) *Client {
	chain := make([]Middleware, 0, len(c.middleware)+1)
	chain = append(chain, c.middleware...)
	chain = append(chain, mw)

	return &Client{
		log:        c.log,
		validate:   c.validate,
		middleware: chain,
	}
}

// Protected returns a client whose actions require a signed-in user
func (c *Client) Protected() *Client {
	return c.Use(requireSessionMiddleware)
}

// RequireSession returns the signed-in user from ctx or ErrUnauthenticated
func RequireSession(ctx context.Context) (*auth.SessionUser, error) {
	session, ok := auth.SessionFromContext(ctx)
	if !ok || !session.Authenticated() {
		return nil, ErrUnauthenticated
	}
	return session.User, nil
}

func requireSessionMiddleware(ctx context.Context, actx Context) (Context, error) {
	user, err := RequireSession(ctx)
	if err != nil {
		return actx, err
	}
	actx.User = user
	return actx, nil
}

// HandleServerError logs err and returns the message the caller may see
func (c *Client) HandleServerError(name string, err error) string {
	c.log.Error().Err(err).Str("action", name).Msg("Unhandled action error")

	var actionErr *ActionError
	if errors.As(err, &actionErr) {
		return actionErr.Message
	}
	return DefaultServerErrorMessage
}

// Run executes the middleware chain, decodes raw JSON into In, validates it
// and then calls fn. Panics inside middleware or fn are reported as server errors.
func Run[In, Out any](ctx context.Context, c *Client, name string, raw []byte, fn Func[In, Out]) (result Result[Out]) {
	defer func() {
		if r := recover(); r != nil {
			result = failure[Out](c, name, fmt.Errorf("panic in action: %v", r))
		}
	}()

	actx := Context{}
	for _, mw := range c.middleware {
		var err error
		if actx, err = mw(ctx, actx); err != nil {
			return failure[Out](c, name, err)
		}
	}

	var in In
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &in); err != nil {
			return Result[Out]{
				ValidationErrors: map[string]string{"input": "must be a valid JSON object"},
				Status:           http.StatusBadRequest,
			}
		}
	}

	if isStruct(in) {
		if err := c.validate.Struct(in); err != nil {
			fields := validate.Fields(err)
			if fields == nil {
				return failure[Out](c, name, err)
			}
			return Result[Out]{ValidationErrors: fields, Status: http.StatusBadRequest}
		}
	}

	out, err := fn(ctx, actx, in)
	if err != nil {
		return failure[Out](c, name, err)
	}
	return Result[Out]{Data: &out, Status: http.StatusOK}
}

func failure[Out any](c *Client, name string, err error) Result[Out] {
	message := c.HandleServerError(name, err)

	status := http.StatusInternalServerError
	var actionErr *ActionError
	if errors.As(err, &actionErr) {
		status = actionErr.Status
		if status == 0 {
			status = http.StatusBadRequest
		}
	}
	return Result[Out]{ServerError: message, Status: status}
}

func isStruct(v any) bool {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}
	return rv.Kind() == reflect.Struct
}
