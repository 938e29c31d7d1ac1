package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gatehouse-dev/gatehouse/internal/action"
	"github.com/gatehouse-dev/gatehouse/internal/auth"
	"github.com/gatehouse-dev/gatehouse/internal/store"
)

const (
	maxActionBodyBytes = 1 << 20

	externalProfileMessage = "This profile is managed by the external credential store and cannot be changed here"
)

// handleAction exposes an action as a POST endpoint. The JSON body is the
// action input and the response is always an action.Result.
func handleAction[In, Out any](client *action.Client, name string, fn action.Func[In, Out]) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxActionBodyBytes))
		if err != nil {
			c.JSON(http.StatusBadRequest, action.Result[Out]{
				ValidationErrors: map[string]string{"input": "could not read request body"},
			})
			return
		}

		result := action.Run(c.Request.Context(), client, name, raw, fn)
		c.JSON(result.Status, result)
	}
}

// PingOutput is returned by the ping action
type PingOutput struct {
	Message       string    `json:"message"`
	Time          time.Time `json:"time"`
	Authenticated bool      `json:"authenticated"`
}

func (s *Server) pingAction(ctx context.Context, _ action.Context, _ struct{}) (PingOutput, error) {
	session, ok := auth.SessionFromContext(ctx)
	return PingOutput{
		Message:       "pong",
		Time:          time.Now().UTC(),
		Authenticated: ok && session.Authenticated(),
	}, nil
}

func (s *Server) meAction(_ context.Context, actx action.Context, _ struct{}) (auth.SessionUser, error) {
	return *actx.User, nil
}

// UpdateProfileInput is the input of the update-profile action
type UpdateProfileInput struct {
	Name string `json:"name" validate:"required,min=1,max=120"`
}

func (s *Server) updateProfileAction(ctx context.Context, actx action.Context, in UpdateProfileInput) (*UserDetail, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, action.NewActionError("Name cannot be blank")
	}

	user, err := s.users.UpdateName(ctx, actx.User.ID, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			if s.external != nil {
				if _, extErr := s.external.FindUserByID(ctx, actx.User.ID); extErr == nil {
					return nil, &action.ActionError{Message: externalProfileMessage, Status: http.StatusForbidden}
				}
			}
			return nil, &action.ActionError{Message: "User not found", Status: http.StatusNotFound}
		}
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID).Msg("Profile updated")
	return newUserDetail(user), nil
}
