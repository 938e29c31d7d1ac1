package server

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gatehouse-dev/gatehouse/internal/auth"
	"github.com/gatehouse-dev/gatehouse/internal/models"
)

const (
	credentialsProvider = "credentials"
	maxLoginBodyBytes   = 1 << 16
)

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	Token   string      `json:"token"`
	Expires time.Time   `json:"expires"`
	User    *UserDetail `json:"user"`
}

// UserDetail represents user information returned in responses
type UserDetail struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Name          *string    `json:"name"`
	Image         *string    `json:"image"`
	EmailVerified *time.Time `json:"emailVerified"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ProviderInfo describes a sign-in method
type ProviderInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	SignInURL   string `json:"signinUrl"`
	CallbackURL string `json:"callbackUrl"`
}

func newUserDetail(user *models.User) *UserDetail {
	return &UserDetail{
		ID:            user.ID,
		Email:         user.Email,
		Name:          user.Name,
		Image:         user.Image,
		EmailVerified: user.EmailVerified,
		CreatedAt:     user.CreatedAt,
	}
}

// @Summary Sign in with email and password
// @Description Verifies credentials and starts a session. Also served at /api/auth/login.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/auth/callback/credentials [post]
func (s *Server) login(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxLoginBodyBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	user, err := s.authenticator.Authenticate(c.Request.Context(), raw)
	if err != nil {
		var invalid *auth.InvalidInputError
		switch {
		case errors.As(err, &invalid):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "fields": invalid.Fields})
		case errors.Is(err, auth.ErrAuthenticationDenied):
			s.logger.Info().Msg("Credential sign-in denied")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		default:
			s.logger.Error().Err(err).Msg("Credential sign-in failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	token, claims, err := s.issuer.Issue(user)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to issue session token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	s.setSessionCookie(c, token)
	s.logger.Info().Str("user_id", user.ID).Str("provider", credentialsProvider).Msg("User signed in")

	c.JSON(http.StatusOK, LoginResponse{
		Token:   token,
		Expires: claims.ExpiresAt.UTC(),
		User:    newUserDetail(user),
	})
}

// @Summary Get the current session
// @Description Returns the session derived from the request token, or an empty object
// @Tags auth
// @Produce json
// @Success 200 {object} auth.Session
// @Router /api/auth/session [get]
func (s *Server) getSession(c *gin.Context) {
	session, ok := GetSession(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, session)
}

// @Summary Sign out
// @Tags auth
// @Success 200 {object} map[string]interface{}
// @Router /api/auth/signout [post]
func (s *Server) signOut(c *gin.Context) {
	if session, ok := GetSession(c); ok {
		s.logger.Info().Str("user_id", session.User.ID).Msg("User signed out")
	}
	s.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

// @Summary Get current user
// @Description Returns the stored record of the signed-in user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserDetail
// @Failure 401 {object} map[string]interface{}
// @Router /api/auth/me [get]
func (s *Server) getCurrentUser(c *gin.Context) {
	session, _ := GetSession(c)

	user, err := s.findUser(c.Request.Context(), session.User.ID)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", session.User.ID).Msg("Session user not found")
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, newUserDetail(user))
}

func (s *Server) providerInfos() []ProviderInfo {
	base := s.config.Auth.BaseURL
	infos := []ProviderInfo{{
		ID:          credentialsProvider,
		Name:        "Email and password",
		Type:        credentialsProvider,
		SignInURL:   base + "/api/auth/callback/credentials",
		CallbackURL: base + "/api/auth/callback/credentials",
	}}

	for _, p := range s.providers.All() {
		infos = append(infos, ProviderInfo{
			ID:          p.Name(),
			Name:        p.DisplayName(),
			Type:        "oauth",
			SignInURL:   base + "/api/auth/signin/" + p.Name(),
			CallbackURL: base + "/api/auth/callback/" + p.Name(),
		})
	}
	return infos
}

// @Summary List sign-in providers
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]ProviderInfo
// @Router /api/auth/providers [get]
func (s *Server) listProviders(c *gin.Context) {
	providers := make(map[string]ProviderInfo)
	for _, p := range s.providerInfos() {
		providers[p.ID] = p
	}
	c.JSON(http.StatusOK, providers)
}

// @Summary Sign-in options
// @Description Lists the available sign-in methods together with the page to return to
// @Tags auth
// @Produce json
// @Param callbackUrl query string false "Where to go after signing in"
// @Success 200 {object} map[string]interface{}
// @Router /api/auth/signin [get]
func (s *Server) signInOptions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"providers":   s.providerInfos(),
		"callbackUrl": safeCallbackURL(c.Query("callbackUrl")),
	})
}
