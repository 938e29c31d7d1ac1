package server

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gatehouse-dev/gatehouse/internal/auth/oauth"
	"github.com/gatehouse-dev/gatehouse/internal/store"
)

// Error codes passed to /api/auth/error
const (
	errorCodeConfiguration    = "Configuration"
	errorCodeOAuthCallback    = "OAuthCallback"
	errorCodeAccountNotLinked = "OAuthAccountNotLinked"
	errorCodeAccessDenied     = "AccessDenied"
)

var authErrorMessages = map[string]string{
	errorCodeConfiguration:    "There is a problem with the server configuration.",
	errorCodeOAuthCallback:    "Sign in with the provider failed. Please try again.",
	errorCodeAccountNotLinked: "This email is already registered. Sign in with the method you used originally.",
	errorCodeAccessDenied:     "You do not have permission to sign in.",
}

// safeCallbackURL only allows same-origin relative paths
func safeCallbackURL(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.Contains(raw, `\`) {
		return "/"
	}
	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() || u.Host != "" {
		return "/"
	}
	return raw
}

func (s *Server) redirectToAuthError(c *gin.Context, code string) {
	c.Redirect(http.StatusFound, "/api/auth/error?error="+url.QueryEscape(code))
}

// @Summary Start an OAuth sign-in
// @Tags auth
// @Param provider path string true "Provider name"
// @Param callbackUrl query string false "Where to go after signing in"
// @Success 302
// @Failure 404 {object} map[string]interface{}
// @Router /api/auth/signin/{provider} [get]
func (s *Server) oauthSignIn(c *gin.Context) {
	provider, ok := s.providers.Get(c.Param("provider"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown sign-in provider"})
		return
	}

	flow, err := oauth.NewFlow(safeCallbackURL(c.Query("callbackUrl")))
	if err != nil {
		s.logger.Error().Err(err).Str("provider", provider.Name()).Msg("Failed to start oauth flow")
		s.redirectToAuthError(c, errorCodeConfiguration)
		return
	}

	flow.SetCookies(c.Writer, s.config.Auth.SecureCookies)
	c.Redirect(http.StatusFound, provider.AuthCodeURL(flow.State, flow.CodeChallenge))
}

// @Summary Complete an OAuth sign-in
// @Tags auth
// @Param provider path string true "Provider name"
// @Param code query string true "Authorization code"
// @Param state query string true "State issued at sign-in"
// @Success 302
// @Router /api/auth/callback/{provider} [get]
func (s *Server) oauthCallback(c *gin.Context) {
	provider, ok := s.providers.Get(c.Param("provider"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown sign-in provider"})
		return
	}
	log := s.logger.With().Str("provider", provider.Name()).Logger()

	flow, ok := oauth.ReadFlow(c.Request)
	oauth.ClearCookies(c.Writer, s.config.Auth.SecureCookies)
	if !ok {
		log.Warn().Msg("OAuth callback with missing or mismatched state")
		s.redirectToAuthError(c, errorCodeOAuthCallback)
		return
	}

	if providerErr := c.Query("error"); providerErr != "" {
		log.Info().Str("error", providerErr).Msg("Provider declined sign-in")
		s.redirectToAuthError(c, errorCodeAccessDenied)
		return
	}

	code := c.Query("code")
	if code == "" {
		s.redirectToAuthError(c, errorCodeOAuthCallback)
		return
	}

	identity, err := provider.Exchange(c.Request.Context(), code, flow.CodeVerifier)
	if err != nil {
		log.Error().Err(err).Msg("OAuth code exchange failed")
		s.redirectToAuthError(c, errorCodeOAuthCallback)
		return
	}

	user, err := s.users.UpsertOAuthUser(c.Request.Context(), store.OAuthProfile{
		Provider:          identity.Provider,
		ProviderAccountID: identity.ProviderUserID,
		Email:             identity.Email,
		EmailVerified:     identity.EmailVerified,
		Name:              identity.Name,
		Image:             identity.Picture,
	})
	if err != nil {
		if errors.Is(err, store.ErrAccountNotLinked) {
			log.Info().Str("email", identity.Email).Msg("OAuth email belongs to an unlinked user")
			s.redirectToAuthError(c, errorCodeAccountNotLinked)
			return
		}
		log.Error().Err(err).Msg("Failed to store oauth user")
		s.redirectToAuthError(c, errorCodeOAuthCallback)
		return
	}

	token, _, err := s.issuer.Issue(user)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to issue session token")
		s.redirectToAuthError(c, errorCodeConfiguration)
		return
	}

	s.setSessionCookie(c, token)
	log.Info().Str("user_id", user.ID).Msg("User signed in")
	c.Redirect(http.StatusFound, safeCallbackURL(flow.CallbackURL))
}

// @Summary Describe a sign-in error
// @Tags auth
// @Param error query string false "Error code"
// @Success 400 {object} map[string]interface{}
// @Router /api/auth/error [get]
func (s *Server) authError(c *gin.Context) {
	code := c.Query("error")
	message, ok := authErrorMessages[code]
	if !ok {
		code = errorCodeConfiguration
		message = authErrorMessages[code]
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": code, "message": message})
}
