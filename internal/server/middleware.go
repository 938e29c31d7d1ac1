package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gobwas/glob"

	"github.com/gatehouse-dev/gatehouse/internal/action"
	"github.com/gatehouse-dev/gatehouse/internal/auth"
)

const (
	bearerPrefix      = "Bearer "
	sessionCookieName = "gatehouse.session-token"
	securePrefix      = "__Secure-"
	signInPath        = "/api/auth/signin"
)

var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthFormat = errors.New("invalid authorization header format")
	ErrEmptyToken        = errors.New("empty token")
)

func setSession(c *gin.Context, session *auth.Session) {
	c.Set("session", session)
	c.Request = c.Request.WithContext(auth.WithSession(c.Request.Context(), session))
}

// GetSession returns the session resolved for this request, if any
func GetSession(c *gin.Context) (*auth.Session, bool) {
	value, exists := c.Get("session")
	if !exists {
		return nil, false
	}

	session, ok := value.(*auth.Session)
	return session, ok && session.Authenticated()
}

func extractBearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrMissingAuthHeader
	}

	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", ErrInvalidAuthFormat
	}

	token := strings.TrimPrefix(authHeader, bearerPrefix)
	if token == "" {
		return "", ErrEmptyToken
	}

	return token, nil
}

func (s *Server) cookieName() string {
	if s.config.Auth.SecureCookies {
		return securePrefix + sessionCookieName
	}
	return sessionCookieName
}

func (s *Server) setSessionCookie(c *gin.Context, token string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     s.cookieName(),
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.config.Auth.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.issuer.MaxAge().Seconds()),
	})
}

func (s *Server) clearSessionCookie(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     s.cookieName(),
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.config.Auth.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// sessionMiddleware resolves the session from the session cookie or, for API
// clients, from an Authorization bearer token. A rejected cookie is cleared
// and the bearer token is tried next. Requests without a valid token continue
// anonymously.
func (s *Server) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if cookie, err := c.Request.Cookie(s.cookieName()); err == nil && cookie.Value != "" {
			session, err := s.issuer.Session(cookie.Value)
			if err == nil {
				setSession(c, session)
				c.Next()
				return
			}
			s.logger.Debug().Err(err).Msg("Rejected session cookie")
			s.clearSessionCookie(c)
		}

		bearer, err := extractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			if !errors.Is(err, ErrMissingAuthHeader) {
				s.logger.Debug().Err(err).Msg("Ignoring malformed authorization header")
			}
			c.Next()
			return
		}

		session, err := s.issuer.Session(bearer)
		if err != nil {
			s.logger.Debug().Err(err).Msg("Rejected bearer token")
			c.Next()
			return
		}

		setSession(c, session)
		c.Next()
	}
}

// routeProtectionMiddleware sends anonymous requests for protected paths to
// the sign-in page, remembering where they were going.
func (s *Server) routeProtectionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.isProtected(c.Request.URL.Path) {
			c.Next()
			return
		}

		if _, ok := GetSession(c); ok {
			c.Next()
			return
		}

		target := signInPath + "?callbackUrl=" + url.QueryEscape(c.Request.URL.RequestURI())
		c.Redirect(http.StatusFound, target)
		c.Abort()
	}
}

// requireSessionMiddleware rejects API requests without a session
func (s *Server) requireSessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetSession(c); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": action.UnauthenticatedMessage})
			c.Abort()
			return
		}
		c.Next()
	}
}

func (s *Server) isProtected(path string) bool {
	for _, g := range s.protected {
		if g.Match(path) {
			return true
		}
	}
	return false
}

// compileRoutes compiles route patterns where "*" matches one path segment
// and "**" matches any number of segments.
func compileRoutes(patterns []string) ([]glob.Glob, error) {
	compiled := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid protected route %q: %w", pattern, err)
		}
		compiled = append(compiled, g)
	}
	return compiled, nil
}
