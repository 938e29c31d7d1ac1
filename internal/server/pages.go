package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Pages behind PROTECTED_ROUTES. They only render for signed-in users since
// routeProtectionMiddleware redirects everyone else to sign-in.

// @Summary Dashboard
// @Tags pages
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Success 302
// @Router /dashboard [get]
func (s *Server) dashboardPage(c *gin.Context) {
	session, ok := GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"page":    "dashboard",
		"path":    c.Request.URL.Path,
		"session": session,
	})
}

// @Summary Profile
// @Tags pages
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Success 302
// @Router /profile [get]
func (s *Server) profilePage(c *gin.Context) {
	session, ok := GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	user, err := s.findUser(c.Request.Context(), session.User.ID)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", session.User.ID).Msg("Session user not found")
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"page": "profile",
		"user": newUserDetail(user),
	})
}
