// Package server
//
// @title Gatehouse API
// @version 1.0
// @description Credential and OAuth sign-in with signed JWT sessions
// @host localhost:8080
// @BasePath /
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gobwas/glob"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/gatehouse-dev/gatehouse/internal/action"
	"github.com/gatehouse-dev/gatehouse/internal/auth"
	"github.com/gatehouse-dev/gatehouse/internal/auth/oauth"
	"github.com/gatehouse-dev/gatehouse/internal/config"
	"github.com/gatehouse-dev/gatehouse/internal/database"
	"github.com/gatehouse-dev/gatehouse/internal/logger"
	"github.com/gatehouse-dev/gatehouse/internal/models"
	"github.com/gatehouse-dev/gatehouse/internal/store"
)

// Server represents the HTTP server
type Server struct {
	router        *gin.Engine
	db            *gorm.DB
	config        *config.Config
	logger        zerolog.Logger
	users         *store.Store
	external      auth.UserDirectory
	authenticator *auth.Authenticator
	issuer        *auth.TokenIssuer
	providers     *oauth.Registry
	actions       *action.Client
	protected     []glob.Glob
	version       string
}

// Options carries the optional collaborators of a Server
type Options struct {
	// Credentials overrides where credential sign-ins look users up.
	// Defaults to the local database. Users found there are read-only.
	Credentials auth.UserDirectory

	// Providers lists the enabled OAuth providers. Defaults to none.
	Providers *oauth.Registry

	Version string
}

// New creates a new server instance on top of an open database handle.
// The server takes ownership of db and closes it on shutdown.
func New(cfg *config.Config, zlog zerolog.Logger, db *gorm.DB, opts Options) (*Server, error) {
	users := store.New(db)

	// Prefer the configured secret, fall back to one persisted in the database
	secret := cfg.Auth.Secret
	if secret == "" {
		generated, err := users.SessionSecret(context.Background())
		if err != nil {
			return nil, err
		}
		zlog.Info().Msg("AUTH_SECRET not set - using session secret stored in the database")
		secret = generated
	}

	issuer, err := auth.NewTokenIssuer(secret, cfg.Auth.SessionMaxAge)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session issuer: %w", err)
	}

	protected, err := compileRoutes(cfg.Auth.ProtectedRoutes)
	if err != nil {
		return nil, err
	}

	credentials := opts.Credentials
	if credentials == nil {
		credentials = users
	}

	providers := opts.Providers
	if providers == nil {
		providers = oauth.NewRegistry()
	}

	server := &Server{
		db:            db,
		config:        cfg,
		logger:        zlog,
		users:         users,
		external:      opts.Credentials,
		authenticator: auth.NewAuthenticator(credentials),
		issuer:        issuer,
		providers:     providers,
		actions:       action.NewClient(logger.Component(zlog, "action")),
		protected:     protected,
		version:       opts.Version,
	}

	server.setupRouter()

	return server, nil
}

// findUser resolves a session subject. Local users win, then the external
// credential store is asked.
func (s *Server) findUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindUserByID(ctx, id)
	if err == nil || s.external == nil || !errors.Is(err, store.ErrNotFound) {
		return user, err
	}
	return s.external.FindUserByID(ctx, id)
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Every request gets its session resolved; protected paths are gated after that
	s.router.Use(s.sessionMiddleware())
	s.router.Use(s.routeProtectionMiddleware())

	s.router.GET("/health", s.healthCheck)

	authRoutes := s.router.Group("/api/auth")
	{
		authRoutes.GET("/providers", s.listProviders)
		authRoutes.GET("/signin", s.signInOptions)
		authRoutes.GET("/signin/:provider", s.oauthSignIn)
		authRoutes.GET("/callback/:provider", s.oauthCallback)
		authRoutes.GET("/error", s.authError)
		authRoutes.POST("/callback/credentials", s.login)
		authRoutes.POST("/login", s.login)
		authRoutes.GET("/session", s.getSession)
		authRoutes.POST("/signout", s.signOut)

		authRoutes.GET("/me", s.requireSessionMiddleware(), s.getCurrentUser)
	}

	// Pages listed in PROTECTED_ROUTES are gated by routeProtectionMiddleware
	s.router.GET("/dashboard", s.dashboardPage)
	s.router.GET("/dashboard/*path", s.dashboardPage)
	s.router.GET("/profile", s.profilePage)

	protectedActions := s.actions.Protected()
	actions := s.router.Group("/api/actions")
	{
		actions.POST("/ping", handleAction(s.actions, "ping", s.pingAction))
		actions.POST("/me", handleAction(protectedActions, "me", s.meAction))
		actions.POST("/update-profile", handleAction(protectedActions, "update-profile", s.updateProfileAction))
	}
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

// @Router /health [get]
// @Success 200 {object} map[string]interface{}
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "gatehouse",
		"version":   s.version,
	})
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until SIGINT or SIGTERM
func (s *Server) Start() error {
	addr := ":" + s.config.Server.Port

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")
	case err := <-errChan:
		s.logger.Error().Err(err).Msg("HTTP server error")
		s.closeDatabase()
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		s.closeDatabase()
		return err
	}

	s.closeDatabase()
	s.logger.Info().Msg("Server shutdown complete")
	return nil
}

func (s *Server) closeDatabase() {
	if err := database.Close(s.db); err != nil {
		s.logger.Error().Err(err).Msg("Error closing database")
		return
	}
	s.logger.Info().Msg("Database closed successfully")
}
