package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gatehouse-dev/gatehouse/internal/auth/oauth"
	"github.com/gatehouse-dev/gatehouse/internal/config"
	"github.com/gatehouse-dev/gatehouse/internal/database"
	"github.com/gatehouse-dev/gatehouse/internal/logger"
	"github.com/gatehouse-dev/gatehouse/internal/pgstore"
	"github.com/gatehouse-dev/gatehouse/internal/server"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.Init(cfg.Logging.Level, cfg.Logging.Format)

	db, err := database.Open(cfg.Database.URL, logger.Component(log, "database"))
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Database.URL).Msg("Failed to open database")
	}

	opts := server.Options{Version: version}

	if cfg.Database.CredentialStoreURL != "" {
		credentials, err := pgstore.Open(context.Background(), cfg.Database.CredentialStoreURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to credential store")
		}
		defer credentials.Close()
		opts.Credentials = credentials
		log.Info().Msg("Credential sign-in served from external Postgres database")
	}

	var providers []oauth.Provider
	if cfg.Google.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		google, err := oauth.NewGoogle(ctx, cfg.Google.ClientID, cfg.Google.ClientSecret,
			cfg.Auth.BaseURL+"/api/auth/callback/google")
		cancel()
		if err != nil {
			log.Warn().Err(err).Msg("Google sign-in disabled")
		} else {
			providers = append(providers, google)
			log.Info().Msg("Google sign-in enabled")
		}
	}
	opts.Providers = oauth.NewRegistry(providers...)

	srv, err := server.New(cfg, log, db, opts)
	if err != nil {
		_ = database.Close(db)
		log.Fatal().Err(err).Msg("Failed to create server")
	}

	log.Info().Str("version", version).Msg("Starting Gatehouse server...")

	// Start HTTP server (this blocks)
	if err := srv.Start(); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
		os.Exit(1)
	}
}
