package main

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/gatehouse-dev/gatehouse/internal/admin"
	"github.com/gatehouse-dev/gatehouse/internal/config"
	"github.com/gatehouse-dev/gatehouse/internal/database"
	"github.com/gatehouse-dev/gatehouse/internal/logger"
	"github.com/gatehouse-dev/gatehouse/internal/store"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "gatehouse-admin",
		Short:         "Manage Gatehouse users in the local database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newCreateUserCmd(), newSetPasswordCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// withAdmin opens the configured database for the duration of fn
func withAdmin(fn func(ctx context.Context, a *admin.Admin) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.Init(cfg.Logging.Level, cfg.Logging.Format)

	db, err := database.Open(cfg.Database.URL, logger.Component(log, "database").Level(zerolog.WarnLevel))
	if err != nil {
		return err
	}
	defer database.Close(db)

	return fn(context.Background(), admin.New(store.New(db)))
}

func readPassword(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := os.Getenv("GATEHOUSE_PASSWORD"); env != "" {
		return env, nil
	}
	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", fmt.Errorf("password is required in non-interactive mode (use --password flag or GATEHOUSE_PASSWORD env var)")
	}

	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}

func newCreateUserCmd() *cobra.Command {
	var email, name, password string

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a user who signs in with email and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(password)
			if err != nil {
				return err
			}

			return withAdmin(func(ctx context.Context, a *admin.Admin) error {
				user, err := a.CreateUser(ctx, admin.NewUserInput{
					Email:    email,
					Name:     name,
					Password: password,
				})
				if err != nil {
					return err
				}
				fmt.Printf("✓ Created user %s (%s)\n", user.Email, user.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set GATEHOUSE_PASSWORD, will prompt if not provided)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newSetPasswordCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "set-password",
		Short: "Set or replace the password of an existing user",
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(password)
			if err != nil {
				return err
			}

			return withAdmin(func(ctx context.Context, a *admin.Admin) error {
				user, err := a.SetPassword(ctx, email, password)
				if err != nil {
					return err
				}
				fmt.Printf("✓ Password updated for %s\n", user.Email)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set GATEHOUSE_PASSWORD, will prompt if not provided)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}
