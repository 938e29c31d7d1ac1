package commands

import (
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/gatehouse-dev/gatehouse/internal/cli/userconfig"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var email, password, server string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to a Gatehouse server with email and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(defaultEnv(), server, email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set GATEHOUSE_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set GATEHOUSE_PASSWORD, will prompt if not provided)")
	cmd.Flags().StringVar(&server, "server", "", "Server URL or alias (defaults to the selected server)")

	return cmd
}

func runLogin(e *env, serverAlias, email, password string) error {
	// Environment variables are useful for CI/CD
	if email == "" {
		email = os.Getenv("GATEHOUSE_EMAIL")
	}
	if password == "" {
		password = os.Getenv("GATEHOUSE_PASSWORD")
	}

	server, err := getSelectedServer(serverAlias)
	if err != nil {
		return err
	}

	if email == "" {
		email = userconfig.LastEmail(server.URL)
	}
	if email == "" {
		return fmt.Errorf("email is required (use --email flag or GATEHOUSE_EMAIL env var)")
	}

	if password == "" {
		if !term.IsTerminal(int(syscall.Stdin)) {
			return fmt.Errorf("password is required in non-interactive mode (use --password flag or GATEHOUSE_PASSWORD env var)")
		}
		fmt.Fprint(e.out, "Password: ")
		bytePassword, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = string(bytePassword)
		fmt.Fprintln(e.out)
	}

	fmt.Fprintf(e.out, "Signing in to %s (%s)...\n", server.Alias, server.URL)

	loginResp, err := e.client(server.URL).Login(email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	if err := e.tokens.SaveToken(server.URL, loginResp.Token); err != nil {
		return fmt.Errorf("failed to save session token: %w", err)
	}

	if err := userconfig.RememberEmail(server.URL, email); err != nil {
		fmt.Fprintf(e.out, "Warning: could not remember email: %v\n", err)
	}

	fmt.Fprintln(e.out, "✓ Login successful!")
	fmt.Fprintf(e.out, "  User: %s (%s)\n", loginResp.User.DisplayName(), loginResp.User.Email)
	if !loginResp.Expires.IsZero() {
		fmt.Fprintf(e.out, "  Session expires: %s\n", loginResp.Expires.Local().Format("2006-01-02 15:04"))
	}

	return nil
}

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(defaultEnv(), server)
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "Server URL or alias (defaults to the selected server)")

	return cmd
}

func runLogout(e *env, serverAlias string) error {
	server, err := getSelectedServer(serverAlias)
	if err != nil {
		return err
	}

	// Session tokens are stateless, so signing out on the server only clears
	// cookies. Forgetting the token locally is what ends the CLI session.
	if c, err := e.authenticatedClient(server); err == nil {
		_ = c.SignOut()
	}

	if err := e.tokens.DeleteToken(server.URL); err != nil {
		return err
	}

	fmt.Fprintf(e.out, "✓ Signed out of %s\n", server.Alias)
	return nil
}
