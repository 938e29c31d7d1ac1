package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gatehouse-dev/gatehouse/internal/cli/auth"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoami(defaultEnv(), server)
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "Server URL or alias (defaults to the selected server)")

	return cmd
}

func runWhoami(e *env, serverAlias string) error {
	server, err := getSelectedServer(serverAlias)
	if err != nil {
		return err
	}

	c, err := e.authenticatedClient(server)
	if err != nil {
		if errors.Is(err, auth.ErrNotAuthenticated) {
			fmt.Fprintf(e.out, "Not signed in to %s\n", server.Alias)
			return nil
		}
		return err
	}

	session, err := c.Session()
	if err != nil {
		return err
	}
	if session == nil {
		fmt.Fprintf(e.out, "Session for %s has expired. Run 'gatehouse login' to sign in again.\n", server.Alias)
		return nil
	}

	user, err := c.Me()
	if err != nil {
		return err
	}

	fmt.Fprintf(e.out, "%s (%s)\n", user.DisplayName(), user.Email)
	fmt.Fprintf(e.out, "  ID:      %s\n", user.ID)
	fmt.Fprintf(e.out, "  Server:  %s (%s)\n", server.Alias, server.URL)
	fmt.Fprintf(e.out, "  Expires: %s\n", session.Expires.Local().Format("2006-01-02 15:04"))
	return nil
}

// NewUpdateProfileCmd creates the update-profile command
func NewUpdateProfileCmd() *cobra.Command {
	var server, name string

	cmd := &cobra.Command{
		Use:   "update-profile",
		Short: "Change the display name of the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdateProfile(defaultEnv(), server, name)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New display name")
	cmd.Flags().StringVar(&server, "server", "", "Server URL or alias (defaults to the selected server)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func runUpdateProfile(e *env, serverAlias, name string) error {
	server, err := getSelectedServer(serverAlias)
	if err != nil {
		return err
	}

	c, err := e.authenticatedClient(server)
	if err != nil {
		return err
	}

	user, err := c.UpdateProfile(name)
	if err != nil {
		return fmt.Errorf("update failed: %w", err)
	}

	fmt.Fprintf(e.out, "✓ Display name set to %s\n", user.DisplayName())
	return nil
}
