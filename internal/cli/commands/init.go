package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gatehouse-dev/gatehouse/internal/cli/config"
)

type initOptions struct {
	alias string
	out   io.Writer
}

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	opts := &initOptions{out: os.Stdout}

	cmd := &cobra.Command{
		Use:   "init <server-url>",
		Short: "Add a Gatehouse server to ./gatehouse.json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInitWithOptions(args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.alias, "alias", "", "Alias for the server (defaults to server-N)")

	return cmd
}

func runInitWithOptions(args []string, opts *initOptions) error {
	serverURL, err := config.NormalizeURL(args[0])
	if err != nil {
		return err
	}

	currentDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	configPath := filepath.Join(currentDir, config.ConfigFileName)

	cfg := &config.Config{Servers: []config.Server{}}
	isNewConfig := true

	if _, err := os.Stat(configPath); err == nil {
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load existing config: %w", err)
		}
		isNewConfig = false
		fmt.Fprintf(opts.out, "Found existing %s\n", config.ConfigFileName)
	}

	if !cfg.AddServer(serverURL, opts.alias) {
		fmt.Fprintf(opts.out, "Server %s already exists in %s\n", serverURL, config.ConfigFileName)
		return nil
	}

	if err := config.Save(configPath, cfg); err != nil {
		return err
	}

	added := cfg.Servers[len(cfg.Servers)-1]
	if isNewConfig {
		fmt.Fprintf(opts.out, "✓ Created ./%s with server %s (%s)\n", config.ConfigFileName, added.URL, added.Alias)
	} else {
		fmt.Fprintf(opts.out, "✓ Added server %s (%s) to ./%s\n", added.URL, added.Alias, config.ConfigFileName)
	}

	fmt.Fprintln(opts.out, "\nNext step:")
	fmt.Fprintln(opts.out, "  Run 'gatehouse login' to sign in")

	return nil
}
