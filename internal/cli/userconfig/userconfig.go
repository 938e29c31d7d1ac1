// Package userconfig keeps per-user CLI state that does not belong in a
// project's gatehouse.json: which server is selected and the last email used
// to sign in to each server.
package userconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DirEnv overrides the directory holding the user config file
	DirEnv = "GATEHOUSE_CONFIG_DIR"

	configDirName  = "gatehouse"
	configFileName = "config.json"
)

// UserConfig is the content of the user config file
type UserConfig struct {
	SelectedServerURL string            `json:"selected_server_url"`
	LastEmails        map[string]string `json:"last_emails,omitempty"`
}

// Path returns where the user config lives. GATEHOUSE_CONFIG_DIR wins,
// otherwise it sits under the OS user config directory.
func Path() (string, error) {
	if dir := os.Getenv(DirEnv); dir != "" {
		return filepath.Join(dir, configFileName), nil
	}

	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return filepath.Join(base, configDirName, configFileName), nil
}

// Load reads the user config. A missing file is an empty config.
func Load() (*UserConfig, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &UserConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user config %s: %w", path, err)
	}

	var cfg UserConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse user config %s: %w", path, err)
	}
	return &cfg, nil
}

// Save replaces the user config file. The write goes through a temp file so
// a crash never leaves half a file behind.
func Save(cfg *UserConfig) error {
	path, err := Path()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal user config: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write user config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace user config: %w", err)
	}
	return nil
}

func update(fn func(cfg *UserConfig)) error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	fn(cfg)
	return Save(cfg)
}

// SetSelectedServer selects the server used when no --server flag is given.
// An empty URL clears the selection.
func SetSelectedServer(serverURL string) error {
	return update(func(cfg *UserConfig) { cfg.SelectedServerURL = serverURL })
}

// GetSelectedServer returns the selected server URL, or "" if none
func GetSelectedServer() (string, error) {
	cfg, err := Load()
	if err != nil {
		return "", err
	}
	return cfg.SelectedServerURL, nil
}

// RememberEmail records the email that last signed in to serverURL
func RememberEmail(serverURL, email string) error {
	return update(func(cfg *UserConfig) {
		if cfg.LastEmails == nil {
			cfg.LastEmails = map[string]string{}
		}
		cfg.LastEmails[serverURL] = email
	})
}

// LastEmail returns the email that last signed in to serverURL, or ""
func LastEmail(serverURL string) string {
	cfg, err := Load()
	if err != nil {
		return ""
	}
	return cfg.LastEmails[serverURL]
}
