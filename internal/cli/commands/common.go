package commands

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/gatehouse-dev/gatehouse/internal/cli/auth"
	"github.com/gatehouse-dev/gatehouse/internal/cli/client"
	"github.com/gatehouse-dev/gatehouse/internal/cli/config"
	"github.com/gatehouse-dev/gatehouse/internal/cli/serverselect"
)

// env holds the collaborators commands talk to. Tests replace them.
type env struct {
	tokens     auth.TokenStore
	httpClient *http.Client
	out        io.Writer
}

func defaultEnv() *env {
	return &env{
		tokens: auth.Default,
		out:    os.Stdout,
	}
}

func (e *env) client(serverURL string) *client.Client {
	c := client.New(serverURL)
	if e.httpClient != nil {
		c.SetHTTPClient(e.httpClient)
	}
	return c
}

// authenticatedClient returns a client carrying the stored token for server
func (e *env) authenticatedClient(server *config.Server) (*client.Client, error) {
	token, err := e.tokens.LoadToken(server.URL)
	if err != nil {
		return nil, err
	}
	return e.client(server.URL).WithToken(token), nil
}

// getSelectedServer loads the config and returns the selected server.
// serverAlias may be empty.
func getSelectedServer(serverAlias string) (*config.Server, error) {
	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w\nRun 'gatehouse init' to create a configuration file", err)
	}

	server, err := serverselect.ResolveServer(cfg, serverAlias)
	if err != nil {
		return nil, err
	}

	if server.URL == "" {
		return nil, fmt.Errorf("server URL is empty. Please edit %s and add a valid URL", config.ConfigFileName)
	}

	return server, nil
}
