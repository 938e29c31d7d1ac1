// Package oauth adapts external sign-in providers. Providers only return
// identity facts; user creation, account linking and session issuance happen
// in the caller.
package oauth

import (
	"context"
	"sort"
)

// Identity is the normalized profile returned by a provider
type Identity struct {
	Provider       string
	ProviderUserID string
	Email          string
	EmailVerified  bool
	Name           string
	Picture        string
}

// Provider is implemented by every external sign-in provider
type Provider interface {
	// Name returns the provider identifier used in URLs (e.g. "google")
	Name() string

	// DisplayName is shown on sign-in pages
	DisplayName() string

	// AuthCodeURL returns the authorization URL for the given state and PKCE challenge
	AuthCodeURL(state, codeChallenge string) string

	// Exchange trades the authorization code for a verified identity
	Exchange(ctx context.Context, code, codeVerifier string) (*Identity, error)
}

// Registry holds the configured providers by name
type Registry struct {
	providers map[string]Provider
}

// NewRegistry creates a registry from the given providers
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

// Get returns the provider with the given name
func (r *Registry) Get(name string) (Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

// All returns the providers sorted by name
func (r *Registry) All() []Provider {
	out := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}
