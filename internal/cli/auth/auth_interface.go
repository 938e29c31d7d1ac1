package auth

// TokenStore defines the interface for token storage operations.
// Tests swap in an in-memory implementation.
type TokenStore interface {
	SaveToken(serverURL, token string) error
	LoadToken(serverURL string) (string, error)
	DeleteToken(serverURL string) error
}

// keyringTokenStore implements TokenStore using the OS keyring
type keyringTokenStore struct{}

var Default TokenStore = &keyringTokenStore{}

func (k *keyringTokenStore) SaveToken(serverURL, token string) error {
	return SaveToken(serverURL, token)
}

func (k *keyringTokenStore) LoadToken(serverURL string) (string, error) {
	return LoadToken(serverURL)
}

func (k *keyringTokenStore) DeleteToken(serverURL string) error {
	return DeleteToken(serverURL)
}
