package credential

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// Default keyring coordinates.
const (
	DefaultKeyringService = "prompt-relay"
	DefaultKeyringUser    = "gemini"
)

// KeyringStore keeps the key in the OS keyring.
type KeyringStore struct {
	service string
	user    string
}

var _ Store = (*KeyringStore)(nil)

// NewKeyringStore creates a store for the given keyring service and user.
func NewKeyringStore(service, user string) *KeyringStore {
	return &KeyringStore{service: service, user: user}
}

// Read returns the stored key, or "" if no entry exists.
func (s *KeyringStore) Read(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	secret, err := keyring.Get(s.service, s.user)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading keyring entry %s/%s: %w", s.service, s.user, err)
	}

	return secret, nil
}

// Write stores key in the keyring. An empty key deletes the entry.
func (s *KeyringStore) Write(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if key == "" {
		err := keyring.Delete(s.service, s.user)
		if err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("deleting keyring entry %s/%s: %w", s.service, s.user, err)
		}
		return nil
	}

	if err := keyring.Set(s.service, s.user, key); err != nil {
		return fmt.Errorf("writing keyring entry %s/%s: %w", s.service, s.user, err)
	}

	return nil
}
