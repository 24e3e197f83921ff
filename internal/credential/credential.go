package credential

import (
	"context"
	"errors"
)

// ErrReadOnly is returned when writing to a source that cannot be modified.
var ErrReadOnly = errors.New("credential source is read-only")

// Source provides the API key.
type Source interface {
	// Read returns the stored key, or "" if none is configured.
	Read(ctx context.Context) (string, error)
}

// Store is a Source that can also persist the key.
type Store interface {
	Source
	// Write persists key. An empty key clears any stored value.
	Write(ctx context.Context, key string) error
}
