package credential

import "context"

// EnvSource reads the key from an environment variable.
type EnvSource struct {
	name   string
	lookup func(string) (string, bool)
}

// Compile-time check that EnvSource implements Store so it can be selected
// like any other backend; Write always fails.
var _ Store = (*EnvSource)(nil)

// NewEnvSource creates a source for the variable name, resolved via lookup
// (typically os.LookupEnv).
func NewEnvSource(name string, lookup func(string) (string, bool)) *EnvSource {
	return &EnvSource{name: name, lookup: lookup}
}

// Read returns the value of the variable as is, or "" when unset. Any non-empty
// value counts as configured, including whitespace.
func (s *EnvSource) Read(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	value, _ := s.lookup(s.name)
	return value, nil
}

// Write always returns ErrReadOnly.
func (s *EnvSource) Write(context.Context, string) error {
	return ErrReadOnly
}
