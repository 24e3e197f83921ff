package app

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/florianilch/prompt-relay/internal/credential"
	"github.com/florianilch/prompt-relay/internal/relay"
)

// EnvPrefix is the prefix of environment variables overriding config keys.
// Nested keys use a double underscore: RELAY_UPSTREAM__MODEL sets upstream.model.
const EnvPrefix = "RELAY_"

// CredentialStorageType selects where the Gemini API key is read from.
type CredentialStorageType string

const (
	CredentialStorageTypeEnv     CredentialStorageType = "env"
	CredentialStorageTypeFile    CredentialStorageType = "file"
	CredentialStorageTypeKeyring CredentialStorageType = "keyring"
)

// Config is the complete application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Upstream UpstreamConfig `koanf:"upstream"`
	Auth     AuthConfig     `koanf:"auth"`
	Log      LogConfig      `koanf:"log"`
}

// ServerConfig configures the local HTTP server.
type ServerConfig struct {
	Host string `koanf:"host" validate:"required"`
	Port int    `koanf:"port" validate:"min=0,max=65535"`
}

// Addr returns host:port.
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// UpstreamConfig configures the Gemini endpoint.
type UpstreamConfig struct {
	BaseURL string        `koanf:"base_url" validate:"required,url"`
	Model   string        `koanf:"model" validate:"required"`
	Timeout time.Duration `koanf:"timeout" validate:"min=0"`
}

// AuthConfig configures where the API key is stored.
type AuthConfig struct {
	Storage        CredentialStorageType `koanf:"storage" validate:"oneof=env file keyring"`
	EnvVar         string                `koanf:"env_var" validate:"required_if=Storage env"`
	File           string                `koanf:"file" validate:"required_if=Storage file"`
	KeyringService string                `koanf:"keyring_service" validate:"required_if=Storage keyring"`
	KeyringUser    string                `koanf:"keyring_user" validate:"required_if=Storage keyring"`
}

// NewCredentialStore creates the configured store. lookup resolves environment
// variables for the env storage type (typically os.LookupEnv).
func (c AuthConfig) NewCredentialStore(lookup func(string) (string, bool)) (credential.Store, error) {
	switch c.Storage {
	case CredentialStorageTypeEnv:
		return credential.NewEnvSource(c.EnvVar, lookup), nil
	case CredentialStorageTypeFile:
		return credential.NewFileStore(c.File), nil
	case CredentialStorageTypeKeyring:
		return credential.NewKeyringStore(c.KeyringService, c.KeyringUser), nil
	default:
		return nil, fmt.Errorf("unsupported credential storage %q", c.Storage)
	}
}

// LogConfig configures logging.
type LogConfig struct {
	Level    string `koanf:"level" validate:"oneof=debug info warn error DEBUG INFO WARN ERROR"`
	Format   string `koanf:"format" validate:"oneof=text json"`
	Exporter string `koanf:"exporter" validate:"oneof=none stdout otlp-http otlp-grpc"`
}

// SlogLevel parses Level.
func (c LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return level, fmt.Errorf("invalid log level %q: %w", c.Level, err)
	}
	return level, nil
}

// RelayConfig combines the upstream settings with the resolved API key.
func (c *Config) RelayConfig(apiKey string) relay.Config {
	return relay.Config{
		APIKey:  apiKey,
		BaseURL: c.Upstream.BaseURL,
		Model:   c.Upstream.Model,
		Timeout: c.Upstream.Timeout,
	}
}

// defaults returns the built-in configuration.
func defaults() map[string]any {
	return map[string]any{
		"server.host":          "127.0.0.1",
		"server.port":          4000,
		"upstream.base_url":    "https://generativelanguage.googleapis.com/v1beta",
		"upstream.model":       "gemini-2.5-flash-preview-05-20",
		"upstream.timeout":     "0s",
		"auth.storage":         string(CredentialStorageTypeEnv),
		"auth.env_var":         "GEMINI_API_KEY",
		"auth.file":            "",
		"auth.keyring_service": credential.DefaultKeyringService,
		"auth.keyring_user":    credential.DefaultKeyringUser,
		"log.level":            slog.LevelInfo.String(),
		"log.format":           "text",
		"log.exporter":         "none",
	}
}

// LoadConfig builds the configuration from, in increasing precedence: built-in
// defaults, the TOML file at path (skipped when empty), RELAY_* environment
// variables from environ, and overrides (flat dotted keys, typically CLI flags).
func LoadConfig(path string, overrides map[string]any, environ func() []string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: envKey,
		EnvironFunc:   environ,
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, fmt.Errorf("loading overrides: %w", err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// envKey maps RELAY_UPSTREAM__BASE_URL to upstream.base_url.
func envKey(key, value string) (string, any) {
	key = strings.TrimPrefix(key, EnvPrefix)
	key = strings.ReplaceAll(strings.ToLower(key), "__", ".")
	return key, value
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func validateConfig(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("validating config: %w", err)
	}

	msgs := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
