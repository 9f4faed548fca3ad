// Package config loads stepwise settings.
//
// Sources are layered, later ones winning:
//
//  1. built-in defaults
//  2. a TOML file
//  3. variables from a .env file
//  4. STEPWISE_* environment variables, e.g. STEPWISE_SERVER_API_KEY for server.api_key
//  5. explicit overrides, usually command line flags
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/florianilch/stepwise/internal/client"
	"github.com/florianilch/stepwise/internal/keystore"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "STEPWISE_"

// Config is the complete application configuration.
type Config struct {
	Server ServerConfig `koanf:"server"`
	Client ClientConfig `koanf:"client"`
	Auth   AuthConfig   `koanf:"auth"`
	Log    LogConfig    `koanf:"log"`
}

// ServerConfig configures the stub server.
type ServerConfig struct {
	Host string `koanf:"host" validate:"required"`
	Port int    `koanf:"port" validate:"min=0,max=65535"`
	// Fixtures is the directory the served objects are loaded from.
	Fixtures string `koanf:"fixtures" validate:"required"`
	// APIKey, when set, is required as bearer token on /v1 routes.
	APIKey          string        `koanf:"api_key"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ClientConfig configures the list client used by the CLI.
type ClientConfig struct {
	BaseURL string        `koanf:"base_url" validate:"required,http_url"`
	Timeout time.Duration `koanf:"timeout" validate:"gte=0"`
}

// KeyStorage selects where the API key is kept.
type KeyStorage string

const (
	KeyStorageEnv     KeyStorage = "env"
	KeyStorageFile    KeyStorage = "file"
	KeyStorageKeyring KeyStorage = "keyring"
)

// AuthConfig configures API key storage.
type AuthConfig struct {
	Storage        KeyStorage `koanf:"storage" validate:"oneof=env file keyring"`
	EnvVar         string     `koanf:"env_var" validate:"required_if=Storage env"`
	File           string     `koanf:"file" validate:"required_if=Storage file"`
	KeyringService string     `koanf:"keyring_service" validate:"required_if=Storage keyring"`
	KeyringUser    string     `koanf:"keyring_user" validate:"required_if=Storage keyring"`

	lookupEnv func(string) (string, bool)
}

// NewKeyStore returns the configured key store.
func (c AuthConfig) NewKeyStore() (keystore.Store, error) {
	switch c.Storage {
	case KeyStorageEnv:
		return &keystore.EnvStore{Var: c.EnvVar, LookupEnv: c.lookupEnv}, nil
	case KeyStorageFile:
		return &keystore.FileStore{Path: c.File}, nil
	case KeyStorageKeyring:
		return &keystore.KeyringStore{Service: c.KeyringService, User: c.KeyringUser}, nil
	default:
		return nil, fmt.Errorf("unsupported key storage %q", c.Storage)
	}
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json otel"`
	// Exporter is used by the otel format only.
	Exporter string `koanf:"exporter" validate:"oneof=stdout otlp-http otlp-grpc"`
}

// Defaults returns the built-in configuration values as koanf keys.
func Defaults() map[string]any {
	return map[string]any{
		"server.host":             "127.0.0.1",
		"server.port":             4100,
		"server.fixtures":         "fixtures",
		"server.api_key":          "",
		"server.shutdown_timeout": "5s",
		"client.base_url":         client.DefaultBaseURL,
		"client.timeout":          "30s",
		"auth.storage":            string(KeyStorageKeyring),
		"auth.env_var":            "STEPWISE_API_KEY",
		"auth.file":               "",
		"auth.keyring_service":    "stepwise",
		"auth.keyring_user":       "api_key",
		"log.level":               "info",
		"log.format":              "text",
		"log.exporter":            "stdout",
	}
}

// LoadOptions selects the sources Load reads.
type LoadOptions struct {
	// Path of a TOML file. Empty skips the file.
	Path string
	// EnvFile is a .env file merged below the process environment. Empty or
	// missing files are skipped.
	EnvFile string
	// Environ returns the process environment. Defaults to os.Environ.
	Environ func() []string
	// Overrides are koanf keys applied last.
	Overrides map[string]any
}

// Load reads, merges and validates the configuration.
func Load(opts LoadOptions) (*Config, error) {
	environ := opts.Environ
	if environ == nil {
		environ = os.Environ
	}
	if opts.EnvFile != "" {
		var err error
		environ, err = withEnvFile(opts.EnvFile, environ)
		if err != nil {
			return nil, err
		}
	}

	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if opts.Path != "" {
		if err := k.Load(file.Provider(opts.Path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", opts.Path, err)
		}
	}

	envProvider := env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
			// The first underscore separates section and field: SERVER_API_KEY -> server.api_key
			return strings.Replace(key, "_", ".", 1), value
		},
		EnvironFunc: environ,
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return nil, fmt.Errorf("failed to load overrides: %w", err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.Auth.File == "" {
		cfg.Auth.File = defaultKeyFile()
	}
	cfg.Auth.lookupEnv = lookupFunc(environ)

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// withEnvFile returns an environ func that lists the variables of path
// before the process environment, so the process environment wins.
func withEnvFile(path string, environ func() []string) (func() []string, error) {
	vars, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return environ, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}

	return func() []string {
		merged := make([]string, 0, len(vars))
		for k, v := range vars {
			merged = append(merged, k+"="+v)
		}
		return append(merged, environ()...)
	}, nil
}

// lookupFunc resolves variables from environ with last-wins semantics.
func lookupFunc(environ func() []string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		value, found := "", false
		for _, kv := range environ() {
			if k, v, ok := strings.Cut(kv, "="); ok && k == name {
				value, found = v, true
			}
		}
		return value, found
	}
}

func defaultKeyFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "stepwise", "api_key")
}
