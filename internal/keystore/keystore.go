// Package keystore persists the API key used by the CLI.
//
// Three backends exist: the environment (read-only), a file, and the system
// keyring. Writing an empty key clears the stored key.
package keystore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/zalando/go-keyring"
)

var (
	// ErrNotFound is returned by Read when no key is stored.
	ErrNotFound = errors.New("api key not found")
	// ErrReadOnly is returned by Write on backends that cannot be written.
	ErrReadOnly = errors.New("key store is read-only")
)

// Store reads and writes a single API key.
type Store interface {
	Read(ctx context.Context) (string, error)
	// Write stores key. An empty key removes the stored key.
	Write(ctx context.Context, key string) error
}

var (
	_ Store = (*EnvStore)(nil)
	_ Store = (*FileStore)(nil)
	_ Store = (*KeyringStore)(nil)
)

// EnvStore reads the key from an environment variable.
type EnvStore struct {
	Var string
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

func (s *EnvStore) Read(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	lookup := s.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	key, ok := lookup(s.Var)
	if !ok || strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("%s: %w", s.Var, ErrNotFound)
	}
	return strings.TrimSpace(key), nil
}

func (s *EnvStore) Write(context.Context, string) error {
	return fmt.Errorf("environment variable %s: %w", s.Var, ErrReadOnly)
}

// FileStore keeps the key in a file readable only by the current user.
type FileStore struct {
	Path string
}

func (s *FileStore) Read(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%s: %w", s.Path, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read key file: %w", err)
	}
	key := strings.TrimSpace(string(data))
	if key == "" {
		return "", fmt.Errorf("%s: %w", s.Path, ErrNotFound)
	}
	return key, nil
}

func (s *FileStore) Write(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		if err := os.Remove(s.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove key file: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}
	if err := os.WriteFile(s.Path, []byte(key+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to write key file: %w", err)
	}
	return nil
}

// KeyringStore keeps the key in the system keyring.
type KeyringStore struct {
	Service string
	User    string
}

func (s *KeyringStore) Read(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key, err := keyring.Get(s.Service, s.User)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("keyring %s/%s: %w", s.Service, s.User, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read keyring: %w", err)
	}
	return key, nil
}

func (s *KeyringStore) Write(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		if err := keyring.Delete(s.Service, s.User); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("failed to delete keyring entry: %w", err)
		}
		return nil
	}
	if err := keyring.Set(s.Service, s.User, key); err != nil {
		return fmt.Errorf("failed to write keyring: %w", err)
	}
	return nil
}
