package credentials

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/eleven-am/todosync/internal/logger"
)

// StorageKey is the fixed key the bearer token is stored under.
const StorageKey = "token"

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQL    = "sql"
)

var (
	// ErrUnknownBackend is returned by Open for an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown credential backend")
	// ErrDecrypt is returned when a sealed token cannot be opened with the configured passphrase.
	ErrDecrypt = errors.New("failed to decrypt stored token")
)

// Cache is the process-wide store for the bearer token. Get returns an
// empty string when no token is stored.
type Cache interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Config selects and configures a Cache backend.
type Config struct {
	Backend     string
	Path        string
	DatabaseURL string
	Table       string
	Passphrase  string
}

// DefaultPath returns ~/.todosync/credentials.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".todosync", "credentials.yaml")
	}
	return filepath.Join(home, ".todosync", "credentials.yaml")
}

// Open builds the Cache described by cfg. The returned close function
// releases backend resources and is never nil.
func Open(ctx context.Context, cfg Config) (Cache, func() error, error) {
	noop := func() error { return nil }
	logger.Credentials().Debug("Opening credential cache", "backend", cfg.Backend)

	switch cfg.Backend {
	case BackendMemory:
		return NewMemory(), noop, nil
	case "", BackendFile:
		path := cfg.Path
		if path == "" {
			path = DefaultPath()
		}
		return NewFile(path, cfg.Passphrase), noop, nil
	case BackendSQL:
		if cfg.DatabaseURL == "" {
			return nil, noop, fmt.Errorf("sql credential backend requires a database url")
		}
		store, err := OpenSQL(ctx, cfg.DatabaseURL, cfg.Table)
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil
	default:
		return nil, noop, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
