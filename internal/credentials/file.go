package credentials

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/eleven-am/todosync/internal/logger"
	"gopkg.in/yaml.v3"
)

// fileDocument is the on-disk layout of the credential file. Exactly one
// of Token or Sealed is set.
type fileDocument struct {
	Key       string    `yaml:"key"`
	Token     string    `yaml:"token,omitempty"`
	Sealed    string    `yaml:"sealed,omitempty"`
	Salt      string    `yaml:"salt,omitempty"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

// File persists the token as a YAML document. When a passphrase is set
// the token is sealed with AES-GCM before it touches the disk.
type File struct {
	path       string
	passphrase string
	logger     logger.Logger
	mu         sync.Mutex
}

func NewFile(path, passphrase string) *File {
	return &File{
		path:       path,
		passphrase: passphrase,
		logger:     logger.Credentials().WithField("backend", BackendFile),
	}
}

// Path returns the location of the credential file.
func (f *File) Path() string {
	return f.path
}

func (f *File) Get(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read credential file: %w", err)
	}

	var doc fileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("failed to parse credential file: %w", err)
	}

	if doc.Sealed == "" {
		return doc.Token, nil
	}
	if f.passphrase == "" {
		return "", fmt.Errorf("%w: token is sealed but no passphrase is configured", ErrDecrypt)
	}
	return openToken(f.passphrase, doc.Salt, doc.Sealed)
}

func (f *File) Set(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc := fileDocument{
		Key:       StorageKey,
		UpdatedAt: time.Now().UTC(),
	}
	if f.passphrase == "" {
		doc.Token = token
	} else {
		salt, sealed, err := sealToken(f.passphrase, token)
		if err != nil {
			return err
		}
		doc.Salt = salt
		doc.Sealed = sealed
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("failed to marshal credential file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write credential file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		if rmErr := os.Remove(tmp); rmErr != nil {
			f.logger.Warn("Failed to remove temporary credential file", "path", tmp, "error", rmErr)
		}
		return fmt.Errorf("failed to replace credential file: %w", err)
	}
	f.logger.Debug("Stored token", "path", f.path, "sealed", f.passphrase != "")
	return nil
}

func (f *File) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove credential file: %w", err)
	}
	f.logger.Debug("Cleared token", "path", f.path)
	return nil
}
