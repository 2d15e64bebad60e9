package credentials

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/eleven-am/todosync/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	cache := NewMemory()

	token, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, cache.Set(ctx, "abc"))
	token, _ = cache.Get(ctx)
	assert.Equal(t, "abc", token)

	require.NoError(t, cache.Clear(ctx))
	token, _ = cache.Get(ctx)
	assert.Empty(t, token)
}

func TestFile(t *testing.T) {
	ctx := context.Background()

	t.Run("missing file reads as empty", func(t *testing.T) {
		cache := NewFile(filepath.Join(t.TempDir(), "nope", "credentials.yaml"), "")
		token, err := cache.Get(ctx)
		require.NoError(t, err)
		assert.Empty(t, token)
	})

	t.Run("plain round trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sub", "credentials.yaml")
		cache := NewFile(path, "")

		require.NoError(t, cache.Set(ctx, "plain-token"))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(raw), "plain-token")
		assert.Contains(t, string(raw), "key: token")

		// a second instance sees what the first wrote
		token, err := NewFile(path, "").Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, "plain-token", token)
	})

	t.Run("sealed token never hits disk in clear", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "credentials.yaml")
		cache := NewFile(path, "correct horse")

		require.NoError(t, cache.Set(ctx, "secret-token"))

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.NotContains(t, string(raw), "secret-token")
		assert.Contains(t, string(raw), "sealed:")

		token, err := cache.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, "secret-token", token)
	})

	t.Run("wrong passphrase fails", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "credentials.yaml")
		require.NoError(t, NewFile(path, "one").Set(ctx, "secret-token"))

		_, err := NewFile(path, "two").Get(ctx)
		assert.ErrorIs(t, err, ErrDecrypt)

		_, err = NewFile(path, "").Get(ctx)
		assert.ErrorIs(t, err, ErrDecrypt)
	})

	t.Run("clear removes file and is idempotent", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "credentials.yaml")
		cache := NewFile(path, "")
		require.NoError(t, cache.Set(ctx, "x"))

		require.NoError(t, cache.Clear(ctx))
		_, err := os.Stat(path)
		assert.True(t, os.IsNotExist(err))

		require.NoError(t, cache.Clear(ctx))
	})
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		cfg     Config
		want    interface{}
		wantErr error
	}{
		{name: "memory", cfg: Config{Backend: BackendMemory}, want: &Memory{}},
		{name: "file", cfg: Config{Backend: BackendFile, Path: filepath.Join(t.TempDir(), "c.yaml")}, want: &File{}},
		{name: "default is file", cfg: Config{Path: filepath.Join(t.TempDir(), "c.yaml")}, want: &File{}},
		{name: "unknown", cfg: Config{Backend: "redis"}, wantErr: ErrUnknownBackend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache, closeFn, err := Open(ctx, tt.cfg)
			require.NotNil(t, closeFn)
			defer closeFn()

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, cache)
		})
	}

	t.Run("sql requires url", func(t *testing.T) {
		_, closeFn, err := Open(ctx, Config{Backend: BackendSQL})
		defer closeFn()
		assert.Error(t, err)
	})
}

func TestFileLogsThroughCredentialsComponent(t *testing.T) {
	buf := &bytes.Buffer{}
	logger.SetOutput(buf)
	logger.Configure(false, true)
	defer func() {
		logger.Configure(false, false)
		logger.SetOutput(os.Stderr)
	}()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "credentials.yaml")
	cache, closeCache, err := Open(ctx, Config{Backend: BackendFile, Path: path})
	require.NoError(t, err)
	defer closeCache()

	require.NoError(t, cache.Set(ctx, "secret-token"))
	require.NoError(t, cache.Clear(ctx))

	out := buf.String()
	assert.Contains(t, out, "component=credentials")
	assert.Contains(t, out, "Opening credential cache")
	assert.Contains(t, out, "backend=file")
	assert.Contains(t, out, "Stored token")
	assert.Contains(t, out, "Cleared token")
	assert.NotContains(t, out, "secret-token", "token values are never logged")
}
