package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/eleven-am/todosync/internal/logger"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// DefaultTable is the table used by the SQL backend when none is configured.
const DefaultTable = "todosync_credentials"

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQL stores the token in a single-row key/value table, for hosts that
// share credentials through a database instead of the home directory.
type SQL struct {
	db      *sqlx.DB
	table   string
	builder squirrel.StatementBuilderType
	logger  logger.Logger
}

// NewSQL wraps an open connection. An empty table selects DefaultTable.
func NewSQL(db *sqlx.DB, table string) (*SQL, error) {
	if table == "" {
		table = DefaultTable
	}
	if !identPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid credential table name %q", table)
	}
	return &SQL{
		db:      db,
		table:   table,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		logger:  logger.Credentials().WithFields(map[string]interface{}{"backend": BackendSQL, "table": table}),
	}, nil
}

// OpenSQL connects to a postgres database and makes sure the credential
// table exists.
func OpenSQL(ctx context.Context, databaseURL, table string) (*SQL, error) {
	db, err := sqlx.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping credential database: %w", err)
	}

	store, err := NewSQL(db, table)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	store.logger.Info("Connected to credential database")
	return store, nil
}

// EnsureSchema creates the credential table if it is missing.
func (s *SQL) EnsureSchema(ctx context.Context) error {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	key TEXT PRIMARY KEY,
	token TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`, s.table)
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create credential table: %w", err)
	}
	s.logger.Debug("Credential table ready")
	return nil
}

func (s *SQL) Get(ctx context.Context) (string, error) {
	query, args, err := s.builder.
		Select("token").
		From(s.table).
		Where(squirrel.Eq{"key": StorageKey}).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("failed to build query: %w", err)
	}

	var token string
	if err := s.db.GetContext(ctx, &token, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return token, nil
}

func (s *SQL) Set(ctx context.Context, token string) error {
	query, args, err := s.builder.
		Insert(s.table).
		Columns("key", "token", "updated_at").
		Values(StorageKey, token, time.Now().UTC()).
		Suffix("ON CONFLICT (key) DO UPDATE SET token = EXCLUDED.token, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	s.logger.Debug("Stored token")
	return nil
}

func (s *SQL) Clear(ctx context.Context) error {
	query, args, err := s.builder.
		Delete(s.table).
		Where(squirrel.Eq{"key": StorageKey}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	s.logger.Debug("Cleared token")
	return nil
}

// Close releases the database connection.
func (s *SQL) Close() error {
	return s.db.Close()
}
