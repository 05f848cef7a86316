package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pkt.systems/pslog"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// SQLiteStore keeps values in a single table of a SQLite database.
type SQLiteStore struct {
	pool *sqlitex.Pool
	path string
	log  pslog.Logger
}

const schema = `CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

// takeTimeout bounds how long Get and Set wait for a connection.
const takeTimeout = 5 * time.Second

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string, logger pslog.Logger) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("kv: sqlite path is required")
	}
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	logger = logger.With("db", path)

	// Each in-memory connection is its own database.
	size := 4
	if path == ":memory:" {
		size = 1
	}
	pool, err := sqlitex.NewPool(path, sqlitex.PoolOptions{
		PoolSize:    size,
		PrepareConn: prepareConn,
	})
	if err != nil {
		return nil, fmt.Errorf("kv: opening %s: %w", path, err)
	}
	logger.Debug("sqlite store opened", "pool_size", size)
	return &SQLiteStore{pool: pool, path: path, log: logger}, nil
}

func prepareConn(conn *sqlite.Conn) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("kv: %s: %w", pragma, err)
		}
	}
	if err := sqlitex.ExecuteTransient(conn, schema, nil); err != nil {
		return fmt.Errorf("kv: schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) take() (*sqlite.Conn, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), takeTimeout)
	conn, err := s.pool.Take(ctx)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("kv: take: %w", err)
	}
	return conn, func() {
		s.pool.Put(conn)
		cancel()
	}, nil
}

// Get returns the value stored under key.
func (s *SQLiteStore) Get(key string) (string, bool, error) {
	conn, done, err := s.take()
	if err != nil {
		return "", false, err
	}
	defer done()

	var (
		value string
		found bool
	)
	err = sqlitex.Execute(conn, "SELECT value FROM kv WHERE key = ?", &sqlitex.ExecOptions{
		Args: []any{key},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			value = stmt.ColumnText(0)
			found = true
			return nil
		},
	})
	if err != nil {
		s.log.Warn("kv load failed", "key", key, "err", err)
		return "", false, fmt.Errorf("kv: get %s: %w", key, err)
	}
	return value, found, nil
}

// Set stores value under key, replacing any previous value.
func (s *SQLiteStore) Set(key, value string) error {
	conn, done, err := s.take()
	if err != nil {
		return err
	}
	defer done()

	err = sqlitex.Execute(conn,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		&sqlitex.ExecOptions{Args: []any{key, value, time.Now().UnixMilli()}})
	if err != nil {
		s.log.Warn("kv save failed", "key", key, "err", err)
		return fmt.Errorf("kv: set %s: %w", key, err)
	}
	s.log.Trace("kv save ok", "key", key, "bytes", len(value))
	return nil
}

// Close waits for borrowed connections and closes the pool.
func (s *SQLiteStore) Close() error {
	if err := s.pool.Close(); err != nil {
		return fmt.Errorf("kv: closing %s: %w", s.path, err)
	}
	s.log.Debug("sqlite store closed")
	return nil
}
