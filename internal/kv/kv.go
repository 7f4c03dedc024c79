package kv

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// Store is a SQLite-backed key/value blob store. The application persists its
// whole document as a single value under a schema-versioned key, so this layer
// only needs Get/Put/Delete. It is safe for concurrent use because the
// underlying *sql.DB is concurrency-safe.
type Store struct {
	conn   *sql.DB
	logger *logrus.Logger

	// Prepared statements for better performance
	getStmt    *sql.Stmt
	putStmt    *sql.Stmt
	deleteStmt *sql.Stmt
}

// Open opens (or creates) a SQLite database at the provided path and ensures
// the blobs table exists. It also applies lightweight performance-oriented
// pragmas (WAL, cache sizing). Caller should Close() it when finished.
func Open(dbPath string, logger *logrus.Logger) (*Store, error) {
	conn, err := sql.Open("sqlite3", dbPath+"?cache=shared&mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool - adjusted for SQLite
	conn.SetMaxOpenConns(5) // SQLite works better with fewer connections
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(15 * time.Minute)

	// Enable WAL mode for better concurrency
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA temp_store=memory;",
	}

	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			logger.WithError(err).WithField("pragma", pragma).Warn("Failed to set pragma")
		}
	}

	s := &Store{
		conn:   conn,
		logger: logger,
	}

	if err := s.createTable(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create blobs table: %w", err)
	}

	if err := s.prepareStatements(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	logger.WithField("db_path", dbPath).Info("Key/value store initialized")
	return s, nil
}

// createTable creates the blobs table if it does not already exist.
func (s *Store) createTable() error {
	_, err := s.conn.Exec(`
	CREATE TABLE IF NOT EXISTS blobs (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`)
	return err
}

// prepareStatements prepares the three statements the store ever runs.
func (s *Store) prepareStatements() error {
	var err error

	s.getStmt, err = s.conn.Prepare(`SELECT value FROM blobs WHERE key = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare get statement: %w", err)
	}

	s.putStmt, err = s.conn.Prepare(`
		INSERT INTO blobs (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value=excluded.value,
			updated_at=excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("failed to prepare put statement: %w", err)
	}

	s.deleteStmt, err = s.conn.Prepare(`DELETE FROM blobs WHERE key = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare delete statement: %w", err)
	}

	return nil
}

// Get returns the value stored under key, if any.
func (s *Store) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := s.getStmt.QueryRow(key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Error("Failed to read blob")
		return nil, false, err
	}
	return value, true, nil
}

// Put stores value under key, replacing any previous value atomically.
func (s *Store) Put(key string, value []byte) error {
	_, err := s.putStmt.Exec(key, value)
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Error("Failed to write blob")
	}
	return err
}

// Delete removes the value stored under key (no-op if absent).
func (s *Store) Delete(key string) error {
	_, err := s.deleteStmt.Exec(key)
	return err
}

// Close closes the underlying database connection and prepared statements.
func (s *Store) Close() error {
	statements := []*sql.Stmt{s.getStmt, s.putStmt, s.deleteStmt}
	for _, stmt := range statements {
		if stmt != nil {
			if err := stmt.Close(); err != nil {
				s.logger.WithError(err).Error("Failed to close prepared statement")
			}
		}
	}

	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
