package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"simplstream/internal/storage"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// gooseMu guards goose's package-level base FS and dialect.
var gooseMu sync.Mutex

// DB is a sqlite-backed storage.Store. Every namespaced key is one row in the
// kv table.
type DB struct {
	conn  *sql.DB
	locks *storage.KeyedMutex
}

var _ storage.Store = (*DB)(nil)

// Config holds database configuration
type Config struct {
	DatabasePath string
}

// NewDB creates a new database connection and runs migrations
func NewDB(config Config) (*DB, error) {
	if config.DatabasePath == "" {
		return nil, errors.New("database path is required")
	}

	// Ensure the parent directory exists
	dbDir := filepath.Dir(config.DatabasePath)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Immediate transactions take the write lock up front, so a read-modify-write
	// cycle cannot interleave with another process writing the same file.
	connString := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_txlock=immediate",
		config.DatabasePath)

	conn, err := sql.Open("sqlite3", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(4)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxIdleTime(15 * time.Minute)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DB{conn: conn, locks: storage.NewKeyedMutex()}, nil
}

// runMigrations runs database migrations using Goose
func runMigrations(db *sql.DB) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to run kv migrations: %w", err)
	}

	version, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("failed to verify migration version: %w", err)
	}
	log.Printf("[database] kv schema at version %d", version)
	return nil
}

// Get returns the value stored under key.
func (db *DB) Get(key string) (string, bool, error) {
	var value string
	err := db.conn.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

// Set replaces the value stored under key.
func (db *DB) Set(key, value string) error {
	unlock := db.locks.Lock(key)
	defer unlock()

	return withBusyRetry(func() error {
		_, err := db.conn.Exec(`
			INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			key, value, time.Now().Unix(),
		)
		return err
	})
}

// Remove deletes key. Missing keys are not an error.
func (db *DB) Remove(key string) error {
	unlock := db.locks.Lock(key)
	defer unlock()

	return withBusyRetry(func() error {
		_, err := db.conn.Exec("DELETE FROM kv WHERE key = ?", key)
		return err
	})
}

// Update runs fn inside an immediate transaction so the read and the write
// observe the same row.
func (db *DB) Update(key string, fn storage.UpdateFunc) error {
	unlock := db.locks.Lock(key)
	defer unlock()

	var fnErr error
	err := withBusyRetry(func() error {
		fnErr = nil
		tx, err := db.conn.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		var current string
		ok := true
		if err := tx.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&current); err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return err
			}
			ok = false
		}

		next, remove, err := fn(current, ok)
		if err != nil {
			fnErr = err
			return nil
		}

		if remove {
			_, err = tx.Exec("DELETE FROM kv WHERE key = ?", key)
		} else {
			_, err = tx.Exec(`
				INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
				ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
				key, next, time.Now().Unix(),
			)
		}
		if err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return fmt.Errorf("update %s: %w", key, err)
	}
	return fnErr
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Connection returns the underlying database connection
func (db *DB) Connection() *sql.DB {
	return db.conn
}

func withBusyRetry(op func() error) error {
	return retry.Do(op,
		retry.Attempts(5),
		retry.Delay(20*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isBusy),
	)
}

func isBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}
