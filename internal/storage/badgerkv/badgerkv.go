// Package badgerkv is a transactional storage.Store on BadgerDB.
//
// Each Update runs the read and the write inside one badger transaction.
// Badger's optimistic concurrency rejects a commit whose read set changed
// underneath it (ErrConflict); those commits are retried, so two writers on
// the same collection can never silently drop each other's change.
package badgerkv

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/dgraph-io/badger/v4"

	"simplstream/internal/storage"
)

// Config holds configuration for a BadgerDB-backed store.
type Config struct {
	// Path is the directory for BadgerDB files. Ignored when InMemory is true.
	Path string

	// InMemory keeps everything in RAM; used by tests.
	InMemory bool

	// SyncWrites fsyncs every commit.
	SyncWrites bool

	// ConflictRetries bounds how often a conflicting Update is replayed.
	ConflictRetries uint

	// Verbose forwards badger's own log lines.
	Verbose bool
}

// DefaultConfig returns durable settings for a store at path.
func DefaultConfig(path string) Config {
	return Config{
		Path:            path,
		SyncWrites:      true,
		ConflictRetries: 10,
	}
}

// InMemoryConfig returns settings for an ephemeral store.
func InMemoryConfig() Config {
	return Config{
		InMemory:        true,
		ConflictRetries: 10,
	}
}

// Store implements storage.Store on a badger database.
type Store struct {
	db      *badger.DB
	retries uint
}

var _ storage.Store = (*Store)(nil)

type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	log.Printf("[badger] error: "+format, args...)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	log.Printf("[badger] warning: "+format, args...)
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	log.Printf("[badger] "+format, args...)
}

func (badgerLogger) Debugf(string, ...interface{}) {}

// Open creates or opens a badger store.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create store directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}

	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Verbose {
		opts = opts.WithLogger(badgerLogger{})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}

	retries := cfg.ConflictRetries
	if retries == 0 {
		retries = 1
	}
	return &Store{db: db, retries: retries}, nil
}

func (s *Store) Get(key string) (string, bool, error) {
	var value string
	found := true
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			found = false
			return nil
		}
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		value = string(raw)
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, found, nil
}

func (s *Store) Set(key, value string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
}

func (s *Store) Remove(key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// Update replays fn when the commit conflicts with a concurrent writer.
func (s *Store) Update(key string, fn storage.UpdateFunc) error {
	var fnErr error
	err := retry.Do(func() error {
		fnErr = nil
		return s.db.Update(func(txn *badger.Txn) error {
			var current string
			ok := true
			item, err := txn.Get([]byte(key))
			switch {
			case errors.Is(err, badger.ErrKeyNotFound):
				ok = false
			case err != nil:
				return err
			default:
				raw, err := item.ValueCopy(nil)
				if err != nil {
					return err
				}
				current = string(raw)
			}

			next, remove, err := fn(current, ok)
			if err != nil {
				fnErr = err
				return nil
			}
			if remove {
				return txn.Delete([]byte(key))
			}
			return txn.Set([]byte(key), []byte(next))
		})
	},
		retry.Attempts(s.retries),
		retry.Delay(5*time.Millisecond),
		retry.MaxDelay(250*time.Millisecond),
		retry.MaxJitter(10*time.Millisecond),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, badger.ErrConflict)
		}),
	)
	if err != nil {
		return fmt.Errorf("update %s: %w", key, err)
	}
	return fnErr
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
