package config

import (
	"fmt"
	"log"

	"simplstream/internal/database"
	"simplstream/internal/logging"
	"simplstream/internal/storage"
	"simplstream/internal/storage/badgerkv"
	"simplstream/services/auth"
)

// Backend is an opened key-value store together with its release hook.
type Backend struct {
	Store storage.Store
	Name  string
	close func() error
}

// Close releases the underlying database, if any.
func (b *Backend) Close() error {
	if b == nil || b.close == nil {
		return nil
	}
	return b.close()
}

// OpenStore opens the backend named in settings.
func OpenStore(settings StorageSettings) (*Backend, error) {
	switch settings.Backend {
	case BackendMemory:
		return &Backend{Store: storage.NewMemory(), Name: BackendMemory}, nil
	case BackendSQLite, "":
		db, err := database.NewDB(database.Config{DatabasePath: settings.Path})
		if err != nil {
			return nil, err
		}
		log.Printf("[config] opened sqlite store path=%q", settings.Path)
		return &Backend{Store: db, Name: BackendSQLite, close: db.Close}, nil
	case BackendBadger:
		db, err := badgerkv.Open(badgerkv.DefaultConfig(settings.Path))
		if err != nil {
			return nil, err
		}
		log.Printf("[config] opened badger store path=%q", settings.Path)
		return &Backend{Store: db, Name: BackendBadger, close: db.Close}, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", settings.Backend)
	}
}

// Options converts the logging section for logging.Setup.
func (s LoggingSettings) Options() logging.Options {
	return logging.Options{
		File:       s.File,
		MaxSizeMB:  s.MaxSizeMB,
		MaxBackups: s.MaxBackups,
		MaxAgeDays: s.MaxAgeDays,
	}
}

// RecoveryScope maps the auth section onto the gate's recovery scope.
func (s AuthSettings) RecoveryScope() auth.RecoveryScope {
	if s.ScopedRecovery {
		return auth.RecoverySelectedProfile
	}
	return auth.RecoveryAnyProfile
}
