package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"simplstream/models"
)

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// Environment overrides applied on Load.
const (
	EnvDataDir      = "SIMPLSTREAM_DATA_DIR"
	EnvStoreBackend = "SIMPLSTREAM_STORE_BACKEND"
)

// Settings is the on-disk configuration of the simplstream CLI.
type Settings struct {
	Storage  StorageSettings `json:"storage"`
	Logging  LoggingSettings `json:"logging"`
	Auth     AuthSettings    `json:"auth"`
	Profiles ProfileSettings `json:"profiles"`
}

// StorageSettings selects and locates the key-value backend.
type StorageSettings struct {
	Backend string `json:"backend"`
	Path    string `json:"path"`
}

// LoggingSettings controls the optional rotating log file.
type LoggingSettings struct {
	File       string `json:"file"`
	MaxSizeMB  int    `json:"maxSizeMB"`
	MaxBackups int    `json:"maxBackups"`
	MaxAgeDays int    `json:"maxAgeDays"`
}

// AuthSettings tunes PIN recovery.
type AuthSettings struct {
	// ScopedRecovery restricts security-word matches to the selected profile.
	ScopedRecovery bool `json:"scopedRecovery"`
}

// ProfileSettings tunes the profile store.
type ProfileSettings struct {
	MaxProfiles int `json:"maxProfiles"`
}

// DefaultDataDir is where data lives when nothing else is configured.
func DefaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "simplstream")
	}
	return ".simplstream"
}

// DefaultSettings returns the settings used when no file exists yet.
func DefaultSettings() Settings {
	return Settings{
		Storage: StorageSettings{
			Backend: BackendSQLite,
			Path:    filepath.Join(DefaultDataDir(), "simplstream.db"),
		},
		Logging: LoggingSettings{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Profiles: ProfileSettings{MaxProfiles: models.MaxProfiles},
	}
}

// Validate checks settings for values the runtime cannot use.
func (s Settings) Validate() error {
	switch s.Storage.Backend {
	case BackendSQLite, BackendBadger:
		if strings.TrimSpace(s.Storage.Path) == "" {
			return models.NewValidationError("storage.path", "is required for "+s.Storage.Backend)
		}
	case BackendMemory:
	default:
		return models.NewValidationError("storage.backend", "must be one of sqlite badger memory")
	}
	if s.Profiles.MaxProfiles < 0 {
		return models.NewValidationError("profiles.maxProfiles", "must not be negative")
	}
	return nil
}

// Manager loads and saves Settings as JSON.
type Manager struct {
	path string
	fs   afero.Fs
	mu   sync.Mutex
}

// NewManager returns a Manager for the settings file at path on the OS
// filesystem.
func NewManager(path string) *Manager {
	return NewManagerFs(afero.NewOsFs(), path)
}

// NewManagerFs returns a Manager backed by fs.
func NewManagerFs(fs afero.Fs, path string) *Manager {
	return &Manager{path: path, fs: fs}
}

// Path returns the settings file location.
func (m *Manager) Path() string {
	return m.path
}

// Load reads the settings file, falling back to defaults when it does not
// exist, then applies environment overrides.
func (m *Manager) Load() (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	settings := DefaultSettings()
	data, err := afero.ReadFile(m.fs, m.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Settings{}, fmt.Errorf("read settings: %w", err)
	default:
		if err := json.Unmarshal(data, &settings); err != nil {
			return Settings{}, fmt.Errorf("parse settings %s: %w", m.path, err)
		}
	}

	applyEnv(&settings)
	if settings.Profiles.MaxProfiles == 0 {
		settings.Profiles.MaxProfiles = models.MaxProfiles
	}
	if err := settings.Validate(); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// Save writes settings, replacing the file atomically.
func (m *Manager) Save(settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if dir := filepath.Dir(m.path); dir != "." {
		if err := m.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create settings dir: %w", err)
		}
	}

	tmp := m.path + ".tmp"
	if err := afero.WriteFile(m.fs, tmp, data, 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := m.fs.Rename(tmp, m.path); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}

func applyEnv(s *Settings) {
	if backend := os.Getenv(EnvStoreBackend); backend != "" {
		s.Storage.Backend = strings.ToLower(strings.TrimSpace(backend))
	}
	if dir := os.Getenv(EnvDataDir); dir != "" {
		s.Storage.Path = filepath.Join(dir, storageFileName(s.Storage.Backend))
	}
}

func storageFileName(backend string) string {
	if backend == BackendBadger {
		return "badger"
	}
	return "simplstream.db"
}
