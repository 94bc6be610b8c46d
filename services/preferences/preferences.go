// Package preferences stores device-wide UI settings that are not tied to a
// profile.
package preferences

import (
	"fmt"
	"strings"

	"simplstream/internal/storage"
	"simplstream/models"
)

// Theme is the colour scheme preference.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// ParseTheme validates a theme name.
func ParseTheme(s string) (Theme, error) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(s))); t {
	case ThemeLight, ThemeDark, ThemeSystem:
		return t, nil
	}
	return "", models.NewValidationError("theme", "must be one of light dark system")
}

// Service reads and writes preferences. Values are stored as raw strings.
type Service struct {
	store storage.Store
}

// NewService returns a Service over store.
func NewService(store storage.Store) *Service {
	return &Service{store: store}
}

// Theme returns the stored theme, ThemeSystem when unset or unrecognised.
func (s *Service) Theme() (Theme, error) {
	raw, ok, err := s.store.Get(storage.KeyTheme)
	if err != nil {
		return ThemeSystem, fmt.Errorf("read theme: %w", err)
	}
	if !ok {
		return ThemeSystem, nil
	}
	t, err := ParseTheme(raw)
	if err != nil {
		return ThemeSystem, nil
	}
	return t, nil
}

// SetTheme stores t.
func (s *Service) SetTheme(t Theme) error {
	if _, err := ParseTheme(string(t)); err != nil {
		return err
	}
	return s.store.Set(storage.KeyTheme, string(t))
}

// EffectiveTheme resolves ThemeSystem with the platform preference.
func (s *Service) EffectiveTheme(systemDark bool) (Theme, error) {
	t, err := s.Theme()
	if err != nil {
		return ThemeSystem, err
	}
	if t != ThemeSystem {
		return t, nil
	}
	if systemDark {
		return ThemeDark, nil
	}
	return ThemeLight, nil
}

// PreferredServer returns the stored embed server key; ok is false when unset.
func (s *Service) PreferredServer() (key string, ok bool, err error) {
	key, ok, err = s.store.Get(storage.KeyPreferredServer)
	if err != nil {
		return "", false, fmt.Errorf("read preferred server: %w", err)
	}
	return key, ok, nil
}

// SetPreferredServer stores the embed server key.
func (s *Service) SetPreferredServer(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return models.NewValidationError("server", "is required")
	}
	return s.store.Set(storage.KeyPreferredServer, key)
}
