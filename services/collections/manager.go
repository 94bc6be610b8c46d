// Package collections manages the per-profile collections that hang off a
// profile id: watchlist, watch history, ratings, search history, pinned
// channels, custom avatars and saved recommendations.
package collections

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"simplstream/internal/storage"
	"simplstream/models"
)

// ProfileSecurity clears a profile's PIN and security word. The profile
// service satisfies it.
type ProfileSecurity interface {
	ClearSecurity(profileID string) error
}

// Manager reads and writes every derived collection through one store.
type Manager struct {
	store    storage.Store
	security ProfileSecurity
	now      func() time.Time
}

// Option customises a Manager.
type Option func(*Manager)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithProfileSecurity enables the Security option of RemoveProfileData.
func WithProfileSecurity(ps ProfileSecurity) Option {
	return func(m *Manager) { m.security = ps }
}

// NewManager returns a Manager over store.
func NewManager(store storage.Store, opts ...Option) *Manager {
	m := &Manager{store: store, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// PurgeOptions selects what RemoveProfileData clears.
type PurgeOptions struct {
	Watchlist    bool
	WatchHistory bool
	Security     bool
}

// RemoveProfileData clears the selected data for one profile. WatchHistory
// removes ratings too. Search history is left alone; callers clear it with
// ClearSearchHistory when they remove history.
func (m *Manager) RemoveProfileData(profileID string, opts PurgeOptions) error {
	if err := requireProfile(profileID); err != nil {
		return err
	}

	var errs []error
	if opts.Watchlist {
		errs = append(errs, m.purgeWatchlist(profileID))
	}
	if opts.WatchHistory {
		errs = append(errs, m.purgeHistory(profileID), m.purgeRatings(profileID))
	}
	if opts.Security {
		if m.security == nil {
			errs = append(errs, errors.New("profile security is not configured"))
		} else if err := m.security.ClearSecurity(profileID); err != nil && !errors.Is(err, models.ErrNotFound) {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("remove data for profile %q: %w", profileID, err)
	}

	log.Printf("[collections] removed data profile=%s watchlist=%t history=%t security=%t",
		profileID, opts.Watchlist, opts.WatchHistory, opts.Security)
	return nil
}

// PurgeProfile drops everything the manager holds for profileID. The profile
// service calls it when a profile is deleted.
func (m *Manager) PurgeProfile(profileID string) error {
	err := errors.Join(
		m.purgeWatchlist(profileID),
		m.purgeHistory(profileID),
		m.purgeRatings(profileID),
		m.ClearSearchHistory(profileID),
		m.purgePinned(profileID),
		m.ClearAvatar(profileID),
		m.purgeRecommendations(profileID),
	)
	if err != nil {
		return fmt.Errorf("purge profile %q: %w", profileID, err)
	}
	return nil
}

func requireProfile(profileID string) error {
	if strings.TrimSpace(profileID) == "" {
		return models.NewValidationError("profile_id", "is required")
	}
	return nil
}

// removeWhere drops the elements of the slice document under key for which
// match returns true. Nothing is written when no element matches.
func removeWhere[T any](s storage.Store, key string, match func(T) bool) error {
	return storage.MutateJSON(s, key, func() []T { return []T{} }, func(items []T) ([]T, error) {
		kept := make([]T, 0, len(items))
		for _, it := range items {
			if !match(it) {
				kept = append(kept, it)
			}
		}
		if len(kept) == len(items) {
			return nil, storage.ErrUnchanged
		}
		return kept, nil
	})
}

// readSlice loads the slice document under key, optionally filtered.
func readSlice[T any](s storage.Store, key string, keep func(T) bool) ([]T, error) {
	items := []T{}
	if err := storage.ReadJSON(s, key, &items); err != nil {
		return nil, err
	}
	if keep == nil {
		return items, nil
	}
	filtered := make([]T, 0, len(items))
	for _, it := range items {
		if keep(it) {
			filtered = append(filtered, it)
		}
	}
	return filtered, nil
}

// deleteMapEntry removes profileID from the map document under key.
func deleteMapEntry[V any](s storage.Store, key, profileID string) error {
	return storage.MutateJSON(s, key, func() map[string]V { return map[string]V{} }, func(doc map[string]V) (map[string]V, error) {
		if _, ok := doc[profileID]; !ok {
			return nil, storage.ErrUnchanged
		}
		delete(doc, profileID)
		return doc, nil
	})
}
