package collections

import (
	"github.com/google/uuid"

	"simplstream/internal/storage"
	"simplstream/models"
	"simplstream/utils"
)

// Watchlist returns every saved item across all profiles.
func (m *Manager) Watchlist() ([]models.WatchlistItem, error) {
	return readSlice[models.WatchlistItem](m.store, storage.KeyWatchlist, nil)
}

// WatchlistFor returns the items saved by profileID in insertion order.
func (m *Manager) WatchlistFor(profileID string) ([]models.WatchlistItem, error) {
	return readSlice(m.store, storage.KeyWatchlist, func(w models.WatchlistItem) bool {
		return w.ProfileID == profileID
	})
}

// AddToWatchlist saves item unless the profile already has the same title.
// added is false for duplicates.
func (m *Manager) AddToWatchlist(item models.WatchlistItem) (added bool, err error) {
	if err := requireProfile(item.ProfileID); err != nil {
		return false, err
	}
	if err := utils.ValidateStruct(item); err != nil {
		return false, err
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = m.now().UTC()
	}

	err = storage.MutateJSON(m.store, storage.KeyWatchlist, newWatchlist, func(items []models.WatchlistItem) ([]models.WatchlistItem, error) {
		added = false
		key := item.Key()
		for _, existing := range items {
			if existing.ProfileID == item.ProfileID && existing.Key() == key {
				return nil, storage.ErrUnchanged
			}
		}
		added = true
		return append(items, item), nil
	})
	return added, err
}

// RemoveFromWatchlist removes the profile's item for tmdbID.
func (m *Manager) RemoveFromWatchlist(profileID string, tmdbID int) error {
	return removeWhere(m.store, storage.KeyWatchlist, func(w models.WatchlistItem) bool {
		return w.ProfileID == profileID && w.TMDBID != nil && *w.TMDBID == tmdbID
	})
}

// RemoveWatchlistKey removes the profile's item with the given Key, which also
// covers entries without a catalog id.
func (m *Manager) RemoveWatchlistKey(profileID, key string) error {
	return removeWhere(m.store, storage.KeyWatchlist, func(w models.WatchlistItem) bool {
		return w.ProfileID == profileID && w.Key() == key
	})
}

// InWatchlist reports whether profileID saved tmdbID.
func (m *Manager) InWatchlist(profileID string, tmdbID int) (bool, error) {
	items, err := m.WatchlistFor(profileID)
	if err != nil {
		return false, err
	}
	for _, w := range items {
		if w.TMDBID != nil && *w.TMDBID == tmdbID {
			return true, nil
		}
	}
	return false, nil
}

func (m *Manager) purgeWatchlist(profileID string) error {
	return removeWhere(m.store, storage.KeyWatchlist, func(w models.WatchlistItem) bool {
		return w.ProfileID == profileID
	})
}

func newWatchlist() []models.WatchlistItem { return []models.WatchlistItem{} }
