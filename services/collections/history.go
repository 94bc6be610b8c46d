package collections

import (
	"sort"

	"github.com/google/uuid"

	"simplstream/internal/storage"
	"simplstream/models"
	"simplstream/utils"
)

// History returns every watch event across all profiles.
func (m *Manager) History() ([]models.WatchHistory, error) {
	return readSlice[models.WatchHistory](m.store, storage.KeyWatchHistory, nil)
}

// HistoryFor returns profileID's watch events in the order they were recorded.
func (m *Manager) HistoryFor(profileID string) ([]models.WatchHistory, error) {
	return readSlice(m.store, storage.KeyWatchHistory, func(h models.WatchHistory) bool {
		return h.ProfileID == profileID
	})
}

// RecordWatch appends a watch event. An event without an id gets a fresh one;
// an event whose id is already stored replaces that record.
func (m *Manager) RecordWatch(h models.WatchHistory) (models.WatchHistory, error) {
	if err := requireProfile(h.ProfileID); err != nil {
		return models.WatchHistory{}, err
	}
	if err := utils.ValidateStruct(h); err != nil {
		return models.WatchHistory{}, err
	}

	now := m.now().UTC()
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = now
	}
	if h.LastWatched.IsZero() {
		h.LastWatched = now
	}

	err := storage.MutateJSON(m.store, storage.KeyWatchHistory, func() []models.WatchHistory { return []models.WatchHistory{} },
		func(items []models.WatchHistory) ([]models.WatchHistory, error) {
			for i := range items {
				if items[i].ID == h.ID {
					items[i] = h
					return items, nil
				}
			}
			return append(items, h), nil
		})
	if err != nil {
		return models.WatchHistory{}, err
	}
	return h, nil
}

// ContinueWatching collapses profileID's history to the most recent event per
// title, newest first.
func (m *Manager) ContinueWatching(profileID string) ([]models.WatchHistory, error) {
	events, err := m.HistoryFor(profileID)
	if err != nil {
		return nil, err
	}

	latest := make(map[string]models.WatchHistory, len(events))
	for _, ev := range events {
		key := ev.TitleKey()
		if cur, ok := latest[key]; !ok || !ev.LastWatched.Before(cur.LastWatched) {
			latest[key] = ev
		}
	}

	out := make([]models.WatchHistory, 0, len(latest))
	for _, ev := range latest {
		out = append(out, ev)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].LastWatched.Equal(out[j].LastWatched) {
			return out[i].TitleKey() < out[j].TitleKey()
		}
		return out[i].LastWatched.After(out[j].LastWatched)
	})
	return out, nil
}

func (m *Manager) purgeHistory(profileID string) error {
	return removeWhere(m.store, storage.KeyWatchHistory, func(h models.WatchHistory) bool {
		return h.ProfileID == profileID
	})
}
