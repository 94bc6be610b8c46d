package collections

import (
	"encoding/json"

	"github.com/google/uuid"

	"simplstream/internal/storage"
	"simplstream/models"
)

// SavedRecommendations returns the snapshots profileID kept, oldest first.
func (m *Manager) SavedRecommendations(profileID string) ([]models.SavedRecommendations, error) {
	return readSlice(m.store, storage.KeySavedRecommendations, func(s models.SavedRecommendations) bool {
		return s.ProfileID == profileID
	})
}

// SaveRecommendations keeps a recommendation run verbatim. Both payloads must
// be valid JSON; empty ones are stored as [] and {}.
func (m *Manager) SaveRecommendations(profileID string, recommendations, filters json.RawMessage) (models.SavedRecommendations, error) {
	if err := requireProfile(profileID); err != nil {
		return models.SavedRecommendations{}, err
	}
	if len(recommendations) == 0 {
		recommendations = json.RawMessage("[]")
	}
	if len(filters) == 0 {
		filters = json.RawMessage("{}")
	}
	if !json.Valid(recommendations) {
		return models.SavedRecommendations{}, models.NewValidationError("recommendations", "must be valid JSON")
	}
	if !json.Valid(filters) {
		return models.SavedRecommendations{}, models.NewValidationError("filters", "must be valid JSON")
	}

	entry := models.SavedRecommendations{
		ID:              uuid.NewString(),
		ProfileID:       profileID,
		Recommendations: recommendations,
		Filters:         filters,
		SavedAt:         m.now().UTC(),
	}
	err := storage.MutateJSON(m.store, storage.KeySavedRecommendations, func() []models.SavedRecommendations { return []models.SavedRecommendations{} },
		func(items []models.SavedRecommendations) ([]models.SavedRecommendations, error) {
			return append(items, entry), nil
		})
	if err != nil {
		return models.SavedRecommendations{}, err
	}
	return entry, nil
}

// DeleteSavedRecommendations removes the snapshot with id.
func (m *Manager) DeleteSavedRecommendations(id string) error {
	return removeWhere(m.store, storage.KeySavedRecommendations, func(s models.SavedRecommendations) bool {
		return s.ID == id
	})
}

func (m *Manager) purgeRecommendations(profileID string) error {
	return removeWhere(m.store, storage.KeySavedRecommendations, func(s models.SavedRecommendations) bool {
		return s.ProfileID == profileID
	})
}
