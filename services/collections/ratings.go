package collections

import (
	"fmt"

	"github.com/google/uuid"

	"simplstream/internal/storage"
	"simplstream/models"
	"simplstream/utils"
)

// Ratings returns every rating across all profiles.
func (m *Manager) Ratings() ([]models.Rating, error) {
	return readSlice[models.Rating](m.store, storage.KeyRatings, nil)
}

// RatingsFor returns profileID's ratings.
func (m *Manager) RatingsFor(profileID string) ([]models.Rating, error) {
	return readSlice(m.store, storage.KeyRatings, func(r models.Rating) bool {
		return r.ProfileID == profileID
	})
}

// Rate inserts or replaces the profile's rating for a title. A replaced rating
// keeps its id and created_at.
func (m *Manager) Rate(r models.Rating) (models.Rating, error) {
	if err := requireProfile(r.ProfileID); err != nil {
		return models.Rating{}, err
	}
	if err := utils.ValidateStruct(r); err != nil {
		return models.Rating{}, err
	}
	if r.Genres == nil {
		r.Genres = []models.Genre{}
	}

	now := m.now().UTC()
	var saved models.Rating
	err := storage.MutateJSON(m.store, storage.KeyRatings, func() []models.Rating { return []models.Rating{} },
		func(items []models.Rating) ([]models.Rating, error) {
			next := r
			next.UpdatedAt = now
			for i := range items {
				if !items[i].SameTitle(r) {
					continue
				}
				next.ID = items[i].ID
				next.CreatedAt = items[i].CreatedAt
				if next.CreatedAt.IsZero() {
					next.CreatedAt = now
				}
				items[i] = next
				saved = next
				return items, nil
			}
			if next.ID == "" {
				next.ID = uuid.NewString()
			}
			if next.CreatedAt.IsZero() {
				next.CreatedAt = now
			}
			saved = next
			return append(items, next), nil
		})
	if err != nil {
		return models.Rating{}, err
	}
	return saved, nil
}

// Rating returns profileID's rating for a title.
func (m *Manager) Rating(profileID string, tmdbID int, mediaType models.MediaType) (models.Rating, error) {
	items, err := m.RatingsFor(profileID)
	if err != nil {
		return models.Rating{}, err
	}
	for _, r := range items {
		if r.TMDBID == tmdbID && r.MediaType == mediaType {
			return r, nil
		}
	}
	return models.Rating{}, fmt.Errorf("rating %s/%d: %w", mediaType, tmdbID, models.ErrNotFound)
}

func (m *Manager) purgeRatings(profileID string) error {
	return removeWhere(m.store, storage.KeyRatings, func(r models.Rating) bool {
		return r.ProfileID == profileID
	})
}
