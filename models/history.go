package models

import (
	"strconv"
	"time"
)

// WatchHistory is one viewing event. The store is append-only; presentation
// layers collapse it to the latest event per title.
type WatchHistory struct {
	ID          string    `json:"id"`
	ProfileID   string    `json:"profile_id"`
	TMDBID      *int      `json:"tmdb_id,omitempty"`
	MediaType   MediaType `json:"media_type" validate:"required,oneof=movie tv live"`
	Title       string    `json:"title" validate:"required"`
	PosterPath  string    `json:"poster_path,omitempty"`
	Season      *int      `json:"season,omitempty" validate:"omitempty,gte=0"`
	Episode     *int      `json:"episode,omitempty" validate:"omitempty,gte=0"`
	Position    float64   `json:"position" validate:"gte=0"`
	Duration    float64   `json:"duration" validate:"gte=0"`
	LastWatched time.Time `json:"last_watched"`
	CreatedAt   time.Time `json:"created_at"`
}

// TitleKey identifies the title an event belongs to, ignoring season and episode.
func (h WatchHistory) TitleKey() string {
	if h.TMDBID != nil {
		return string(h.MediaType) + ":" + strconv.Itoa(*h.TMDBID)
	}
	return string(h.MediaType) + ":title:" + h.Title
}
