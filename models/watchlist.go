package models

import (
	"strconv"
	"strings"
	"time"
)

// MediaType enumerates the kinds of titles the front-end can save or play.
type MediaType string

const (
	MediaMovie MediaType = "movie"
	MediaTV    MediaType = "tv"
	MediaLive  MediaType = "live"
)

// Valid reports whether m is one of the known media types.
func (m MediaType) Valid() bool {
	switch m {
	case MediaMovie, MediaTV, MediaLive:
		return true
	}
	return false
}

// WatchlistItem represents a title saved by a profile for later.
type WatchlistItem struct {
	ID         string    `json:"id"`
	ProfileID  string    `json:"profile_id"`
	TMDBID     *int      `json:"tmdb_id,omitempty"`
	MediaType  MediaType `json:"media_type" validate:"required,oneof=movie tv live"`
	Title      string    `json:"title" validate:"required"`
	PosterPath string    `json:"poster_path,omitempty"`
	EmbedURL   string    `json:"embed_url,omitempty"` // live channels only
	CreatedAt  time.Time `json:"created_at"`
}

// Key returns the per-profile identity of the item. Catalog titles are keyed by
// TMDB id; non-catalog entries (live channels) fall back to media type and title.
func (w WatchlistItem) Key() string {
	if w.TMDBID != nil {
		return "tmdb:" + strconv.Itoa(*w.TMDBID)
	}
	return string(w.MediaType) + ":" + strings.ToLower(strings.TrimSpace(w.Title))
}
