package storage

// Namespaced keys. The strings are shared with existing front-end data and
// must not change.
const (
	KeyProfiles             = "simplstream_profiles"
	KeyWatchHistory         = "simplstream_watch_history"
	KeyWatchlist            = "simplstream_watchlist"
	KeyTheme                = "simplstream_theme"
	KeyPreferredServer      = "simplstream_preferred_server"
	KeySearchHistory        = "simplstream_search_history"
	KeyCustomAvatars        = "simplstream_custom_avatars"
	KeyRatings              = "simplstream_ratings"
	KeySavedRecommendations = "simplstream_saved_recommendations"
	KeyPinnedChannels       = "simplstream_pinned_channels"
	KeyFailedAttempts       = "simplstream_failed_attempts"
	KeyAccessLocked         = "simplstream_access_locked"
)

// AllKeys lists every key owned by the data layer, for factory resets.
func AllKeys() []string {
	return []string{
		KeyProfiles,
		KeyWatchHistory,
		KeyWatchlist,
		KeyTheme,
		KeyPreferredServer,
		KeySearchHistory,
		KeyCustomAvatars,
		KeyRatings,
		KeySavedRecommendations,
		KeyPinnedChannels,
		KeyFailedAttempts,
		KeyAccessLocked,
	}
}
