package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"simplstream/models"
)

func parseTMDB(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, models.NewValidationError("tmdb_id", "must be a positive integer")
	}
	return id, nil
}

func optionalTMDB(id int) *int {
	if id <= 0 {
		return nil
	}
	return models.IntPtr(id)
}

func newWatchlistCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{Use: "watchlist", Short: "Manage a profile's watchlist"}

	var item models.WatchlistItem
	var tmdb int
	var mediaType string
	add := &cobra.Command{
		Use:   "add [profile-id] [title]",
		Short: "Save a title",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			item.ProfileID, item.Title = args[0], args[1]
			item.TMDBID = optionalTMDB(tmdb)
			item.MediaType = models.MediaType(mediaType)
			added, err := a.collections.AddToWatchlist(item)
			if err != nil {
				return err
			}
			if !added {
				fmt.Fprintln(cmd.OutOrStdout(), "already in watchlist")
			}
			return nil
		}),
	}
	add.Flags().IntVar(&tmdb, "tmdb", 0, "catalog id")
	add.Flags().StringVar(&mediaType, "type", string(models.MediaMovie), "movie, tv or live")
	add.Flags().StringVar(&item.PosterPath, "poster", "", "poster path")
	add.Flags().StringVar(&item.EmbedURL, "embed", "", "embed URL for live channels")

	list := &cobra.Command{
		Use:   "list [profile-id]",
		Short: "List saved titles",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			items, err := a.collections.WatchlistFor(args[0])
			if err != nil {
				return err
			}
			for _, w := range items {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", w.Key(), w.MediaType, w.Title)
			}
			return nil
		}),
	}

	remove := &cobra.Command{
		Use:   "remove [profile-id] [tmdb-id]",
		Short: "Remove a title",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			id, err := parseTMDB(args[1])
			if err != nil {
				return a.collections.RemoveWatchlistKey(args[0], args[1])
			}
			return a.collections.RemoveFromWatchlist(args[0], id)
		}),
	}

	cmd.AddCommand(add, list, remove)
	return cmd
}

func newHistoryCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{Use: "history", Short: "Record and inspect watch history"}

	var h models.WatchHistory
	var tmdb, season, episode int
	var mediaType string
	record := &cobra.Command{
		Use:   "record [profile-id] [title]",
		Short: "Record a viewing event",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			h.ProfileID, h.Title = args[0], args[1]
			h.TMDBID = optionalTMDB(tmdb)
			h.MediaType = models.MediaType(mediaType)
			if cmd.Flags().Changed("season") {
				h.Season = models.IntPtr(season)
			}
			if cmd.Flags().Changed("episode") {
				h.Episode = models.IntPtr(episode)
			}
			saved, err := a.collections.RecordWatch(h)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), saved.ID)
			return nil
		}),
	}
	record.Flags().IntVar(&tmdb, "tmdb", 0, "catalog id")
	record.Flags().StringVar(&mediaType, "type", string(models.MediaMovie), "movie, tv or live")
	record.Flags().IntVar(&season, "season", 0, "season number")
	record.Flags().IntVar(&episode, "episode", 0, "episode number")
	record.Flags().Float64Var(&h.Position, "position", 0, "playback position in seconds")
	record.Flags().Float64Var(&h.Duration, "duration", 0, "duration in seconds")

	var all bool
	list := &cobra.Command{
		Use:   "list [profile-id]",
		Short: "Continue-watching rows; --all lists every event",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			var rows []models.WatchHistory
			var err error
			if all {
				rows, err = a.collections.HistoryFor(args[0])
			} else {
				rows, err = a.collections.ContinueWatching(args[0])
			}
			if err != nil {
				return err
			}
			for _, r := range rows {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%.0f/%.0f\t%s\n", r.TitleKey(), r.Title, r.Position, r.Duration, r.LastWatched.Format("2006-01-02 15:04"))
			}
			return nil
		}),
	}
	list.Flags().BoolVar(&all, "all", false, "list every event")

	cmd.AddCommand(record, list)
	return cmd
}

func newRatingsCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{Use: "ratings", Short: "Rate titles"}

	var mediaType string
	var genres []string
	rate := &cobra.Command{
		Use:   "set [profile-id] [tmdb-id] [1-5]",
		Short: "Rate a title",
		Args:  cobra.ExactArgs(3),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			tmdb, err := parseTMDB(args[1])
			if err != nil {
				return err
			}
			score, err := strconv.Atoi(args[2])
			if err != nil {
				return models.NewValidationError("rating", "must be a number")
			}
			r := models.Rating{ProfileID: args[0], TMDBID: tmdb, MediaType: models.MediaType(mediaType), Rating: score}
			for i, g := range genres {
				r.Genres = append(r.Genres, models.Genre{ID: i, Name: g})
			}
			_, err = a.collections.Rate(r)
			return err
		}),
	}
	rate.Flags().StringVar(&mediaType, "type", string(models.MediaMovie), "movie or tv")
	rate.Flags().StringSliceVar(&genres, "genre", nil, "genre names")

	list := &cobra.Command{
		Use:   "list [profile-id]",
		Short: "List a profile's ratings",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			rows, err := a.collections.RatingsFor(args[0])
			if err != nil {
				return err
			}
			for _, r := range rows {
				fmt.Fprintf(cmd.OutOrStdout(), "%s/%d\t%d\n", r.MediaType, r.TMDBID, r.Rating)
			}
			return nil
		}),
	}

	cmd.AddCommand(rate, list)
	return cmd
}

func newSearchCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{Use: "search", Short: "Manage search history"}

	add := &cobra.Command{
		Use:   "add [profile-id] [query]",
		Short: "Remember a query if the profile keeps search history",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			enabled, err := a.profiles.SearchHistoryEnabled(args[0])
			if err != nil || !enabled {
				return err
			}
			return a.collections.AddSearch(args[0], args[1])
		}),
	}
	list := &cobra.Command{
		Use:   "list [profile-id]",
		Short: "List recent queries",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			queries, err := a.collections.SearchHistory(args[0])
			if err != nil {
				return err
			}
			for _, q := range queries {
				fmt.Fprintln(cmd.OutOrStdout(), q)
			}
			return nil
		}),
	}
	clearCmd := &cobra.Command{
		Use:   "clear [profile-id]",
		Short: "Forget every query",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			return a.collections.ClearSearchHistory(args[0])
		}),
	}
	toggle := &cobra.Command{
		Use:   "enable [profile-id] [true|false]",
		Short: "Turn search history on or off",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			on, err := strconv.ParseBool(args[1])
			if err != nil {
				return models.NewValidationError("enabled", "must be true or false")
			}
			return a.profiles.SetSearchHistoryEnabled(args[0], on)
		}),
	}

	cmd.AddCommand(add, list, clearCmd, toggle)
	return cmd
}

func newChannelsCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{Use: "channels", Short: "Pin live channels"}

	toggle := &cobra.Command{
		Use:   "toggle [profile-id] [channel]",
		Short: "Pin or unpin a channel",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			pinned, err := a.collections.TogglePinned(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), pinned)
			return nil
		}),
	}
	list := &cobra.Command{
		Use:   "list [profile-id]",
		Short: "List pinned channels",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			names, err := a.collections.PinnedChannels(args[0])
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		}),
	}

	cmd.AddCommand(toggle, list)
	return cmd
}

func newAvatarCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{Use: "avatar", Short: "Manage custom avatars"}

	var avatar models.CustomAvatar
	set := &cobra.Command{
		Use:   "set [profile-id] [url]",
		Short: "Set a custom avatar",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			avatar.URL = args[1]
			return a.collections.SetAvatar(args[0], avatar)
		}),
	}
	set.Flags().Float64Var(&avatar.Position.X, "x", 50, "horizontal focus, percent")
	set.Flags().Float64Var(&avatar.Position.Y, "y", 50, "vertical focus, percent")
	set.Flags().Float64Var(&avatar.Zoom, "zoom", 1, "zoom factor")

	show := &cobra.Command{
		Use:   "show [profile-id]",
		Short: "Print the custom avatar",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			av, ok, err := a.collections.Avatar(args[0])
			if err != nil || !ok {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%.0f,%.0f\t%.2f\n", av.URL, av.Position.X, av.Position.Y, av.Zoom)
			return nil
		}),
	}
	clearCmd := &cobra.Command{
		Use:   "clear [profile-id]",
		Short: "Remove the custom avatar",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			return a.collections.ClearAvatar(args[0])
		}),
	}

	cmd.AddCommand(set, show, clearCmd)
	return cmd
}

func newRecommendationsCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{Use: "recommendations", Aliases: []string{"recs"}, Short: "Keep recommendation runs"}

	var filters string
	save := &cobra.Command{
		Use:   "save [profile-id] [json-array]",
		Short: "Save a recommendation run",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			saved, err := a.collections.SaveRecommendations(args[0], json.RawMessage(args[1]), json.RawMessage(filters))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), saved.ID)
			return nil
		}),
	}
	save.Flags().StringVar(&filters, "filters", "{}", "filters as a JSON object")

	list := &cobra.Command{
		Use:   "list [profile-id]",
		Short: "List saved runs",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			rows, err := a.collections.SavedRecommendations(args[0])
			if err != nil {
				return err
			}
			for _, r := range rows {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", r.ID, r.SavedAt.Format("2006-01-02 15:04"), r.Filters)
			}
			return nil
		}),
	}
	del := &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a saved run",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			return a.collections.DeleteSavedRecommendations(args[0])
		}),
	}

	cmd.AddCommand(save, list, del)
	return cmd
}
