package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"

	"github.com/spf13/cobra"

	"simplstream/config"
	"simplstream/internal/logging"
	"simplstream/services/auth"
	"simplstream/services/collections"
	"simplstream/services/preferences"
	"simplstream/services/profiles"
	"simplstream/services/transfer"
)

// globalFlags are bound on the root command.
type globalFlags struct {
	configPath string
	dataDir    string
	backend    string
	verbose    bool
}

// app is the wired set of services one command invocation works with.
type app struct {
	settings    config.Settings
	backend     *config.Backend
	logCloser   io.Closer
	profiles    *profiles.Service
	collections *collections.Manager
	access      *auth.AccessLock
	transfer    *transfer.Service
	preferences *preferences.Service
}

func openApp(flags *globalFlags) (*app, error) {
	settings, err := config.NewManager(flags.configPath).Load()
	if err != nil {
		return nil, err
	}
	if flags.backend != "" {
		settings.Storage.Backend = flags.backend
	}
	if flags.dataDir != "" {
		name := "simplstream.db"
		if settings.Storage.Backend == config.BackendBadger {
			name = "badger"
		}
		settings.Storage.Path = filepath.Join(flags.dataDir, name)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	logOpts := settings.Logging.Options()
	logOpts.Quiet = !flags.verbose
	closer, err := logging.Setup(logOpts)
	if err != nil {
		return nil, fmt.Errorf("setup logging: %w", err)
	}

	backend, err := config.OpenStore(settings.Storage)
	if err != nil {
		closer.Close()
		return nil, err
	}

	store := backend.Store
	access := auth.NewAccessLock(store)
	ps := profiles.NewService(store,
		profiles.WithMaxProfiles(settings.Profiles.MaxProfiles),
		profiles.WithAccessGate(access),
	)
	cm := collections.NewManager(store, collections.WithProfileSecurity(ps))
	ps.RegisterPurger(cm)
	ps.RegisterPurger(access)

	return &app{
		settings:    settings,
		backend:     backend,
		logCloser:   closer,
		profiles:    ps,
		collections: cm,
		access:      access,
		transfer:    transfer.NewService(ps, cm),
		preferences: preferences.NewService(store),
	}, nil
}

func (a *app) Close() error {
	err := errors.Join(a.backend.Close(), a.logCloser.Close())
	if err != nil {
		log.Printf("[cli] close: %v", err)
	}
	return err
}

func (a *app) newGate() *auth.Gate {
	return auth.NewGate(a.profiles, auth.WithRecoveryScope(a.settings.Auth.RecoveryScope()))
}

// withApp opens the services for the duration of fn.
func withApp(flags *globalFlags, fn func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(flags)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd, args, a)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "simplstream",
		Short:         "Manage simplstream profiles and their local data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", filepath.Join(config.DefaultDataDir(), "settings.json"), "settings file")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "directory holding the store (overrides settings)")
	root.PersistentFlags().StringVar(&flags.backend, "backend", "", "storage backend: sqlite, badger or memory")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log to stderr")

	root.AddCommand(
		newProfilesCmd(flags),
		newWatchlistCmd(flags),
		newHistoryCmd(flags),
		newRatingsCmd(flags),
		newSearchCmd(flags),
		newChannelsCmd(flags),
		newAvatarCmd(flags),
		newRecommendationsCmd(flags),
		newExportCmd(flags),
		newImportCmd(flags),
		newThemeCmd(flags),
		newServerCmd(flags),
		newAccessCmd(flags),
		newResetCmd(flags),
		newConfigCmd(flags),
	)
	return root
}
