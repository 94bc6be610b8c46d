package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"simplstream/config"
	"simplstream/services/preferences"
)

func newThemeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "theme [light|dark|system]",
		Short: "Show or set the colour theme",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			if len(args) == 1 {
				theme, err := preferences.ParseTheme(args[0])
				if err != nil {
					return err
				}
				return a.preferences.SetTheme(theme)
			}
			theme, err := a.preferences.Theme()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), theme)
			return nil
		}),
	}
}

func newServerCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "server [key]",
		Short: "Show or set the preferred embed server",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			if len(args) == 1 {
				return a.preferences.SetPreferredServer(args[0])
			}
			key, ok, err := a.preferences.PreferredServer()
			if err != nil || !ok {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		}),
	}
}

func newAccessCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{Use: "access", Short: "Inspect and clear the profile-creation lock"}

	status := &cobra.Command{
		Use:   "status",
		Short: "Print whether profile creation is locked",
		RunE: withApp(flags, func(cmd *cobra.Command, _ []string, a *app) error {
			locked, err := a.access.Locked()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), locked)
			return nil
		}),
	}
	unlock := &cobra.Command{
		Use:   "unlock [token]",
		Short: "Clear the lock with a recovery token",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			return a.access.Unlock(args[0])
		}),
	}
	fail := &cobra.Command{
		Use:    "record-failure [subject]",
		Short:  "Count a suspicious failure against subject",
		Args:   cobra.ExactArgs(1),
		Hidden: true,
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			n, err := a.access.RecordFailure(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		}),
	}

	cmd.AddCommand(status, unlock, fail)
	return cmd
}

func newResetCmd(flags *globalFlags) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all local data",
		RunE: withApp(flags, func(cmd *cobra.Command, _ []string, a *app) error {
			if !yes {
				return errors.New("refusing to delete all data without --yes")
			}
			return a.profiles.DeleteAllData()
		}),
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm")
	return cmd
}

func newConfigCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Show or initialise the settings file"}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := config.NewManager(flags.configPath).Load()
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(settings)
		},
	}
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write default settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr := config.NewManager(flags.configPath)
			if err := mgr.Save(config.DefaultSettings()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), mgr.Path())
			return nil
		},
	}

	cmd.AddCommand(show, initCmd)
	return cmd
}
