package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"simplstream/models"
	"simplstream/services/auth"
	"simplstream/services/collections"
	"simplstream/utils"
)

func newProfilesCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "profiles",
		Aliases: []string{"profile", "p"},
		Short:   "Create, edit and unlock profiles",
	}

	var input models.ProfileInput
	create := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a profile",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			input.Name = args[0]
			if input.PIN != "" && input.ConfirmPIN == "" {
				input.ConfirmPIN = input.PIN
			}
			p, err := a.profiles.Create(input)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", p.ID, p.Name)
			return nil
		}),
	}
	create.Flags().StringVar(&input.AvatarColor, "color", "", "avatar colour token")
	create.Flags().StringVar(&input.PIN, "pin", "", "4-digit PIN")
	create.Flags().StringVar(&input.ConfirmPIN, "confirm-pin", "", "PIN confirmation (defaults to --pin)")
	create.Flags().StringVar(&input.SecurityWord, "security-word", "", "word that recovers the PIN")

	list := &cobra.Command{
		Use:   "list",
		Short: "List profiles",
		RunE: withApp(flags, func(cmd *cobra.Command, _ []string, a *app) error {
			list, err := a.profiles.List()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, p := range list {
				lock := ""
				if p.HasPIN() {
					lock = "\tlocked"
				}
				fmt.Fprintf(out, "%s\t%s\t%s\t%s%s\n", p.ID, utils.Initials(p.Name), p.Name, p.AvatarColor, lock)
			}
			if ok, reason := a.profiles.CanCreate(); !ok {
				fmt.Fprintf(out, "# %s\n", reason)
			}
			return nil
		}),
	}

	rename := &cobra.Command{
		Use:   "rename [id] [name]",
		Short: "Rename a profile",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			_, err := a.profiles.Rename(args[0], args[1])
			return err
		}),
	}

	var deletePIN string
	del := &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a profile and everything stored for it",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			if err := requirePIN(a, args[0], deletePIN, auth.ActionDelete); err != nil {
				return err
			}
			return a.profiles.Delete(args[0])
		}),
	}
	del.Flags().StringVar(&deletePIN, "pin", "", "PIN of a protected profile")

	var pin, word string
	passcode := &cobra.Command{
		Use:   "passcode [id]",
		Short: "Add or change a profile PIN",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			p, err := a.profiles.Get(args[0])
			if err != nil {
				return err
			}
			if p.HasPIN() {
				_, err = a.profiles.ChangePasscode(p.ID, pin, pin)
			} else {
				_, err = a.profiles.AddPasscode(p.ID, pin, pin, word)
			}
			return err
		}),
	}
	passcode.Flags().StringVar(&pin, "pin", "", "new 4-digit PIN")
	passcode.Flags().StringVar(&word, "security-word", "", "security word, required when adding a PIN")

	var removeWatchlist, removeHistory, removeSecurity bool
	removeData := &cobra.Command{
		Use:   "remove-data [id]",
		Short: "Remove selected data from a profile",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			opts := collections.PurgeOptions{Watchlist: removeWatchlist, WatchHistory: removeHistory, Security: removeSecurity}
			if err := a.collections.RemoveProfileData(args[0], opts); err != nil {
				return err
			}
			if removeHistory {
				return a.collections.ClearSearchHistory(args[0])
			}
			return nil
		}),
	}
	removeData.Flags().BoolVar(&removeWatchlist, "watchlist", false, "remove the watchlist")
	removeData.Flags().BoolVar(&removeHistory, "history", false, "remove watch history, ratings and searches")
	removeData.Flags().BoolVar(&removeSecurity, "security", false, "remove PIN and security word")

	var wait bool
	unlock := &cobra.Command{
		Use:   "unlock [id]",
		Short: "Enter a profile PIN, one attempt per input line",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			return runUnlock(cmd, a, args[0], wait)
		}),
	}
	unlock.Flags().BoolVar(&wait, "wait", false, "wait out lockouts instead of failing")

	recoverCmd := &cobra.Command{
		Use:   "recover [id]",
		Short: "Reveal a profile PIN with its security word, one attempt per input line",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			return runRecover(cmd, a, args[0])
		}),
	}

	welcome := &cobra.Command{
		Use:   "welcome [id]",
		Short: "Show whether the welcome flow is pending; --dismiss closes it",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			if dismiss, _ := cmd.Flags().GetBool("dismiss"); dismiss {
				return a.profiles.DismissWelcome(args[0])
			}
			pending, err := a.profiles.WelcomePending(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), pending)
			return nil
		}),
	}
	welcome.Flags().Bool("dismiss", false, "dismiss the welcome flow")

	cmd.AddCommand(create, list, rename, del, passcode, removeData, unlock, recoverCmd, welcome)
	return cmd
}

// requirePIN checks pin for protected profiles before a sensitive action.
func requirePIN(a *app, profileID, pin string, action auth.Action) error {
	p, err := a.profiles.Get(profileID)
	if err != nil {
		return err
	}
	gate := a.newGate()
	if gate.Select(p, action) == auth.Success {
		return nil
	}
	if pin == "" {
		return models.NewValidationError("pin", "profile is protected")
	}
	_, err = gate.SubmitPIN(pin)
	return err
}

func runUnlock(cmd *cobra.Command, a *app, profileID string, wait bool) error {
	p, err := a.profiles.Get(profileID)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	gate := a.newGate()
	if gate.Select(p, auth.ActionSelect) == auth.Success {
		fmt.Fprintln(out, "unlocked")
		return nil
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		res, err := gate.SubmitPIN(utils.SanitizePINInput(scanner.Text()))
		var locked *models.LockedOutError
		switch {
		case err == nil:
			fmt.Fprintln(out, "unlocked")
			return nil
		case errors.Is(err, auth.ErrIncorrectPIN):
			fmt.Fprintf(out, "incorrect PIN, %d attempts remaining\n", res.Remaining)
		case errors.As(err, &locked):
			fmt.Fprintf(out, "locked for %ds\n", locked.RemainingSeconds())
			if res.RecoveryOffered {
				fmt.Fprintln(out, "forgot your PIN? run: simplstream profiles recover", profileID)
			}
			if !wait {
				return err
			}
			waitForUnlock(cmd.Context(), gate)
			fmt.Fprintln(out, "lock expired, try again")
		default:
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return auth.ErrIncorrectPIN
}

func waitForUnlock(ctx context.Context, gate *auth.Gate) {
	if ctx == nil {
		ctx = context.Background()
	}
	released := make(chan struct{}, 1)
	stop := gate.Watch(ctx, time.Second, func() {
		select {
		case released <- struct{}{}:
		default:
		}
	})
	defer stop()
	select {
	case <-released:
	case <-ctx.Done():
	}
}

func runRecover(cmd *cobra.Command, a *app, profileID string) error {
	p, err := a.profiles.Get(profileID)
	if err != nil {
		return err
	}
	gate := a.newGate()
	gate.Select(p, auth.ActionSelect)
	if err := gate.BeginRecovery(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		rec, err := gate.SubmitSecurityWord(scanner.Text())
		switch {
		case err == nil:
			if rec.ProfileID != profileID {
				fmt.Fprintf(out, "PIN for profile %s: %s\n", rec.ProfileID, rec.PIN)
			} else {
				fmt.Fprintf(out, "PIN: %s\n", rec.PIN)
			}
			return nil
		case errors.Is(err, auth.ErrIncorrectSecurityWord):
			fmt.Fprintf(out, "incorrect security word, %d attempts remaining\n", gate.SecurityAttemptsRemaining())
		default:
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return auth.ErrIncorrectSecurityWord
}
