package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/axellelanca/linkquota/cmd"
	"github.com/axellelanca/linkquota/internal/models"
	"github.com/spf13/cobra"
)

var (
	maxClicksFlag int
	ttlHoursFlag  int
)

// RegisterCmd creates a new user with the configured defaults.
var RegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new user and print its ID.",
	RunE: func(cobraCmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		user, err := a.UserService.RegisterUser(ctx)
		if err != nil {
			return fmt.Errorf("failed to register user: %w", err)
		}
		out := cobraCmd.OutOrStdout()
		fmt.Fprintln(out, "Utilisateur créé. Gardez cet identifiant:")
		printUser(out, user)
		return nil
	},
}

// UserCmd shows a user's link policy.
var UserCmd = &cobra.Command{
	Use:   "user [user-id]",
	Short: "Show a user's default click quota and TTL.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cobraCmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		user, err := a.UserService.GetUser(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to load user: %w", err)
		}
		printUser(cobraCmd.OutOrStdout(), user)
		return nil
	},
}

// SettingsCmd updates the defaults applied to a user's future links.
var SettingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Update a user's default click quota and TTL.",
	Long: `Changes the defaults used for links the user creates from now on.
Existing links keep their quota and expiry.

Exemple:
  linkquota settings --user=<id> --max-clicks=5 --ttl-hours=48`,
	RunE: func(cobraCmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		user, err := a.UserService.UpdateSettings(ctx, userIDFlag, maxClicksFlag, ttlHoursFlag)
		if err != nil {
			return fmt.Errorf("failed to update settings: %w", err)
		}
		out := cobraCmd.OutOrStdout()
		fmt.Fprintln(out, "Paramètres mis à jour.")
		printUser(out, user)
		return nil
	},
}

func printUser(w io.Writer, user *models.UserProfile) {
	fmt.Fprintf(w, "ID: %s\n", user.ID)
	fmt.Fprintf(w, "Quota de clics par défaut: %d\n", user.DefaultMaxClicks)
	fmt.Fprintf(w, "Durée de vie par défaut: %dh\n", user.TTLHours)
}

func init() {
	SettingsCmd.Flags().StringVar(&userIDFlag, "user", "", "ID of the user")
	SettingsCmd.Flags().IntVar(&maxClicksFlag, "max-clicks", 0, "Default click quota for new links")
	SettingsCmd.Flags().IntVar(&ttlHoursFlag, "ttl-hours", 0, "Default time-to-live for new links, in hours")
	SettingsCmd.MarkFlagRequired("user")
	SettingsCmd.MarkFlagRequired("max-clicks")
	SettingsCmd.MarkFlagRequired("ttl-hours")

	cmd.RootCmd.AddCommand(RegisterCmd, UserCmd, SettingsCmd)
}
