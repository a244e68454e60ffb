package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/axellelanca/linkquota/cmd"
	customerrors "github.com/axellelanca/linkquota/internal/errors"
	"github.com/spf13/cobra"
)

var browserFlag bool

// OpenCmd resolves a short code like a browser would, consuming one click.
var OpenCmd = &cobra.Command{
	Use:   "open [short-code]",
	Short: "Resolve a short code and print its destination (uses one click).",
	Long: `Resolves a short code, consuming one click, and prints the destination URL.
With --browser the destination is also opened in the default browser.
` + singleProcessNote,
	Args: cobra.ExactArgs(1),
	RunE: func(cobraCmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		code := args[0]
		dest, err := a.LinkService.ResolveLink(ctx, code)
		if err != nil {
			switch {
			case errors.Is(err, customerrors.ErrNotFound):
				return fmt.Errorf("short code '%s' not found", code)
			case errors.Is(err, customerrors.ErrExpired):
				return fmt.Errorf("le lien '%s' a expiré et a été supprimé: %w", code, err)
			case errors.Is(err, customerrors.ErrQuotaExceeded):
				return fmt.Errorf("le lien '%s' a atteint son quota de clics: %w", code, err)
			}
			return fmt.Errorf("error resolving link: %w", err)
		}

		out := cobraCmd.OutOrStdout()
		fmt.Fprintln(out, dest)
		if browserFlag {
			if err := openBrowser(dest); err != nil {
				fmt.Fprintf(out, "Impossible d'ouvrir le navigateur (%v). Ouvrez l'URL manuellement.\n", err)
			}
		}
		return nil
	},
}

// ListCmd prints every link of a user.
var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a user's links with their click counts and expiry.",
	RunE: func(cobraCmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		user, err := a.UserService.GetUser(ctx, userIDFlag)
		if err != nil {
			return fmt.Errorf("failed to load user: %w", err)
		}
		links, err := a.LinkService.ListOwnerLinks(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("failed to list links: %w", err)
		}

		out := cobraCmd.OutOrStdout()
		if len(links) == 0 {
			fmt.Fprintln(out, "Aucun lien.")
			return nil
		}
		for i := range links {
			printLink(out, a, &links[i])
		}
		return nil
	},
}

// DeleteCmd removes one of the user's links.
var DeleteCmd = &cobra.Command{
	Use:   "delete [short-code]",
	Short: "Delete a link you own.",
	Long:  "Deletes a link owned by --user.\n" + singleProcessNote,
	Args:  cobra.ExactArgs(1),
	RunE: func(cobraCmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.LinkService.DeleteOwnerLink(ctx, userIDFlag, args[0]); err != nil {
			return fmt.Errorf("failed to delete link: %w", err)
		}
		fmt.Fprintf(cobraCmd.OutOrStdout(), "Lien '%s' supprimé.\n", args[0])
		return nil
	},
}

// SweepCmd removes expired links once, outside of the server's sweeper.
var SweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove every expired link now.",
	Long:  "Removes every expired link once. A running server sweeps on its own; use its POST /api/v1/admin/sweep instead.\n" + singleProcessNote,
	RunE: func(cobraCmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		removed, err := a.LinkService.SweepOnce(ctx, time.Now())
		if err != nil {
			return fmt.Errorf("failed to sweep expired links: %w", err)
		}
		fmt.Fprintf(cobraCmd.OutOrStdout(), "%d lien(s) expiré(s) supprimé(s).\n", removed)
		return nil
	},
}

func init() {
	OpenCmd.Flags().BoolVar(&browserFlag, "browser", false, "Also open the destination in the default browser")
	ListCmd.Flags().StringVar(&userIDFlag, "user", "", "ID of the user")
	ListCmd.MarkFlagRequired("user")
	DeleteCmd.Flags().StringVar(&userIDFlag, "user", "", "ID of the link owner")
	DeleteCmd.MarkFlagRequired("user")

	cmd.RootCmd.AddCommand(OpenCmd, ListCmd, DeleteCmd, SweepCmd)
}
