package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/axellelanca/linkquota/cmd"
	customerrors "github.com/axellelanca/linkquota/internal/errors"
	"github.com/spf13/cobra"
)

// StatsCmd représente la commande 'stats'
var StatsCmd = &cobra.Command{
	Use:   "stats [short-code]",
	Short: "Get statistics for a short URL",
	Long:  `Show the click count, quota and expiry of a short code without consuming a click.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	cmd.RootCmd.AddCommand(StatsCmd)
}

// runStats exécute la logique pour la commande stats
func runStats(cobraCmd *cobra.Command, args []string) error {
	shortCode := args[0]

	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	link, err := a.LinkService.GetLink(ctx, shortCode)
	if err != nil {
		if errors.Is(err, customerrors.ErrNotFound) {
			return fmt.Errorf("short code '%s' not found", shortCode)
		}
		return fmt.Errorf("error retrieving statistics: %w", err)
	}

	out := cobraCmd.OutOrStdout()
	fmt.Fprintf(out, "Statistiques pour le code court: %s\n", shortCode)
	fmt.Fprintf(out, "URL longue: %s\n", link.LongURL)
	fmt.Fprintf(out, "Clics: %d/%d\n", link.ClickCount, link.MaxClicks)
	fmt.Fprintf(out, "Actif: %t\n", link.Active)
	fmt.Fprintf(out, "Date de création: %s\n", link.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Date d'expiration: %s\n", link.ExpiresAt.Local().Format("2006-01-02 15:04:05"))
	return nil
}
