package cli

import (
	"context"
	"fmt"

	"github.com/axellelanca/linkquota/cmd"
	"github.com/spf13/cobra"
)

var longURLFlag string

// CreateCmd représente la commande 'create'
var CreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Crée une URL courte à partir d'une URL longue.",
	Long: `Cette commande raccourcit une URL longue pour un utilisateur et affiche le code court généré.
Le quota de clics et la durée de vie viennent des paramètres de l'utilisateur.

Exemple:
  linkquota create --user=<id> --url="https://www.google.com/search?q=go+lang"
` + singleProcessNote,
	RunE: func(cobraCmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		link, err := a.LinkService.CreateLink(ctx, userIDFlag, longURLFlag)
		if err != nil {
			return fmt.Errorf("failed to create short link: %w", err)
		}

		out := cobraCmd.OutOrStdout()
		fmt.Fprintf(out, "URL courte créée avec succès:\n")
		fmt.Fprintf(out, "Code: %s\n", link.ShortCode)
		fmt.Fprintf(out, "URL complète: %s\n", a.Cfg.ShortURL(link.ShortCode))
		fmt.Fprintf(out, "Quota: %d clics, expire le %s\n", link.MaxClicks, link.ExpiresAt.Local().Format("2006-01-02 15:04:05"))
		return nil
	},
}

func init() {
	CreateCmd.Flags().StringVar(&longURLFlag, "url", "", "The long URL to shorten")
	CreateCmd.Flags().StringVar(&userIDFlag, "user", "", "ID of the user creating the link")
	CreateCmd.MarkFlagRequired("url")
	CreateCmd.MarkFlagRequired("user")

	cmd.RootCmd.AddCommand(CreateCmd)
}
