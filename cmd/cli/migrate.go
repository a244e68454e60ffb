package cli

import (
	"fmt"

	"github.com/axellelanca/linkquota/cmd"
	"github.com/axellelanca/linkquota/internal/repository"
	"github.com/spf13/cobra"
)

// MigrateCmd represents the 'migrate' command
// This command handles database schema creation and updates
var MigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Executes database migrations to create or update tables.",
	Long: `This command connects to the configured database (SQLite)
and executes GORM automatic migrations to create the 'links' and 'user_profiles'
tables based on the Go models.`,
	RunE: func(cobraCmd *cobra.Command, args []string) error {
		// Open runs the migrations before returning
		db, err := repository.Open(cmd.Cfg.Database.Name)
		if err != nil {
			return err
		}
		defer repository.Close(db)

		fmt.Fprintln(cobraCmd.OutOrStdout(), "Database migrations executed successfully.")
		return nil
	},
}

func init() {
	cmd.RootCmd.AddCommand(MigrateCmd)
}
