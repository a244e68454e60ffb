package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/axellelanca/linkquota/internal/config"
	"github.com/spf13/cobra"
)

// Cfg is the global variable that will contain the loaded configuration
// It will be accessible to all Cobra commands throughout the application
var Cfg *config.Config

// RootCmd is the base command for the CLI application
// All other commands register themselves as subcommands from their own init().
var RootCmd = &cobra.Command{
	Use:   "linkquota",
	Short: "A URL shortener with per-link click quotas and expiry",
	Long: `linkquota creates short links that stop working after a number of clicks
or once their time-to-live has elapsed. Each user has a default quota and TTL
applied to the links they create. Expired links are removed by a background sweeper.`,
	// errors returned by a command are runtime failures, not usage mistakes
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the main entry point for the Cobra application
// It is called from 'main.go' and handles command execution and error handling
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Set up configuration initialization to run before any command executes
	cobra.OnInitialize(initConfig)

	// IMPORTANT: We don't call RootCmd.AddCommand() directly here.
	// Commands register themselves via their own init() functions,
	// which avoids import cycles between cmd and its subpackages.
}

// initConfig loads the application configuration before any command runs.
// Settings are validated once here; an invalid configuration stops the program.
func initConfig() {
	var err error

	Cfg, err = config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Problem loading configuration: %v", err)
	}
}
