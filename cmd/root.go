// Package cmd implements the depctl command line interface.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "depctl",
	Short: "Coordinated dependency startup for local development",
	Long: `depctl evaluates each configured service dependency, binds to
host-level instances where possible, provisions containers where not,
and initializes the application's adapters with readiness tracking.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
