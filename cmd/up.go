package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"depctl/internal/app"
	"depctl/internal/config"
	"depctl/pkg/logging"
)

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Evaluate dependencies, provision what is missing, and run",
	Long: `Evaluates every configured service dependency, provisions
containers for the ones with no usable host-level instance, initializes
adapters, and serves readiness until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		initLogging(cfg)

		a, err := app.New(cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := a.Run(ctx); err != nil {
			return fmt.Errorf("startup failed: %w", err)
		}
		return nil
	},
}

func initLogging(cfg config.Config) {
	logging.Init(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format, os.Stderr)
}

func init() {
	rootCmd.AddCommand(upCmd)
}
