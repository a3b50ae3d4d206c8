package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"depctl/internal/app"
	"depctl/internal/config"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Show what up would do, without provisioning anything",
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

		decisions, err := a.EvaluateOnly(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SERVICE\tACTION\tREASON")
		for _, d := range decisions {
			fmt.Fprintf(w, "%s\t%s\t%s\n", d.Service, d.Action, d.Reason)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
}
