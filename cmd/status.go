package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"depctl/internal/config"
	"depctl/internal/health"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show adapter readiness from a running depctl instance",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}

		client := &http.Client{Timeout: 3 * time.Second}
		url := fmt.Sprintf("http://127.0.0.1:%d/adapters", cfg.Health.Port)
		resp, err := client.Get(url)
		if err != nil {
			return fmt.Errorf("is depctl up running? %w", err)
		}
		defer resp.Body.Close()

		var statuses []health.AdapterStatus
		if err := json.NewDecoder(resp.Body).Decode(&statuses); err != nil {
			return fmt.Errorf("decoding response from %s: %w", url, err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ADAPTER\tSTATE\tREADY\tLAST TRANSITION")
		for _, s := range statuses {
			fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", s.Name, s.State, s.Ready, s.LastTransition.Format(time.RFC3339))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
