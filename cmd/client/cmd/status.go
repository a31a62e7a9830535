package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"syncmesh/cmd/client/cmd/types"
	"syncmesh/internal/app/client"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the engine status",
	Long:  `Shows the engine switch, the local site id, and per-peer health.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok {
			return fmt.Errorf("application not initialized")
		}

		status, err := app.Status(cmd.Context())
		if err != nil {
			return fmt.Errorf("fetch status: %w", err)
		}

		if jsonOutput {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(status)
		}

		if status.Enabled {
			color.Green("Sync enabled")
		} else {
			color.Yellow("Sync disabled")
		}
		fmt.Printf("Site id: %s\n\n", status.SiteID)

		if len(status.Peers) == 0 {
			fmt.Println("No peers registered")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "PEER\tENABLED\tSTATUS\tLAST SYNC\t\n")
		for _, p := range status.Peers {
			lastSync := "-"
			if p.LastSyncAt != nil {
				lastSync = p.LastSyncAt.Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(w, "%s\t%v\t%s\t%s\t\n", p.Name, p.Enabled, p.Status, lastSync)
		}
		return w.Flush()
	},
}
