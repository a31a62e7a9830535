package peer

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

var listFormat string

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered peers",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok {
			return fmt.Errorf("application not initialized")
		}

		peers, err := app.ListPeers(cmd.Context())
		if err != nil {
			return fmt.Errorf("list peers: %w", err)
		}

		if listFormat == "json" {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(peers)
		}

		if len(peers) == 0 {
			fmt.Println("No peers registered")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "NAME\tURL\tENABLED\tSTATUS\tREMOTE SITE\tLAST SYNC\t\n")
		for _, p := range peers {
			lastSync := "-"
			if !p.LastSyncAt.IsZero() {
				lastSync = p.LastSyncAt.Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(w, "%s\t%s\t%v\t%s\t%s\t%s\t\n",
				p.Name, p.URL, p.Enabled, colorStatus(string(p.Status)), p.RemoteSiteID, lastSync)
		}
		return w.Flush()
	},
}

func colorStatus(status string) string {
	switch status {
	case "Active":
		return color.GreenString(status)
	case "Error":
		return color.RedString(status)
	default:
		return color.YellowString(status)
	}
}

func init() {
	ListCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "output format (table, json)")
}
