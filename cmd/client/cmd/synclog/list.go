package synclog

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

var (
	listStatus    string
	listDirection string
	listDoctype   string
	listPeer      string
	listLimit     int
	listFormat    string
)

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sync log entries",
	Long:  `Lists the newest sync log entries, optionally filtered by status, direction, doctype, or peer.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok {
			return fmt.Errorf("application not initialized")
		}

		logs, err := app.ListLogs(cmd.Context(), client.LogFilter{
			Status:    listStatus,
			Direction: listDirection,
			Doctype:   listDoctype,
			Peer:      listPeer,
			Limit:     listLimit,
		})
		if err != nil {
			return fmt.Errorf("list logs: %w", err)
		}

		if listFormat == "json" {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(logs)
		}

		if len(logs) == 0 {
			fmt.Println("No log entries found")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "ID\tDOCTYPE\tDOCUMENT\tEVENT\tDIR\tSTATUS\tPEER\tRETRIES\tCREATED\t\n")
		for _, l := range logs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\t\n",
				shortID(l.ID), l.Doctype, l.DocumentName, l.Event, l.Direction,
				colorStatus(string(l.Status)), l.Peer, l.RetryCount,
				l.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return w.Flush()
	},
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func colorStatus(status string) string {
	switch status {
	case "Success":
		return color.GreenString(status)
	case "Failed":
		return color.RedString(status)
	case "Skipped":
		return color.YellowString(status)
	default:
		return status
	}
}

func init() {
	ListCmd.Flags().StringVar(&listStatus, "status", "", "filter by status (Queued, Success, Failed, Skipped)")
	ListCmd.Flags().StringVar(&listDirection, "direction", "", "filter by direction (Incoming, Outgoing)")
	ListCmd.Flags().StringVar(&listDoctype, "doctype", "", "filter by doctype")
	ListCmd.Flags().StringVar(&listPeer, "peer", "", "filter by peer name")
	ListCmd.Flags().IntVar(&listLimit, "limit", 100, "maximum entries to return")
	ListCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "output format (table, json)")
}
