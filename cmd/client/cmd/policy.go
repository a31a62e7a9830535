package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"syncmesh/cmd/client/cmd/types"
	"syncmesh/internal/app/client"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Inspect sync policies",
}

var policyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List per-doctype sync policies",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok {
			return fmt.Errorf("application not initialized")
		}

		policies, err := app.ListPolicies(cmd.Context())
		if err != nil {
			return fmt.Errorf("list policies: %w", err)
		}

		if jsonOutput {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(policies)
		}

		if len(policies) == 0 {
			fmt.Println("No policies configured")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "DOCTYPE\tINSERT\tUPDATE\tDELETE\tCONFLICT STRATEGY\t\n")
		for _, p := range policies {
			fmt.Fprintf(w, "%s\t%v\t%v\t%v\t%s\t\n",
				p.Doctype, p.SyncInsert, p.SyncUpdate, p.SyncDelete, p.ConflictStrategy)
		}
		return w.Flush()
	},
}
