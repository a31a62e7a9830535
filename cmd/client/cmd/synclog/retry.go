package synclog

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"syncmesh/cmd/client/cmd/types"
	"syncmesh/internal/app/client"
)

var RetryCmd = &cobra.Command{
	Use:   "retry <id>",
	Short: "Retry a failed delivery now",
	Long:  `Re-runs one failed outgoing delivery immediately, outside the scheduled retry sweep. The full log id is required.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok {
			return fmt.Errorf("application not initialized")
		}

		if err := app.RetryLog(cmd.Context(), args[0]); err != nil {
			return err
		}

		color.Green("Delivery succeeded")
		return nil
	},
}
