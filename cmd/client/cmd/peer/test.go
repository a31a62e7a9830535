package peer

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"syncmesh/cmd/client/cmd/types"
	"syncmesh/internal/app/client"
)

var TestCmd = &cobra.Command{
	Use:   "test <name>",
	Short: "Test the connection to a peer",
	Long:  `Pings the peer and stores the learned remote site id on success.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok {
			return fmt.Errorf("application not initialized")
		}

		result, err := app.TestPeer(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("connection test: %w", err)
		}

		if result.Status != "ok" {
			color.Red("Connection failed: %s", result.Error)
			return nil
		}

		color.Green("Connection ok")
		fmt.Printf("Remote site id: %s\n", result.RemoteSiteID)
		return nil
	},
}
