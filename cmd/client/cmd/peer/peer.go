package peer

import (
	"github.com/spf13/cobra"
)

// PeerCmd is the parent command for peer management.
var PeerCmd = &cobra.Command{
	Use:   "peer",
	Short: "Manage peer registrations",
	Long:  `Register remote instances, list them, and test connections.`,
}
