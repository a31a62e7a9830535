package cmd

import (
	"syncmesh/cmd/client/cmd/peer"
	"syncmesh/cmd/client/cmd/synclog"
)

func init() {
	rootCmd.AddCommand(peer.PeerCmd)
	peer.PeerCmd.AddCommand(peer.AddCmd)
	peer.PeerCmd.AddCommand(peer.ListCmd)
	peer.PeerCmd.AddCommand(peer.TestCmd)

	rootCmd.AddCommand(synclog.LogCmd)
	synclog.LogCmd.AddCommand(synclog.ListCmd)
	synclog.LogCmd.AddCommand(synclog.RetryCmd)

	rootCmd.AddCommand(policyCmd)
	policyCmd.AddCommand(policyListCmd)

	rootCmd.AddCommand(statusCmd)
}
