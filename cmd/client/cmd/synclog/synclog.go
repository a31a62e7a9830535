package synclog

import (
	"github.com/spf13/cobra"
)

// LogCmd is the parent command for sync log inspection.
var LogCmd = &cobra.Command{
	Use:   "log",
	Short: "Inspect the sync audit log",
	Long:  `List sync log entries and retry failed deliveries.`,
}
