package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"

	"syncmesh/cmd/client/cmd/types"
	"syncmesh/internal/app/client"
	"syncmesh/internal/app/client/config"
	"syncmesh/internal/utils/logger"
)

var (
	cfg        *config.Config
	log        *slog.Logger
	app        *client.App
	serverURL  string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "syncmesh",
	Short: "SyncMesh - administer a replication instance",
	Long: `SyncMesh is the admin CLI for a peer-to-peer replication instance.

It manages peer registrations, inspects the sync audit log, retries
failed deliveries, and shows the engine status.`,
	PersistentPreRunE: setupApp,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupApp(cmd *cobra.Command, _ []string) error {
	cfg = config.MustLoad()
	if serverURL != "" {
		cfg.ServerAddress = serverURL
	}

	log = logger.New(cfg.Env)

	var err error
	app, err = client.New(cfg, log)
	if err != nil {
		return fmt.Errorf("client initialization: %w", err)
	}

	ctx := context.WithValue(cmd.Context(), types.ClientAppKey, app)
	cmd.SetContext(ctx)
	return nil
}

func init() {
	cobra.OnInitialize()

	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "address of the SyncMesh server")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
}
