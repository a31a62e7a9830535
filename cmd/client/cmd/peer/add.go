package peer

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"syncmesh/cmd/client/cmd/types"
	"syncmesh/internal/app/client"
)

var (
	addURL      string
	addAPIKey   string
	addSiteName string
	addEnabled  bool
)

var AddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Register a peer",
	Long: `Registers a remote instance under a local name.

The API secret is prompted interactively so it never lands in shell
history. Run "peer test" afterwards to verify the connection and learn
the remote site id.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok {
			return fmt.Errorf("application not initialized")
		}

		var secret string
		if addAPIKey != "" {
			fmt.Print("API secret: ")
			raw, err := term.ReadPassword(int(os.Stdin.Fd()))
			if err != nil {
				return fmt.Errorf("read secret: %w", err)
			}
			fmt.Println()
			secret = string(raw)
		}

		p, err := app.AddPeer(cmd.Context(), client.AddPeerRequest{
			Name:      args[0],
			URL:       addURL,
			APIKey:    addAPIKey,
			APISecret: secret,
			SiteName:  addSiteName,
			Enabled:   addEnabled,
		})
		if err != nil {
			return fmt.Errorf("register peer: %w", err)
		}

		fmt.Printf("Peer %q registered (%s)\n", p.Name, p.URL)
		fmt.Println("Next: syncmesh peer test", p.Name)
		return nil
	},
}

func init() {
	AddCmd.Flags().StringVar(&addURL, "url", "", "base URL of the remote instance")
	AddCmd.Flags().StringVar(&addAPIKey, "api-key", "", "API key for the remote instance")
	AddCmd.Flags().StringVar(&addSiteName, "site-name", "", "Host header for multi-tenant peers")
	AddCmd.Flags().BoolVar(&addEnabled, "enabled", true, "enable deliveries to this peer")
	_ = AddCmd.MarkFlagRequired("url")
}
