package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "machinad",
	Short: "Machina VM manager daemon",
	Long: `machinad hosts the guest-network DHCP/DNS service for Machina VMs:
it supervises one dnsmasq instance bound to the configured host bridge,
answers lease lookups and brokers explicit lease releases.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if configPath != "" {
			_ = os.Setenv("MACHINA_CONFIG_PATH", configPath)
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to configuration file (searches common locations if not specified)")

	rootCmd.AddCommand(NewServeCmd())
}
