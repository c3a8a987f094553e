package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/DevelopmentCats/AppBinHub/internal/config"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "appbinhub",
		Short: "Convert upstream AppImage releases into installable Linux packages",
		Long: `AppBinHub watches upstream AppImage sources, converts new releases
into installable package formats, and publishes the results to a
versioned catalog consumed by a static website.

Package formats:
  - Debian (.deb)
  - RPM (.rpm)
  - Tarball (.tar.gz)`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Setup logging
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.InfoLevel)
			}
		},
	}

	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringP("config", "c", "appbinhub.toml", "Path to configuration file")

	// Add subcommands
	rootCmd.AddCommand(NewMonitorCmd())
	rootCmd.AddCommand(NewConvertCmd())
	rootCmd.AddCommand(NewRunCmd())
	rootCmd.AddCommand(NewStatusCmd())
	rootCmd.AddCommand(NewVerifyCmd())

	return rootCmd
}

// loadConfig reads the configuration named by the global --config flag.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}
