// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"

	"github.com/authgate/authgate/internal/config"
)

var (
	configPath string // Path to the configuration directory
	cfg        config.Config
)

var rootCmd = &cobra.Command{
	Use:   "authgate",
	Short: "authgate is a token based authentication and authorization service",
	Long: `authgate issues signed tokens for users, resolves their roles and
permissions on every request and manages users, roles and the permission tree.`,
	Args:          cobra.OnlyValidArgs,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./etc/", "configuration directory containing main.toml")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func readConfig(_ *cobra.Command, _ []string) error {
	var err error

	cfg, err = config.ReadConfig(configPath)

	return err
}
