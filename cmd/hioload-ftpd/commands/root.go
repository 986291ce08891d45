// File: cmd/hioload-ftpd/commands/root.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package commands implements the hioload-ftpd command line.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/momentics/hioload-ftpd/internal/config"
)

// Build information, set via ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "hioload-ftpd",
	Short: "Single-threaded FTP control-connection server",
	Long: `hioload-ftpd accepts FTP control connections on an IPv4 address and
serves a bounded number of them from one readiness loop.

Use "hioload-ftpd [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (default: $XDG_CONFIG_HOME/hioload-ftpd/config.yaml)")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// GetConfigFile returns the --config value, which may be empty.
func GetConfigFile() string {
	return configFile
}

// resolveConfigPath returns the --config value or the default location.
func resolveConfigPath() string {
	if configFile != "" {
		return configFile
	}
	return config.GetDefaultConfigPath()
}
