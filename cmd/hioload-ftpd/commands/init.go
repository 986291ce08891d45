// File: cmd/hioload-ftpd/commands/init.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/momentics/hioload-ftpd/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample hioload-ftpd configuration file.

By default, the configuration file is created at $XDG_CONFIG_HOME/hioload-ftpd/config.yaml.
Use --config to specify a custom path.

Examples:
  # Initialize with default location
  hioload-ftpd init

  # Force overwrite existing config
  hioload-ftpd init --config /etc/hioload-ftpd/config.yaml --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := resolveConfigPath()
	if err := config.InitConfig(path, initForce); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Configuration file created at: %s\n", path)
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "  1. Add accounts with a hash from: hioload-ftpd users hash")
	fmt.Fprintln(out, "  2. Start the server with: hioload-ftpd start")
	fmt.Fprintf(out, "  3. Or specify custom config: hioload-ftpd start --config %s\n", path)
	return nil
}
