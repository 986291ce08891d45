// File: cmd/hioload-ftpd/commands/users.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/manifoldco/promptui"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/momentics/hioload-ftpd/internal/config"
	"github.com/momentics/hioload-ftpd/internal/ftp"
)

const minPasswordLen = 8

var errPasswordMismatch = errors.New("passwords do not match")

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage login accounts",
}

var usersHashCmd = &cobra.Command{
	Use:   "hash",
	Short: "Prompt for a password and print its bcrypt hash",
	Long: `Prompt for a password (twice) and print a bcrypt hash suitable for the
password_hash field of a users entry in config.yaml.`,
	RunE: runUsersHash,
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the configured accounts",
	RunE:  runUsersList,
}

func init() {
	usersCmd.AddCommand(usersHashCmd)
	usersCmd.AddCommand(usersListCmd)
}

func runUsersHash(cmd *cobra.Command, args []string) error {
	password, err := promptNewPassword()
	if err != nil {
		return err
	}
	hash, err := ftp.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}

func promptNewPassword() (string, error) {
	first := promptui.Prompt{
		Label: "Password",
		Mask:  '*',
		Validate: func(input string) error {
			if len(input) < minPasswordLen {
				return fmt.Errorf("password must be at least %d characters", minPasswordLen)
			}
			return nil
		},
	}
	password, err := first.Run()
	if err != nil {
		return "", wrapPromptError(err)
	}

	confirm := promptui.Prompt{Label: "Confirm password", Mask: '*'}
	again, err := confirm.Run()
	if err != nil {
		return "", wrapPromptError(err)
	}
	if password != again {
		return "", errPasswordMismatch
	}
	return password, nil
}

func wrapPromptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrAbort) {
		return errors.New("aborted")
	}
	return err
}

func runUsersList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return err
	}
	printUsers(cmd.OutOrStdout(), cfg)
	return nil
}

func printUsers(w io.Writer, cfg *config.Config) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Username", "Hash cost", "Anonymous"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	for _, u := range cfg.Users {
		table.Append([]string{u.Username, hashCost(u.PasswordHash), "no"})
	}
	if cfg.Server.AllowAnonymous {
		table.Append([]string{"anonymous", "-", "yes"})
		table.Append([]string{"ftp", "-", "yes"})
	}
	table.Render()
}

func hashCost(hash string) string {
	cost, err := ftp.HashCost(hash)
	if err != nil {
		return "invalid"
	}
	return fmt.Sprint(cost)
}
