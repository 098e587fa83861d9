package cmd

import (
	"fmt"

	"github.com/rpggio/assetguard/internal/domain/user"
	"github.com/spf13/cobra"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Grant or revoke the admin role",
}

var adminGrantCmd = &cobra.Command{
	Use:   "grant <user-id>",
	Short: "Make a user an administrator",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setAdmin(cmd, args[0], true)
	},
}

var adminRevokeCmd = &cobra.Command{
	Use:   "revoke <user-id>",
	Short: "Remove a user's admin role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setAdmin(cmd, args[0], false)
	},
}

func init() {
	adminCmd.AddCommand(adminGrantCmd, adminRevokeCmd)
	rootCmd.AddCommand(adminCmd)
}

func setAdmin(cmd *cobra.Command, userID string, isAdmin bool) error {
	rt, err := openOperator(cmd)
	if err != nil {
		return err
	}
	defer rt.close()

	if err := rt.stack.Accounts.SetAdmin(commandContext(cmd), user.SystemActor, userID, isAdmin); err != nil {
		return fmt.Errorf("set admin: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s admin: %t\n", userID, isAdmin)
	return nil
}
