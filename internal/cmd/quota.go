package cmd

import (
	"fmt"
	"strconv"

	"github.com/rpggio/assetguard/internal/domain/user"
	"github.com/spf13/cobra"
)

var quotaCmd = &cobra.Command{
	Use:   "quota",
	Short: "Inspect or change the per-user message cap",
}

var quotaGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the current message cap",
	Args:  cobra.NoArgs,
	RunE:  runQuotaGet,
}

var quotaSetCmd = &cobra.Command{
	Use:   "set <max-messages>",
	Short: "Set the message cap for every user",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuotaSet,
}

func init() {
	quotaCmd.AddCommand(quotaGetCmd, quotaSetCmd)
	rootCmd.AddCommand(quotaCmd)
}

func runQuotaGet(cmd *cobra.Command, _ []string) error {
	rt, err := openOperator(cmd)
	if err != nil {
		return err
	}
	defer rt.close()

	cfg, err := rt.stack.Gate.Quota(commandContext(cmd))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "max messages: %d\n", cfg.MaxMessages)
	return nil
}

func runQuotaSet(cmd *cobra.Command, args []string) error {
	newMax, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid max messages %q: %w", args[0], err)
	}

	rt, err := openOperator(cmd)
	if err != nil {
		return err
	}
	defer rt.close()

	if err := rt.stack.Gate.UpdateQuota(commandContext(cmd), user.SystemActor, newMax); err != nil {
		return fmt.Errorf("update quota: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "max messages: %d\n", newMax)
	return nil
}
