package cmd

import (
	"errors"
	"fmt"

	"github.com/rpggio/assetguard/internal/domain/user"
	"github.com/spf13/cobra"
)

var apikeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Manage API keys",
}

var apikeyCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Issue an API key bound to a user",
	Long: `Issue an API key for --user. The account is created if needed. The token is
printed once; only its hash is stored.`,
	Args: cobra.NoArgs,
	RunE: runAPIKeyCreate,
}

var (
	apikeyUser  string
	apikeyLabel string
)

func init() {
	apikeyCreateCmd.Flags().StringVar(&apikeyUser, "user", "", "user the key authenticates as")
	apikeyCreateCmd.Flags().StringVar(&apikeyLabel, "label", "", "free-form note stored with the key")
	apikeyCmd.AddCommand(apikeyCreateCmd)
	rootCmd.AddCommand(apikeyCmd)
}

func runAPIKeyCreate(cmd *cobra.Command, _ []string) error {
	if apikeyUser == "" {
		return errors.New("--user is required")
	}

	rt, err := openOperator(cmd)
	if err != nil {
		return err
	}
	defer rt.close()

	token, key, err := rt.stack.Keys.Issue(commandContext(cmd), user.SystemActor, apikeyUser, apikeyLabel)
	if err != nil {
		return fmt.Errorf("issue key: %w", err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "key id: %s\n", key.ID)
	fmt.Fprintf(out, "user:   %s\n", key.UserID)
	fmt.Fprintf(out, "token:  %s\n", token)
	return nil
}
