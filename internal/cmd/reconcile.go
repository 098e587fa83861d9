package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/rpggio/assetguard/internal/domain/conflict"
	"github.com/rpggio/assetguard/internal/domain/user"
	"github.com/spf13/cobra"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Rebuild conflict records from asset records",
	Long: `Scan every asset and make the conflict records match: conflicted assets get
a fresh record, others lose theirs, and records for unknown assets are
removed. Runs as the system operator.`,
	Args: cobra.NoArgs,
	RunE: runReconcile,
}

var reconcileJSON bool

func init() {
	reconcileCmd.Flags().BoolVar(&reconcileJSON, "json", false, "Output the report as JSON")
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	rt, err := openOperator(cmd)
	if err != nil {
		return err
	}
	defer rt.close()

	report, err := rt.stack.Synchronizer.ReconcileAll(commandContext(cmd), user.SystemActor)
	if err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}

	out := cmd.OutOrStdout()
	if reconcileJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Fprintf(out, "Scanned %d assets: %d upserted, %d removed, %d clean, %d failed\n",
		report.Scanned, report.Upserted, report.Removed, report.Clean, report.Failed)
	for _, entry := range report.Entries {
		if entry.Action != conflict.ActionFailed {
			continue
		}
		fmt.Fprintf(out, "  %s: %s\n", entry.AssetID, entry.Error)
	}
	return nil
}
