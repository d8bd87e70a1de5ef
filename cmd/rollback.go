package cmd

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// rollbackCmd is the §6 `rollback` command group.
var rollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Inspect or reverse journaled operations",
}

var rollbackListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent operations or transactions",
	RunE: func(cmd *cobra.Command, args []string) error {
		transactions, _ := cmd.Flags().GetBool("transactions")
		limit, _ := cmd.Flags().GetInt("limit")

		core, err := openCore()
		if err != nil {
			return err
		}
		defer core.Close()

		ctx := context.Background()
		tw := table.NewWriter()
		tw.SetOutputMirror(cmd.OutOrStdout())
		tw.SetStyle(table.StyleRounded)

		if transactions {
			txs, err := core.journal.RecentTransactions(ctx, limit)
			if err != nil {
				return err
			}
			tw.AppendHeader(table.Row{"ID", "Status", "Started", "Description"})
			for _, tx := range txs {
				tw.AppendRow(table.Row{tx.ID, tx.Status, tx.StartedAt.Format("2006-01-02T15:04:05"), tx.Description})
			}
			tw.Render()
			return nil
		}

		ops, err := core.journal.RecentOperations(ctx, limit)
		if err != nil {
			return err
		}
		tw.AppendHeader(table.Row{"ID", "Status", "Kind", "Description"})
		for _, op := range ops {
			tw.AppendRow(table.Row{op.ID, op.Status, op.Kind, op.Description})
		}
		tw.Render()
		return nil
	},
}

var rollbackOperationCmd = &cobra.Command{
	Use:   "operation <id>",
	Short: "Reverse one committed operation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		core, err := openCore()
		if err != nil {
			return err
		}
		defer core.Close()

		if err := confirmUnlessForced(cmd, fmt.Sprintf("reverse operation %d", id)); err != nil {
			return err
		}

		if err := core.rollback.RollbackOperation(context.Background(), id); err != nil {
			core.logger.LogError(err)
			return err
		}
		core.logger.Logf("rolled back operation %d", id)
		fmt.Fprintf(cmd.OutOrStdout(), "rolled back operation %d\n", id)
		return nil
	},
}

var rollbackTransactionCmd = &cobra.Command{
	Use:   "transaction <id>",
	Short: "Reverse a whole transaction, in strict reverse commit order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		core, err := openCore()
		if err != nil {
			return err
		}
		defer core.Close()

		if err := confirmUnlessForced(cmd, fmt.Sprintf("reverse transaction %d", id)); err != nil {
			return err
		}

		summary, err := core.rollback.RollbackTransaction(context.Background(), id)
		if err != nil {
			core.logger.LogError(err)
			return err
		}
		core.logger.Logf("transaction %d rollback: %s", summary.TransactionID, summary.FinalStatus)
		fmt.Fprintf(cmd.OutOrStdout(), "transaction %d: %s (succeeded=%d failed=%d skipped=%d)\n",
			summary.TransactionID, summary.FinalStatus, len(summary.Succeeded), len(summary.Failed), len(summary.Skipped))
		return nil
	},
}

var rollbackLastCmd = &cobra.Command{
	Use:   "last",
	Short: "Reverse the most recent operation or transaction",
	RunE: func(cmd *cobra.Command, args []string) error {
		wantTransaction, _ := cmd.Flags().GetBool("transaction")

		core, err := openCore()
		if err != nil {
			return err
		}
		defer core.Close()

		ctx := context.Background()

		if wantTransaction {
			txs, err := core.journal.RecentTransactions(ctx, 1)
			if err != nil {
				return err
			}
			if len(txs) == 0 {
				return fmt.Errorf("no transactions recorded")
			}
			if err := confirmUnlessForced(cmd, fmt.Sprintf("reverse transaction %d", txs[0].ID)); err != nil {
				return err
			}
			summary, err := core.rollback.RollbackTransaction(ctx, txs[0].ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "transaction %d: %s\n", summary.TransactionID, summary.FinalStatus)
			return nil
		}

		ops, err := core.journal.RecentOperations(ctx, 1)
		if err != nil {
			return err
		}
		if len(ops) == 0 {
			return fmt.Errorf("no operations recorded")
		}
		if err := confirmUnlessForced(cmd, fmt.Sprintf("reverse operation %d", ops[0].ID)); err != nil {
			return err
		}
		if err := core.rollback.RollbackOperation(ctx, ops[0].ID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "rolled back operation %d\n", ops[0].ID)
		return nil
	},
}

func parseID(s string) (int64, error) {
	var id int64
	if _, err := fmt.Sscanf(s, "%d", &id); err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// confirmUnlessForced asks on stdin unless --force was passed; rollback is
// itself a destructive action worth a second confirmation even though the
// Confirmation Gate does not gate rollback commands directly.
func confirmUnlessForced(cmd *cobra.Command, action string) error {
	force, _ := cmd.Flags().GetBool("force")
	if force {
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s? (y/N): ", action)
	var response string
	fmt.Fscanln(cmd.InOrStdin(), &response)
	if response != "y" && response != "yes" {
		return fmt.Errorf("cancelled")
	}
	return nil
}

func init() {
	rollbackListCmd.Flags().Bool("transactions", false, "list transactions instead of operations")
	rollbackListCmd.Flags().Int("limit", 20, "maximum records to list")

	rollbackOperationCmd.Flags().Bool("force", false, "skip confirmation")
	rollbackTransactionCmd.Flags().Bool("force", false, "skip confirmation")
	rollbackLastCmd.Flags().Bool("force", false, "skip confirmation")
	rollbackLastCmd.Flags().Bool("transaction", false, "reverse the last transaction instead of the last operation")

	rollbackCmd.AddCommand(rollbackListCmd)
	rollbackCmd.AddCommand(rollbackOperationCmd)
	rollbackCmd.AddCommand(rollbackTransactionCmd)
	rollbackCmd.AddCommand(rollbackLastCmd)
	rootCmd.AddCommand(rollbackCmd)
}
