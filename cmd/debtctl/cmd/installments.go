package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/debt-tracker/pkg/ledger"
	"github.com/shunichi-ikebuchi/debt-tracker/pkg/report"
)

var (
	installmentAmount string
	installmentDue    string
)

// installmentsCmd groups the installment commands.
var installmentsCmd = &cobra.Command{
	Use:   "installments",
	Short: "Add and remove single installments",
}

var installmentsAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Add an unpaid installment to a debtor",
	Long: `Add one unpaid installment to an existing debtor.

Example:
  debtctl installments add Alice --amount 80 --due 2024-06-10`,
	Args: cobra.ExactArgs(1),
	Run:  runInstallmentsAdd,
}

var installmentsRemoveCmd = &cobra.Command{
	Use:   "remove NAME",
	Short: "Remove the installment of a debtor due on a date",
	Args:  cobra.ExactArgs(1),
	Run:   runInstallmentsRemove,
}

func init() {
	installmentsAddCmd.Flags().StringVar(&installmentAmount, "amount", "", "Installment amount (required)")
	installmentsAddCmd.Flags().StringVar(&installmentDue, "due", "", "Due date (YYYY-MM-DD) (required)")
	installmentsAddCmd.MarkFlagRequired("amount")
	installmentsAddCmd.MarkFlagRequired("due")

	installmentsRemoveCmd.Flags().StringVar(&installmentDue, "due", "", "Due date (YYYY-MM-DD) (required)")
	installmentsRemoveCmd.MarkFlagRequired("due")

	installmentsCmd.AddCommand(installmentsAddCmd, installmentsRemoveCmd)
}

func runInstallmentsAdd(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()

	amount, err := ledger.ParseAmount(installmentAmount)
	exitOnError(err, "invalid --amount")

	a := newApp(ctx)
	defer a.Close()

	exitOnError(a.repo.AddInstallment(ctx, args[0], amount, installmentDue), "failed to add installment")

	slog.Info("Installment added", "debtor", args[0], "due", installmentDue)
	fmt.Printf("Added %s due %s to %s\n", report.FormatBRL(amount), installmentDue, args[0])
}

func runInstallmentsRemove(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	a := newApp(ctx)
	defer a.Close()

	exitOnError(a.repo.RemoveInstallment(ctx, args[0], installmentDue), "failed to remove installment")

	slog.Info("Installment removed", "debtor", args[0], "due", installmentDue)
	fmt.Printf("Removed installment due %s from %s\n", installmentDue, args[0])
}
