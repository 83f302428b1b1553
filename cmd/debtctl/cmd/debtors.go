package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/debt-tracker/pkg/ledger"
	"github.com/shunichi-ikebuchi/debt-tracker/pkg/report"
)

var (
	listDebtor       string
	registerCount    int
	registerAmount   string
	registerFirstDue string
)

// debtorsCmd groups the debtor commands.
var debtorsCmd = &cobra.Command{
	Use:   "debtors",
	Short: "List, register and remove debtors",
}

var debtorsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List installments, optionally of one debtor",
	Args:  cobra.NoArgs,
	Run:   runDebtorsList,
}

var debtorsRegisterCmd = &cobra.Command{
	Use:   "register NAME",
	Short: "Register a debtor with an installment schedule",
	Long: `Register a debtor with a number of installments of the same amount.
The first installment is due on --first-due and each following one 30 days
after the previous.

Example:
  debtctl debtors register "Maria Silva" --installments 6 --amount 250,00 --first-due 2024-02-05`,
	Args: cobra.ExactArgs(1),
	Run:  runDebtorsRegister,
}

var debtorsRemoveCmd = &cobra.Command{
	Use:   "remove NAME",
	Short: "Remove a debtor and all of its installments",
	Args:  cobra.ExactArgs(1),
	Run:   runDebtorsRemove,
}

func init() {
	debtorsListCmd.Flags().StringVar(&listDebtor, "debtor", "", "Only show this debtor")

	debtorsRegisterCmd.Flags().IntVar(&registerCount, "installments", 1, "Number of installments")
	debtorsRegisterCmd.Flags().StringVar(&registerAmount, "amount", "", "Amount of each installment (required)")
	debtorsRegisterCmd.Flags().StringVar(&registerFirstDue, "first-due", "", "First due date (YYYY-MM-DD) (required)")
	debtorsRegisterCmd.MarkFlagRequired("amount")
	debtorsRegisterCmd.MarkFlagRequired("first-due")

	debtorsCmd.AddCommand(debtorsListCmd, debtorsRegisterCmd, debtorsRemoveCmd)
}

func runDebtorsList(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	a := newApp(ctx)
	defer a.Close()

	doc, err := a.repo.FetchAll(ctx)
	exitOnError(err, "failed to fetch debtors")

	rows := ledger.FilterRows(ledger.Rows(doc), listDebtor)
	exitOnError(report.WriteRows(os.Stdout, rows), "failed to print rows")
}

func runDebtorsRegister(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()

	amount, err := ledger.ParseAmount(registerAmount)
	exitOnError(err, "invalid --amount")

	a := newApp(ctx)
	defer a.Close()

	err = a.repo.RegisterDebtor(ctx, args[0], registerCount, amount, registerFirstDue)
	exitOnError(err, "failed to register debtor")

	slog.Info("Debtor registered", "debtor", args[0], "installments", registerCount)
	fmt.Printf("Registered %s with %d installment(s) of %s\n", args[0], registerCount, report.FormatBRL(amount))
}

func runDebtorsRemove(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	a := newApp(ctx)
	defer a.Close()

	exitOnError(a.repo.RemoveDebtor(ctx, args[0]), "failed to remove debtor")

	slog.Info("Debtor removed", "debtor", args[0])
	fmt.Printf("Removed %s\n", args[0])
}
