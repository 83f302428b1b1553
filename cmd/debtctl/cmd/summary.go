package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/debt-tracker/pkg/ledger"
	"github.com/shunichi-ikebuchi/debt-tracker/pkg/report"
)

var (
	summaryYear  int
	summaryMonth int
)

// summaryCmd represents the summary command.
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show paid and open totals",
	Long: `Show paid, open and overdue totals per month and per debtor.

Example:
  debtctl summary
  debtctl summary --year 2024 --month 3`,
	Args: cobra.NoArgs,
	Run:  runSummary,
}

func init() {
	summaryCmd.Flags().IntVar(&summaryYear, "year", 0, "Only installments due in this year")
	summaryCmd.Flags().IntVar(&summaryMonth, "month", 0, "Only installments due in this month (1-12)")
}

func runSummary(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()

	if summaryMonth < 0 || summaryMonth > 12 {
		exitOnError(fmt.Errorf("invalid month: %d", summaryMonth), "invalid --month")
	}

	a := newApp(ctx)
	defer a.Close()

	doc, err := a.repo.FetchAll(ctx)
	exitOnError(err, "failed to fetch debtors")

	period := ledger.Period{Year: summaryYear, Month: time.Month(summaryMonth)}
	s := ledger.Summarize(doc, period, ledger.DateOf(time.Now()))
	exitOnError(report.WriteSummary(os.Stdout, s), "failed to print summary")
}
