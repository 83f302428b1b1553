package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/debt-tracker/pkg/ledger"
	"github.com/shunichi-ikebuchi/debt-tracker/pkg/overdue"
	"github.com/shunichi-ikebuchi/debt-tracker/pkg/report"
)

var overdueNotify bool

// overdueCmd represents the overdue command.
var overdueCmd = &cobra.Command{
	Use:   "overdue",
	Short: "List unpaid installments past their due date",
	Long: `List unpaid installments due before today, oldest first.

With --notify, the list is also posted to OVERDUE_WEBHOOK_URL (any chat
webhook accepting {"text": "..."}) when at least one installment is overdue.

Example:
  debtctl overdue
  debtctl overdue --notify`,
	Args: cobra.NoArgs,
	Run:  runOverdue,
}

func init() {
	overdueCmd.Flags().BoolVar(&overdueNotify, "notify", false, "Post the list to OVERDUE_WEBHOOK_URL")
}

func runOverdue(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	a := newApp(ctx)
	defer a.Close()

	var notifier *overdue.Notifier
	if overdueNotify {
		if err := a.cfg.Validate([]string{"notify", "webhookUrl"}); err != nil {
			exitOnError(err, "invalid configuration")
		}
		notifier = overdue.NewNotifier(a.cfg.Notify.WebhookURL, slog.Default())
	}

	doc, err := a.repo.FetchAll(ctx)
	exitOnError(err, "failed to fetch debtors")

	result, err := overdue.Check(ctx, doc, ledger.DateOf(time.Now()), notifier)
	exitOnError(err, "failed to send notification")

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Devedor\tValor\tVencimento\tDias em atraso")
	for _, item := range result.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", item.Debtor, report.FormatBRL(item.Amount), item.DueDate, item.DaysLate)
	}
	fmt.Fprintf(tw, "\nTotal:\t%s\n", report.FormatBRL(result.Total))
	exitOnError(tw.Flush(), "failed to print overdue installments")

	if result.NotificationSent {
		slog.Info("Overdue notification sent", "count", result.Count)
	}
}
