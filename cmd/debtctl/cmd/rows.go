package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/debt-tracker/pkg/ledger"
	"github.com/shunichi-ikebuchi/debt-tracker/pkg/sheet"
)

var (
	exportDebtor string
	exportOut    string
)

// rowsCmd groups the spreadsheet commands.
var rowsCmd = &cobra.Command{
	Use:   "rows",
	Short: "Edit installments in a spreadsheet",
	Long: `Export installments to an xlsx workbook, edit amounts, due dates and
paid flags in any spreadsheet editor, then apply the changes.

Only changed rows are written, and they are matched against the current
document by debtor name and original due date, so debtors outside the export
are never touched.

Example:
  debtctl rows export --debtor Bob
  debtctl rows apply data/exports/parcelas-bob-20240301-150405.xlsx`,
}

var rowsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export installments to an xlsx workbook",
	Args:  cobra.NoArgs,
	Run:   runRowsExport,
}

var rowsApplyCmd = &cobra.Command{
	Use:   "apply FILE",
	Short: "Apply the edits of an exported workbook",
	Args:  cobra.ExactArgs(1),
	Run:   runRowsApply,
}

func init() {
	rowsExportCmd.Flags().StringVar(&exportDebtor, "debtor", "", "Only export this debtor")
	rowsExportCmd.Flags().StringVar(&exportOut, "out", "", "Output file (default: exports directory)")

	rowsCmd.AddCommand(rowsExportCmd, rowsApplyCmd)
}

func runRowsExport(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	a := newApp(ctx)
	defer a.Close()

	doc, err := a.repo.FetchAll(ctx)
	exitOnError(err, "failed to fetch debtors")

	rows := ledger.FilterRows(ledger.Rows(doc), exportDebtor)

	out := exportOut
	if out == "" {
		out = a.paths.GetExportPath(exportDebtor, time.Now())
	}
	exitOnError(a.paths.EnsureParentDir(out), "failed to create export directory")
	exitOnError(sheet.Export(out, rows), "failed to export rows")

	slog.Info("Rows exported", "path", out, "rows", len(rows))
	fmt.Println(out)
}

func runRowsApply(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()

	original, edited, err := sheet.Load(args[0])
	exitOnError(err, "failed to read workbook")

	a := newApp(ctx)
	defer a.Close()

	changed, err := a.repo.Reconcile(ctx, original, edited)
	exitOnError(err, "failed to apply edits")

	slog.Info("Edits applied", "path", args[0], "changed", changed)
	fmt.Printf("%d row(s) updated\n", changed)
}
