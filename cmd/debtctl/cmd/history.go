package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/debt-tracker/pkg/db"
)

var historyLimit int

// historyCmd represents the history command.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Display recent document writes",
	Long: `Display the writes recorded on this machine, newest first. Each entry
carries the SHA-256 revision of the written document.

Example:
  debtctl history --limit 50`,
	Args: cobra.NoArgs,
	Run:  runHistory,
}

// statsCmd represents the stats command.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Display write statistics",
	Long: `Display statistics about recorded writes.

Shows:
- Total number of writes
- Writes per operation
- Last write timestamp and revision

Example:
  debtctl stats`,
	Args: cobra.NoArgs,
	Run:  runStats,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of entries to show")
}

func runHistory(cmd *cobra.Command, args []string) {
	_, paths := loadConfig()
	conn := openHistory(paths)
	defer conn.Close()

	entries, err := db.NewHistory(conn).Recent(cmd.Context(), historyLimit)
	exitOnError(err, "failed to read history")

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RECORDED\tOPERATION\tDEBTOR\tDEBTORS\tINSTALLMENTS\tREVISION")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%.12s\n",
			e.RecordedAt.Local().Format("2006-01-02 15:04:05"),
			e.Operation,
			e.Debtor,
			e.Debtors,
			e.Installments,
			e.Revision,
		)
	}
	exitOnError(tw.Flush(), "failed to print history")
}

func runStats(cmd *cobra.Command, args []string) {
	_, paths := loadConfig()
	conn := openHistory(paths)
	defer conn.Close()

	stats, err := db.NewHistory(conn).GetStats(cmd.Context())
	exitOnError(err, "failed to get statistics")

	fmt.Println("\n=== Write Statistics ===")
	fmt.Printf("Total writes:        %d\n", stats.TotalWrites)
	for _, op := range []db.Operation{
		db.OpRegisterDebtor,
		db.OpAddInstallment,
		db.OpRemoveDebtor,
		db.OpRemoveInstallment,
		db.OpReconcile,
		db.OpRestore,
	} {
		fmt.Printf("  %-18s %d\n", op+":", stats.ByOperation[op])
	}

	if stats.LastWrite.Valid {
		fmt.Printf("Last write:          %s\n", stats.LastWrite.String)
		fmt.Printf("Last revision:       %s\n", stats.LastRevision)
	} else {
		fmt.Printf("Last write:          (never)\n")
	}

	fmt.Println()
}
