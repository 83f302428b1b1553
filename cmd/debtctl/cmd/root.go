// Package cmd provides CLI commands for debtctl.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "debtctl",
	Short: "Track debtors and their installments",
	Long: `debtctl manages a list of debtors and their installment schedules,
stored as a single JSON document in a GitHub Gist (or a local file).

It supports:
- Registering and removing debtors and installments
- Exporting installments to a spreadsheet and applying the edits back
- Monthly payment summaries and overdue reminders
- A local write history in SQLite
- Snapshots in an S3-compatible bucket
- Serving the dashboard JSON API

Example:
  debtctl debtors register Alice --installments 3 --amount 150 --first-due 2024-01-10
  debtctl rows export --debtor Alice
  debtctl summary --year 2024`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logLevel := slog.LevelInfo
		if debug || os.Getenv("DEBUG") == "true" {
			logLevel = slog.LevelDebug
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		}))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(debtorsCmd)
	rootCmd.AddCommand(installmentsCmd)
	rootCmd.AddCommand(rowsCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(overdueCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(serveCmd)
}

// Helper function to get config file path.
func getConfigFile() string {
	return cfgFile
}

// Helper function to handle errors and exit.
func exitOnError(err error, msg string) {
	if err != nil {
		slog.Error(msg, "error", err)
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
		os.Exit(1)
	}
}
