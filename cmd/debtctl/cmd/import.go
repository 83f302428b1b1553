package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/debt-tracker/pkg/seed"
)

// importCmd represents the import command.
var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Register debtors from a YAML file",
	Long: `Register every debtor listed in a YAML file. Debtors that already exist
are skipped.

File format:
  debtors:
    - name: Alice
      installments: 3
      amount: "150.00"
      first_due: 2024-01-10

Example:
  debtctl import debtors.yaml`,
	Args: cobra.ExactArgs(1),
	Run:  runImport,
}

func runImport(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()

	file, err := seed.Load(args[0])
	exitOnError(err, "failed to load seed file")

	a := newApp(ctx)
	defer a.Close()

	result, err := seed.Apply(ctx, a.repo, file, slog.Default())
	if result != nil {
		fmt.Printf("Imported: %d, skipped: %d\n", len(result.Registered), len(result.Skipped))
	}
	exitOnError(err, "import stopped")
}
