package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/debt-tracker/pkg/config"
	"github.com/shunichi-ikebuchi/debt-tracker/pkg/filestore"
)

// initCmd represents the init command.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an empty local document",
	Long: `Create an empty debtor list for the file backend (STORE_BACKEND=file).
An existing document is left untouched.

Example:
  STORE_BACKEND=file debtctl init`,
	Args: cobra.NoArgs,
	Run:  runInit,
}

func runInit(cmd *cobra.Command, args []string) {
	cfg, paths := loadConfig()
	if cfg.Storage.Backend != config.BackendFile {
		exitOnError(fmt.Errorf("STORE_BACKEND is %q", cfg.Storage.Backend), "init only applies to the file backend")
	}

	store := filestore.New(paths.GetDocumentPath())
	exitOnError(store.Init(), "failed to initialize document")

	slog.Info("Document ready", "path", store.Path())
	fmt.Println(store.Path())
}
