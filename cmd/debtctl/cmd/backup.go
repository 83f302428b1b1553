package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/debt-tracker/pkg/backup"
	"github.com/shunichi-ikebuchi/debt-tracker/pkg/config"
)

// metadataLastBackup records the key of the most recent snapshot.
const metadataLastBackup = "last_backup"

// backupCmd groups the snapshot commands.
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Snapshot the document to an S3-compatible bucket",
	Long: `Store, list and restore snapshots of the debtor document in an
S3-compatible bucket (BACKUP_ENDPOINT, BACKUP_BUCKET, ...).

Example:
  debtctl backup create
  debtctl backup list
  debtctl backup restore snapshots/2024/03/20240301T150405Z-0a1b2c3d4e5f.json`,
}

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Store a snapshot of the current document",
	Args:  cobra.NoArgs,
	Run:   runBackupCreate,
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored snapshots, newest first",
	Args:  cobra.NoArgs,
	Run:   runBackupList,
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore KEY",
	Short: "Replace the document with a stored snapshot",
	Args:  cobra.ExactArgs(1),
	Run:   runBackupRestore,
}

func init() {
	backupCmd.AddCommand(backupCreateCmd, backupListCmd, backupRestoreCmd)
}

func openSnapshots(cfg *config.Config) *backup.Snapshots {
	if err := cfg.Validate(config.RequiredForBackup()...); err != nil {
		exitOnError(err, "invalid configuration")
	}

	snapshots, err := backup.New(backup.ConnectionInfo{
		Endpoint:  cfg.Backup.Endpoint,
		AccessKey: cfg.Backup.AccessKey,
		SecretKey: cfg.Backup.SecretKey,
		Region:    cfg.Backup.Region,
		Bucket:    cfg.Backup.Bucket,
		UseSSL:    cfg.Backup.UseSSL,
	}, slog.Default())
	exitOnError(err, "failed to connect to backup storage")
	return snapshots
}

func runBackupCreate(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	a := newApp(ctx)
	defer a.Close()

	snapshots := openSnapshots(a.cfg)
	exitOnError(snapshots.EnsureBucket(ctx), "failed to prepare bucket")

	doc, err := a.repo.FetchAll(ctx)
	exitOnError(err, "failed to fetch debtors")

	key, err := snapshots.Snapshot(ctx, doc, time.Now())
	exitOnError(err, "failed to store snapshot")

	if err := a.history.SetMetadata(ctx, metadataLastBackup, key); err != nil {
		slog.Warn("failed to record backup", "key", key, "error", err)
	}

	fmt.Println(key)
}

func runBackupList(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	cfg, _ := loadConfig()

	objects, err := openSnapshots(cfg).List(ctx)
	exitOnError(err, "failed to list snapshots")

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tSIZE\tMODIFIED")
	for _, o := range objects {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", o.Key, o.Size, o.LastModified.Local().Format("2006-01-02 15:04:05"))
	}
	exitOnError(tw.Flush(), "failed to print snapshots")
}

func runBackupRestore(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	a := newApp(ctx)
	defer a.Close()

	doc, err := openSnapshots(a.cfg).Load(ctx, args[0])
	exitOnError(err, "failed to load snapshot")

	exitOnError(a.repo.Restore(ctx, doc), "failed to restore snapshot")

	slog.Info("Snapshot restored", "key", args[0], "debtors", len(doc))
	fmt.Printf("Restored %d debtor(s) from %s\n", len(doc), args[0])
}
