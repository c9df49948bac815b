package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vibecli/vibe/internal/backup"
	"github.com/vibecli/vibe/internal/tui"
)

var plainBackups bool

var backupsCmd = &cobra.Command{
	Use:   "backups [target_dir]",
	Short: "Browse the backups taken in a project",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := filepath.Abs(targetDir(args))
		if err != nil {
			return err
		}
		store, err := backup.NewStore(root, cfg.BackupDir)
		if err != nil {
			return err
		}
		records, err := store.Records()
		if err != nil {
			return err
		}

		if plainBackups {
			printRecords(records)
			return nil
		}
		return tui.Run(records)
	},
}

// printRecords writes a plain-text listing to stdout.
func printRecords(records []backup.Record) {
	if len(records) == 0 {
		fmt.Println("No backups yet.")
		return
	}
	for _, rec := range records {
		kind := "file"
		if rec.IsArchive {
			kind = "archive"
		}
		fmt.Printf("%s  %-7s  %s\n      %s\n",
			rec.Timestamp.Format("2006-01-02 15:04:05"), kind, rec.OriginalRel, rec.BackupPath)
	}
}

func init() {
	backupsCmd.Flags().BoolVar(&plainBackups, "plain", false, "plain text output instead of TUI")
	rootCmd.AddCommand(backupsCmd)
}
