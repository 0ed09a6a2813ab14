package platelog

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/saadjs/platelog/internal/app"
	"github.com/saadjs/platelog/internal/blob"
	"github.com/saadjs/platelog/internal/config"
	"github.com/saadjs/platelog/internal/service"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage database backups",
}

var (
	backupOut    string
	backupDir    string
	restoreFile  string
	restoreForce bool
	pushFile     string
	pullName     string
)

func resolveBackupDir() (string, error) {
	if backupDir != "" {
		return backupDir, nil
	}
	db, err := resolveDBPath()
	if err != nil {
		return "", err
	}
	return app.BackupDir(db), nil
}

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create database backup",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := resolveDBPath()
		if err != nil {
			return err
		}
		out := backupOut
		if out == "" {
			dir, err := resolveBackupDir()
			if err != nil {
				return err
			}
			out = filepath.Join(dir, service.DefaultBackupName(time.Now()))
		}
		info, err := service.CreateBackup(db, out)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created backup: %s\n", info.Path)
		fmt.Fprintf(cmd.OutOrStdout(), "Checksum: %s\n", info.Checksum)
		return nil
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backups",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := resolveBackupDir()
		if err != nil {
			return err
		}
		items, err := service.ListBackups(dir)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "FILE\tSIZE\tCREATED\tCHECKSUM")
		for _, it := range items {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\t%s\t%s\n", it.Path, it.SizeBytes, it.CreatedAt.Format(time.RFC3339), it.Checksum)
		}
		return nil
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore database from backup",
	RunE: func(cmd *cobra.Command, args []string) error {
		if restoreFile == "" {
			return fmt.Errorf("--file is required")
		}
		db, err := resolveDBPath()
		if err != nil {
			return err
		}
		if err := service.RestoreBackup(restoreFile, db, restoreForce); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Restored backup from %s\n", restoreFile)
		return nil
	},
}

func newBlobStore() (*blob.S3Store, error) {
	s3cfg := config.Load().S3
	if !s3cfg.IsConfigured() {
		return nil, fmt.Errorf("S3 is not configured, missing %v", s3cfg.MissingRequired())
	}
	return blob.NewS3Store(s3cfg.Endpoint, s3cfg.Region, s3cfg.Bucket, s3cfg.AccessKeyID, s3cfg.SecretAccessKey)
}

var backupPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Upload a backup to S3-compatible storage",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newBlobStore()
		if err != nil {
			return err
		}
		file := pushFile
		if file == "" {
			dir, err := resolveBackupDir()
			if err != nil {
				return err
			}
			items, err := service.ListBackups(dir)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				return fmt.Errorf("no backups found in %s; run `platelog backup create` first", dir)
			}
			file = items[0].Path
		}
		key, err := blob.PushBackup(cmd.Context(), store, file)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Pushed %s to %s\n", file, key)
		return nil
	},
}

var backupPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Download a pushed backup into the backup directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		if pullName == "" {
			return fmt.Errorf("--name is required")
		}
		store, err := newBlobStore()
		if err != nil {
			return err
		}
		dir, err := resolveBackupDir()
		if err != nil {
			return err
		}
		path, err := blob.PullBackup(cmd.Context(), store, pullName, dir)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Downloaded backup to %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.AddCommand(backupCreateCmd, backupListCmd, backupRestoreCmd, backupPushCmd, backupPullCmd)

	backupCmd.PersistentFlags().StringVar(&backupDir, "dir", "", "Backup directory (default: alongside DB under backups/)")
	backupCreateCmd.Flags().StringVar(&backupOut, "out", "", "Backup output file path")
	backupRestoreCmd.Flags().StringVar(&restoreFile, "file", "", "Backup .db file path")
	backupRestoreCmd.Flags().BoolVar(&restoreForce, "force", false, "Overwrite existing DB if present")
	backupPushCmd.Flags().StringVar(&pushFile, "file", "", "Backup file to upload (default: newest local backup)")
	backupPullCmd.Flags().StringVar(&pullName, "name", "", "Backup file name to download")
}
