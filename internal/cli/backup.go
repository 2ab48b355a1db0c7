package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/julianstephens/streakline/internal/backup"
	"github.com/julianstephens/streakline/internal/config"
	"github.com/julianstephens/streakline/internal/constants"
	"github.com/julianstephens/streakline/internal/logger"
)

var errBackupUnsupported = errors.New("backups are only supported for SQLite storage; use pg_dump for PostgreSQL")

type BackupCmd struct {
	Create  BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
	List    BackupListCmd    `cmd:"" help:"List available backups."`
	Restore BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
}

func (c *Context) backupManager() (*backup.Manager, error) {
	if c.Conn.IsPostgres() {
		return nil, errBackupUnsupported
	}
	return backup.NewManager(c.Store.GetConfigPath(), backup.WithClock(c.Normalizer())), nil
}

type BackupCreateCmd struct {
	Bucket string `help:"Also upload the backup to this S3 bucket (endpoint and keys from STREAKLINE_S3_*)."`
}

func (c *BackupCreateCmd) Run(ctx *Context) error {
	mgr, err := ctx.backupManager()
	if err != nil {
		return err
	}
	backupPath, err := mgr.CreateBackup()
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}
	ctx.printf("✓ Backup created: %s\n", filepath.Base(backupPath))

	if c.Bucket == "" {
		return nil
	}
	up, err := backup.NewMinIOUploader(config.LoadS3Config(os.LookupEnv, c.Bucket))
	if err != nil {
		return err
	}
	key, err := up.Upload(context.Background(), backupPath)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	ctx.printf("✓ Uploaded to s3://%s/%s\n", c.Bucket, key)
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *Context) error {
	mgr, err := ctx.backupManager()
	if err != nil {
		return err
	}
	backups, err := mgr.ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	return ctx.render(backups, func(w io.Writer, st styles) {
		writeBackups(w, st, mgr.GetBackupDir(), backups)
	})
}

type BackupRestoreCmd struct {
	BackupFile string `arg:"" help:"Path or filename of the backup to restore."`
	Yes        bool   `short:"y" help:"Skip the confirmation prompt."`
	Force      bool   `help:"Restore even if other streakline processes are running."`
}

// resolve finds the backup as given, or by name inside the backup directory.
func (c *BackupRestoreCmd) resolve(mgr *backup.Manager) (string, error) {
	if filepath.IsAbs(c.BackupFile) {
		if _, err := os.Stat(c.BackupFile); err != nil {
			return "", fmt.Errorf("backup file not found: %s", c.BackupFile)
		}
		return c.BackupFile, nil
	}
	if _, err := os.Stat(c.BackupFile); err == nil {
		return filepath.Abs(c.BackupFile)
	}
	candidate := filepath.Join(mgr.GetBackupDir(), c.BackupFile)
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}
	return "", fmt.Errorf("backup file not found: tried current directory and %s", mgr.GetBackupDir())
}

func (c *BackupRestoreCmd) Run(ctx *Context) error {
	mgr, err := ctx.backupManager()
	if err != nil {
		return err
	}
	backupPath, err := c.resolve(mgr)
	if err != nil {
		return err
	}

	if !c.Force {
		pids, err := runningInstances()
		if err != nil {
			logger.Warn("could not check for running instances", "error", err)
		} else if len(pids) > 0 {
			return fmt.Errorf("%d other %s process(es) running (pid %v); stop them or pass --force", len(pids), constants.AppName, pids)
		}
	}

	if !c.Yes {
		ctx.println("⚠️  WARNING: This will replace your current database with the backup.")
		ctx.println("⚠️  IMPORTANT: Stop every streakline process (including serve and tui) before restoring.")
		ctx.println("A backup of your current database will be created before restoring.")
		ctx.printf("\nRestore from: %s\n", backupPath)
		ctx.printf("Continue? [y/N]: ")

		response, err := bufio.NewReader(ctx.In).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			ctx.println("Restore cancelled.")
			return nil
		}
	}

	if err := ctx.Store.Close(); err != nil {
		logger.Warn("failed to close database before restore", "error", err)
	}

	preRestore, err := mgr.RestoreBackup(backupPath)
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}
	if preRestore != "" {
		ctx.printf("Previous database saved as: %s\n", filepath.Base(preRestore))
	}
	ctx.printf("✓ Restored from %s\n", filepath.Base(backupPath))
	return nil
}
