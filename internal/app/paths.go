package app

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	appDirName     = "platelog"
	dbFileName     = "platelog.db"
	backupsDirName = "backups"
)

func DefaultDBPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(base, appDirName, dbFileName), nil
}

// BackupDir is the default backup location, next to the database file.
func BackupDir(dbPath string) string {
	return filepath.Join(filepath.Dir(dbPath), backupsDirName)
}

func EnsureDBDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db directory: %w", err)
	}
	return nil
}
