package initcmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// BackupConfig copies an existing config to path.bak, replacing any earlier
// backup, and keeps the original's permissions since it may hold a token.
// Returns an empty path when there is nothing to back up.
func BackupConfig(configPath string) (string, error) {
	info, err := os.Stat(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("stat config: %w", err)
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return "", fmt.Errorf("read existing config: %w", err)
	}

	backupPath := configPath + ".bak"
	if err := os.WriteFile(backupPath, content, info.Mode().Perm()); err != nil {
		return "", fmt.Errorf("create backup: %w", err)
	}
	return backupPath, nil
}

// ConfigExists checks if a config file exists at the given path.
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return err == nil
}
