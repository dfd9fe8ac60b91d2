package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	// DefaultBackupRetention is the default number of backups to keep
	DefaultBackupRetention = 3

	backupTimeFormat = "20060102150405.000000"
)

// BackupManager manages backup files for the channels document
type BackupManager struct {
	// MaxBackups is the maximum number of backups to retain
	MaxBackups int
	now        func() time.Time
}

// NewBackupManager creates a new BackupManager
func NewBackupManager(maxBackups int) *BackupManager {
	if maxBackups <= 0 {
		maxBackups = DefaultBackupRetention
	}
	return &BackupManager{
		MaxBackups: maxBackups,
		now:        time.Now,
	}
}

func (bm *BackupManager) stamp() string {
	return bm.now().UTC().Format(backupTimeFormat)
}

// CreateBackup copies filePath to filePath.backup-<timestamp>-<pid>
func (bm *BackupManager) CreateBackup(filePath string) (string, error) {
	backupPath := fmt.Sprintf("%s.backup-%s-%d", filePath, bm.stamp(), os.Getpid())

	if err := copyFile(filePath, backupPath); err != nil {
		return "", fmt.Errorf("failed to create backup: %w", err)
	}

	return backupPath, nil
}

// PreserveCorrupt copies an unreadable document aside so a later write
// cannot destroy it. The copy is named after a hash of data, so preserving
// the same content twice is a no-op. It ends in .bak and is never rotated.
func (bm *BackupManager) PreserveCorrupt(filePath string, data []byte) (string, error) {
	sum := sha256.Sum256(data)
	corruptPath := fmt.Sprintf("%s.corrupt-%s.bak", filePath, hex.EncodeToString(sum[:6]))

	if FileExists(corruptPath) {
		return corruptPath, nil
	}
	if err := AtomicWriteFile(corruptPath, data, 0600); err != nil {
		return "", fmt.Errorf("failed to preserve corrupt file: %w", err)
	}

	return corruptPath, nil
}

// ListBackups returns the rotating backups of filePath, oldest first
func (bm *BackupManager) ListBackups(filePath string) ([]string, error) {
	pattern := filePath + ".backup-*"

	backupFiles, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	// the timestamp is fixed width, so name order is age order
	sort.Strings(backupFiles)

	return backupFiles, nil
}

// CleanupOldBackups removes old backup files, retaining only the most recent MaxBackups
func (bm *BackupManager) CleanupOldBackups(filePath string) error {
	backupFiles, err := bm.ListBackups(filePath)
	if err != nil {
		return err
	}

	numToRemove := len(backupFiles) - bm.MaxBackups
	if numToRemove <= 0 {
		return nil
	}

	for _, oldBackup := range backupFiles[:numToRemove] {
		if err := os.Remove(oldBackup); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", oldBackup, err)
		}
	}

	return nil
}

// ReadBackup returns the content of a backup after checking it belongs to filePath
func (bm *BackupManager) ReadBackup(filePath string, backupPath string) ([]byte, error) {
	prefix := filepath.Base(filePath) + ".backup-"
	if filepath.Dir(backupPath) != filepath.Dir(filePath) || !strings.HasPrefix(filepath.Base(backupPath), prefix) {
		return nil, fmt.Errorf("backup path %s is not a valid backup for %s", backupPath, filePath)
	}

	data, err := os.ReadFile(backupPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup: %w", err)
	}
	return data, nil
}

// LatestBackup returns the newest backup of filePath
func (bm *BackupManager) LatestBackup(filePath string) (string, error) {
	backupFiles, err := bm.ListBackups(filePath)
	if err != nil {
		return "", err
	}

	if len(backupFiles) == 0 {
		return "", fmt.Errorf("no backup files found for %s", filePath)
	}

	return backupFiles[len(backupFiles)-1], nil
}

// copyFile copies src to dst keeping the source permissions
func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return err
	}

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		dstFile.Close()
		return err
	}
	if err := dstFile.Close(); err != nil {
		return err
	}

	return os.Chmod(dst, srcInfo.Mode().Perm())
}
