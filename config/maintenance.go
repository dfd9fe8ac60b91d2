package config

import (
	"fmt"
	"strings"

	"proma/config/models"
	"proma/config/storage"
	"proma/internal/crypto"
)

// Reencrypt encrypts every API key still stored as plaintext and returns how
// many were converted. Keys that are already encrypted are left alone.
func (m *Manager) Reencrypt() (int, error) {
	if !m.cipher.IsAvailable() {
		return 0, fmt.Errorf("cannot encrypt stored keys: %w", crypto.ErrUnavailable)
	}

	converted := 0
	err := m.mutate(func(doc *models.ChannelsConfig) (bool, error) {
		for i := range doc.Channels {
			ch := &doc.Channels[i]
			if ch.APIKey == "" || strings.HasPrefix(ch.APIKey, crypto.EncryptedPrefix) {
				continue
			}

			encrypted, err := m.cipher.Encrypt(ch.APIKey)
			if err != nil {
				return false, fmt.Errorf("failed to encrypt API key of %s: %w", ch.ID, err)
			}
			ch.APIKey = encrypted
			ch.UpdatedAt = m.nextUpdatedAt(ch.UpdatedAt)
			converted++
		}
		return converted > 0, nil
	})
	if err != nil {
		return 0, err
	}

	if converted > 0 {
		m.logger.Info("plaintext API keys encrypted", "count", converted)
	}
	return converted, nil
}

// ListBackups returns the rotating backups of channels.json, oldest first
func (m *Manager) ListBackups() ([]string, error) {
	return m.backups.ListBackups(m.path)
}

// RestoreLatestBackup replaces channels.json with its newest backup and
// returns the backup used. The current file is itself backed up first.
func (m *Manager) RestoreLatestBackup() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var restored string
	err := m.withFileLock(true, func() error {
		latest, err := m.backups.LatestBackup(m.path)
		if err != nil {
			return err
		}

		data, err := m.backups.ReadBackup(m.path, latest)
		if err != nil {
			return err
		}
		if err := storage.ValidateDocument(data); err != nil {
			return fmt.Errorf("backup %s is not usable: %w", latest, err)
		}

		if storage.FileExists(m.path) {
			if _, err := m.backups.CreateBackup(m.path); err != nil {
				return fmt.Errorf("%w: %v", ErrStorage, err)
			}
		}
		if err := storage.AtomicWriteFile(m.path, data, 0600); err != nil {
			return fmt.Errorf("%w: %v", ErrStorage, err)
		}
		if err := m.backups.CleanupOldBackups(m.path); err != nil {
			m.logger.Warn("failed to clean up old backups", "error", err)
		}

		restored = latest
		return nil
	})
	if err != nil {
		return "", err
	}

	m.logger.Info("channels restored from backup", "backup", restored)
	return restored, nil
}
