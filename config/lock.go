package config

import (
	"fmt"
	"os"
)

// withFileLock runs fn while holding the advisory lock on the lock file.
// The lock lives on a sibling file because channels.json itself is replaced
// by rename on every write.
func (m *Manager) withFileLock(exclusive bool, fn func() error) error {
	if err := os.MkdirAll(m.rootDir, 0700); err != nil {
		return fmt.Errorf("%w: failed to create root directory: %v", ErrStorage, err)
	}

	f, err := os.OpenFile(m.lockPath, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return fmt.Errorf("%w: failed to open lock file: %v", ErrStorage, err)
	}
	defer f.Close()

	if err := flock(f, exclusive); err != nil {
		return fmt.Errorf("%w: failed to lock channels file: %v", ErrStorage, err)
	}
	defer func() {
		if err := funlock(f); err != nil {
			m.logger.Warn("failed to unlock channels file", "error", err)
		}
	}()

	return fn()
}
