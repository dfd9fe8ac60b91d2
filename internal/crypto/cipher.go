package crypto

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

// Backend names accepted by NewSecretCipher
const (
	BackendAuto    = "auto"
	BackendKeyring = "keyring"
	BackendFile    = "file"
	BackendNone    = "none"
)

// Keyring coordinates of the master key
const (
	KeyringService = "proma"
	KeyringUser    = "channels-master-key"
)

// CipherOptions selects where the master key lives
type CipherOptions struct {
	Backend string
	// KeyFile is used by the file backend; defaults to <RootDir>/.keys/master.key
	KeyFile string
	RootDir string
}

// DefaultKeyFile returns the file backend location under rootDir
func DefaultKeyFile(rootDir string) string {
	return filepath.Join(rootDir, ".keys", "master.key")
}

// ValidBackend reports whether name is a known backend
func ValidBackend(name string) bool {
	switch strings.ToLower(name) {
	case "", BackendAuto, BackendKeyring, BackendFile, BackendNone:
		return true
	}
	return false
}

// NewSecretCipher builds the cipher for opts. It never fails: when no
// backend can provide a key the returned cipher reports IsAvailable false.
func NewSecretCipher(opts CipherOptions, logger *slog.Logger) SecretCipher {
	if logger == nil {
		logger = slog.Default()
	}

	keyFile := opts.KeyFile
	if keyFile == "" && opts.RootDir != "" {
		keyFile = DefaultKeyFile(opts.RootDir)
	}

	var stores []KeyStore
	switch strings.ToLower(opts.Backend) {
	case BackendNone:
		return Unavailable{Reason: "disabled by configuration"}
	case BackendKeyring:
		stores = []KeyStore{NewKeyringKeyStore(KeyringService, KeyringUser)}
	case BackendFile:
		stores = []KeyStore{NewFileKeyStore(keyFile)}
	default:
		stores = []KeyStore{NewKeyringKeyStore(KeyringService, KeyringUser)}
		if keyFile != "" {
			stores = append(stores, NewFileKeyStore(keyFile))
		}
	}

	var reasons []string
	for _, store := range stores {
		if fs, ok := store.(*FileKeyStore); ok && fs.Path() == "" {
			continue
		}
		km, err := NewKeyManagerFromStore(store)
		if err != nil {
			logger.Debug("key store unavailable", "backend", store.Name(), "error", err)
			reasons = append(reasons, fmt.Sprintf("%s: %v", store.Name(), err))
			continue
		}
		logger.Debug("using key store", "backend", store.Name())
		return km
	}

	reason := strings.Join(reasons, "; ")
	if reason == "" {
		reason = "no key store configured"
	}
	logger.Warn("credential encryption unavailable, API keys will be stored as plaintext", "reason", reason)
	return Unavailable{Reason: reason}
}
