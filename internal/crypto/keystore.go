package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zalando/go-keyring"
)

// ErrKeyNotFound is returned by a KeyStore that holds no master key yet
var ErrKeyNotFound = errors.New("master key not found")

// KeyStore persists the master key that protects channel credentials
type KeyStore interface {
	// Name identifies the backend in logs
	Name() string
	Retrieve() ([]byte, error)
	// Store saves key; it fails with os.ErrExist if a key is already present
	Store(key []byte) error
	Delete() error
}

// FileKeyStore keeps the master key in a 0600 file
type FileKeyStore struct {
	path string
}

// NewFileKeyStore returns a store backed by path
func NewFileKeyStore(path string) *FileKeyStore {
	return &FileKeyStore{path: path}
}

func (s *FileKeyStore) Name() string { return "file" }

// Path returns the key file location
func (s *FileKeyStore) Path() string { return s.path }

func (s *FileKeyStore) Retrieve() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	if len(data) != MasterKeySize {
		return nil, fmt.Errorf("key file %s has invalid length %d", s.path, len(data))
	}
	return data, nil
}

func (s *FileKeyStore) Store(key []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return err
	}
	if _, err := f.Write(key); err != nil {
		f.Close()
		os.Remove(s.path)
		return fmt.Errorf("failed to write key file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("failed to sync key file: %w", err)
	}
	return f.Close()
}

func (s *FileKeyStore) Delete() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove key file: %w", err)
	}
	return nil
}

// KeyringKeyStore keeps the master key in the OS secret service
type KeyringKeyStore struct {
	service string
	user    string
}

// NewKeyringKeyStore returns a store for the given keyring service and account
func NewKeyringKeyStore(service, user string) *KeyringKeyStore {
	return &KeyringKeyStore{service: service, user: user}
}

func (s *KeyringKeyStore) Name() string { return "keyring" }

func (s *KeyringKeyStore) Retrieve() ([]byte, error) {
	encoded, err := keyring.Get(s.service, s.user)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("keyring lookup failed: %w", err)
	}

	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("keyring entry is not valid base64: %w", err)
	}
	if len(key) != MasterKeySize {
		return nil, fmt.Errorf("keyring entry has invalid length %d", len(key))
	}
	return key, nil
}

func (s *KeyringKeyStore) Store(key []byte) error {
	if _, err := s.Retrieve(); err == nil {
		return os.ErrExist
	}
	if err := keyring.Set(s.service, s.user, base64.StdEncoding.EncodeToString(key)); err != nil {
		return fmt.Errorf("keyring write failed: %w", err)
	}
	return nil
}

func (s *KeyringKeyStore) Delete() error {
	err := keyring.Delete(s.service, s.user)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keyring delete failed: %w", err)
	}
	return nil
}

func loadOrCreateMasterKey(store KeyStore) ([]byte, error) {
	key, err := store.Retrieve()
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, ErrKeyNotFound) {
		return nil, err
	}

	key = make([]byte, MasterKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate master key: %w", err)
	}

	if err := store.Store(key); err != nil {
		// another process created it first
		if errors.Is(err, os.ErrExist) {
			return store.Retrieve()
		}
		return nil, fmt.Errorf("failed to store master key in %s: %w", store.Name(), err)
	}
	return key, nil
}
