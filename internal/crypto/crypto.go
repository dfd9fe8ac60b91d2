package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// EncryptedPrefix is the prefix used to identify encrypted values
const EncryptedPrefix = "ENC:"

// MasterKeySize is the length of the secret held by a KeyStore
const MasterKeySize = 32

const hkdfInfo = "proma channel api keys v1"

var (
	// ErrDecryption is returned when a stored credential cannot be decrypted
	ErrDecryption = errors.New("failed to decrypt API key")
	// ErrUnavailable is returned by a cipher that has no key material
	ErrUnavailable = errors.New("encryption is not available")
)

// SecretCipher encrypts credentials before they reach disk
type SecretCipher interface {
	IsAvailable() bool
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// KeyManager handles encryption and decryption of API keys with AES-256-GCM
type KeyManager struct {
	key []byte
}

// NewKeyManager derives the data key from a master key
func NewKeyManager(masterKey []byte) (*KeyManager, error) {
	if len(masterKey) < MasterKeySize {
		return nil, fmt.Errorf("master key too short: %d bytes", len(masterKey))
	}

	key := make([]byte, 32)
	r := hkdf.New(sha256.New, masterKey, nil, []byte(hkdfInfo))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("failed to derive encryption key: %w", err)
	}

	return &KeyManager{key: key}, nil
}

// NewKeyManagerFromStore loads the master key from store, creating it on first use
func NewKeyManagerFromStore(store KeyStore) (*KeyManager, error) {
	master, err := loadOrCreateMasterKey(store)
	if err != nil {
		return nil, err
	}
	return NewKeyManager(master)
}

// IsAvailable reports true; a KeyManager always holds a key
func (km *KeyManager) IsAvailable() bool {
	return true
}

// Encrypt encrypts the plaintext API key
func (km *KeyManager) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	gcm, err := km.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return EncryptedPrefix + base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt decrypts a value produced by Encrypt
func (km *KeyManager) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}
	if !strings.HasPrefix(ciphertext, EncryptedPrefix) {
		return "", fmt.Errorf("%w: missing %s prefix", ErrDecryption, EncryptedPrefix)
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(ciphertext, EncryptedPrefix))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryption, err)
	}

	gcm, err := km.gcm()
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(decoded) < nonceSize {
		return "", fmt.Errorf("%w: ciphertext too short", ErrDecryption)
	}

	nonce, sealed := decoded[:nonceSize], decoded[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryption, err)
	}

	return string(plaintext), nil
}

func (km *KeyManager) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(km.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// IsEncrypted checks if a string appears to be encrypted
func IsEncrypted(value string) bool {
	if !strings.HasPrefix(value, EncryptedPrefix) {
		return false
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, EncryptedPrefix))
	if err != nil {
		return false
	}

	// 12 byte nonce plus 16 byte tag at minimum
	return len(decoded) >= 28
}

// Unavailable is the cipher used when no key store can be reached
type Unavailable struct {
	Reason string
}

func (u Unavailable) IsAvailable() bool { return false }

func (u Unavailable) Encrypt(string) (string, error) { return "", u.err() }

func (u Unavailable) Decrypt(string) (string, error) { return "", u.err() }

func (u Unavailable) err() error {
	if u.Reason == "" {
		return ErrUnavailable
	}
	return fmt.Errorf("%w: %s", ErrUnavailable, u.Reason)
}
