package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"proma/config/models"
	"proma/config/storage"
	"proma/config/validation"
	"proma/internal/crypto"
	"proma/internal/probe"
	"proma/internal/providers"
)

// Prober tests credentials against a provider and lists its models
type Prober interface {
	Test(ctx context.Context, creds models.Credentials) models.TestResult
	FetchModels(ctx context.Context, creds models.Credentials) models.FetchModelsResult
}

// Manager is the channel store over <root>/channels.json. Every call re-reads
// the file; nothing is cached between calls.
type Manager struct {
	rootDir  string
	path     string
	lockPath string
	mu       sync.Mutex

	cipher    crypto.SecretCipher
	prober    Prober
	logger    *slog.Logger
	backups   *storage.BackupManager
	validator *validation.Validator
	models    *ModelValidator
	now       func() time.Time
	newID     func() string
}

// Option configures a Manager
type Option func(*Manager)

// WithCipher sets the cipher protecting API keys
func WithCipher(c crypto.SecretCipher) Option {
	return func(m *Manager) {
		m.cipher = c
	}
}

// WithProber sets the prober used by Test, TestDirect and FetchModels
func WithProber(p Prober) Option {
	return func(m *Manager) {
		m.prober = p
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock overrides time.Now for timestamps
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithIDGenerator overrides the UUID generator
func WithIDGenerator(newID func() string) Option {
	return func(m *Manager) {
		m.newID = newID
	}
}

// WithBackupRetention sets how many rotating backups are kept
func WithBackupRetention(n int) Option {
	return func(m *Manager) {
		m.backups = storage.NewBackupManager(n)
	}
}

// NewManager creates a Manager rooted at rootDir. Without WithCipher the
// cipher is chosen automatically (OS keyring, then a key file under rootDir).
func NewManager(rootDir string, opts ...Option) (*Manager, error) {
	if rootDir == "" {
		return nil, errors.New("root directory must not be empty")
	}

	abs, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0700); err != nil {
		return nil, fmt.Errorf("failed to create root directory: %w", err)
	}

	m := &Manager{
		rootDir:   abs,
		path:      filepath.Join(abs, ChannelsFileName),
		lockPath:  filepath.Join(abs, lockFileName),
		logger:    slog.Default(),
		backups:   storage.NewBackupManager(storage.DefaultBackupRetention),
		validator: validation.NewValidator(),
		models:    NewModelValidator(),
		now:       time.Now,
		newID:     uuid.NewString,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.cipher == nil {
		m.cipher = crypto.NewSecretCipher(crypto.CipherOptions{Backend: crypto.BackendAuto, RootDir: abs}, m.logger)
	}
	if m.prober == nil {
		m.prober = probe.NewProber(probe.WithLogger(m.logger))
	}

	return m, nil
}

// Path returns the location of channels.json
func (m *Manager) Path() string {
	return m.path
}

// RootDir returns the root directory
func (m *Manager) RootDir() string {
	return m.rootDir
}

// EncryptionAvailable reports whether API keys are encrypted at rest
func (m *Manager) EncryptionAvailable() bool {
	return m.cipher.IsAvailable()
}

// load reads the document. A missing or empty file is an empty document; an
// unparsable one is preserved as .bak, logged and treated as empty. raw is
// the current file content when it is a valid document, for MergeDocument.
func (m *Manager) load() (doc *models.ChannelsConfig, raw []byte, err error) {
	empty := &models.ChannelsConfig{Version: models.CurrentVersion, Channels: []models.Channel{}}

	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return empty, nil, nil
		}
		return nil, nil, fmt.Errorf("%w: failed to read %s: %v", ErrStorage, m.path, err)
	}

	if storage.IsBlank(data) {
		return empty, nil, nil
	}

	var cfg models.ChannelsConfig
	parseErr := storage.ValidateDocument(data)
	if parseErr == nil {
		parseErr = json.Unmarshal(data, &cfg)
	}
	if parseErr != nil {
		saved, saveErr := m.backups.PreserveCorrupt(m.path, data)
		if saveErr != nil {
			m.logger.Error("channels file is corrupt and could not be preserved",
				"path", m.path, "parse_error", parseErr, "error", saveErr)
		} else {
			m.logger.Warn("channels file is corrupt, treating as empty",
				"path", m.path, "preserved_as", saved, "error", parseErr)
		}
		return empty, nil, nil
	}

	if cfg.Version > models.CurrentVersion {
		m.logger.Warn("channels file was written by a newer version", "version", cfg.Version)
	}
	if cfg.Channels == nil {
		cfg.Channels = []models.Channel{}
	}
	for i := range cfg.Channels {
		if cfg.Channels[i].Models == nil {
			cfg.Channels[i].Models = []models.Model{}
		}
	}

	return &cfg, data, nil
}

// save writes channels into the document, keeping unknown top-level keys
func (m *Manager) save(channels []models.Channel, raw []byte) error {
	if channels == nil {
		channels = []models.Channel{}
	}

	channelsJSON, err := json.Marshal(channels)
	if err != nil {
		return fmt.Errorf("failed to serialize channels: %w", err)
	}

	data, err := storage.MergeDocument(raw, models.CurrentVersion, channelsJSON)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
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

	return nil
}

// read runs fn on a freshly loaded document under the shared lock
func (m *Manager) read(fn func(doc *models.ChannelsConfig) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.withFileLock(false, func() error {
		doc, _, err := m.load()
		if err != nil {
			return err
		}
		return fn(doc)
	})
}

// mutate runs a read-modify-write under the exclusive lock. fn reports
// whether it changed anything; nothing is written otherwise.
func (m *Manager) mutate(fn func(doc *models.ChannelsConfig) (bool, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.withFileLock(true, func() error {
		doc, raw, err := m.load()
		if err != nil {
			return err
		}

		changed, err := fn(doc)
		if err != nil || !changed {
			return err
		}

		return m.save(doc.Channels, raw)
	})
}

func indexOf(channels []models.Channel, id string) int {
	for i := range channels {
		if channels[i].ID == id {
			return i
		}
	}
	return -1
}

func notFound(id string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// nextUpdatedAt keeps updatedAt strictly increasing even if the clock stalls
// or steps back
func (m *Manager) nextUpdatedAt(previous int64) int64 {
	now := m.now().UnixMilli()
	if now <= previous {
		return previous + 1
	}
	return now
}

func (m *Manager) encrypt(plaintext string) (string, error) {
	if !m.cipher.IsAvailable() {
		m.logger.Warn("encryption unavailable, storing API key as plaintext")
		return plaintext, nil
	}
	encrypted, err := m.cipher.Encrypt(plaintext)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt API key: %w", err)
	}
	return encrypted, nil
}

func (m *Manager) decrypt(stored string) (string, error) {
	if stored == "" {
		return "", nil
	}
	if !strings.HasPrefix(stored, crypto.EncryptedPrefix) {
		if m.cipher.IsAvailable() {
			m.logger.Warn("stored API key is not encrypted, run 'proma rekey' to encrypt it")
		}
		return stored, nil
	}
	return m.cipher.Decrypt(stored)
}

// List returns all channels in insertion order with API keys as stored.
// It never fails: storage errors are logged and yield an empty list.
func (m *Manager) List() []models.Channel {
	var channels []models.Channel
	err := m.read(func(doc *models.ChannelsConfig) error {
		channels = doc.Channels
		return nil
	})
	if err != nil {
		m.logger.Error("failed to read channels", "path", m.path, "error", err)
		return []models.Channel{}
	}
	return channels
}

// Get returns one channel with its API key as stored
func (m *Manager) Get(id string) (*models.Channel, error) {
	var found *models.Channel
	err := m.read(func(doc *models.ChannelsConfig) error {
		idx := indexOf(doc.Channels, id)
		if idx < 0 {
			return notFound(id)
		}
		ch := doc.Channels[idx]
		found = &ch
		return nil
	})
	return found, err
}

// Create stores a new channel. The API key is encrypted before it is written.
func (m *Manager) Create(input models.ChannelCreateInput) (*models.Channel, error) {
	if err := m.validator.ValidateCreate(input); err != nil {
		return nil, err
	}

	provider, err := providers.Get(input.Provider)
	if err != nil {
		return nil, err
	}

	apiKey, err := m.encrypt(input.APIKey)
	if err != nil {
		return nil, err
	}

	now := m.now().UnixMilli()
	ch := models.Channel{
		ID:        m.newID(),
		Name:      strings.TrimSpace(input.Name),
		Provider:  input.Provider,
		BaseURL:   provider.NormalizeConfig(input.BaseURL),
		APIKey:    apiKey,
		Models:    m.models.NormalizeModels(input.Models),
		Enabled:   input.Enabled,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = m.mutate(func(doc *models.ChannelsConfig) (bool, error) {
		doc.Channels = append(doc.Channels, ch)
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("channel created", "id", ch.ID, "name", ch.Name, "provider", ch.Provider)
	return &ch, nil
}

// Update applies a partial update. A nil or empty APIKey keeps the stored key.
func (m *Manager) Update(id string, input models.ChannelUpdateInput) (*models.Channel, error) {
	if err := m.validator.ValidateUpdate(input); err != nil {
		return nil, err
	}

	var updated models.Channel
	err := m.mutate(func(doc *models.ChannelsConfig) (bool, error) {
		idx := indexOf(doc.Channels, id)
		if idx < 0 {
			return false, notFound(id)
		}
		ch := doc.Channels[idx]

		if input.Name != nil {
			ch.Name = strings.TrimSpace(*input.Name)
		}
		if input.Provider != nil {
			ch.Provider = *input.Provider
		}
		if input.BaseURL != nil {
			ch.BaseURL = *input.BaseURL
		}
		// stored URLs are left as written unless this update touches them
		if input.BaseURL != nil || input.Provider != nil {
			if provider, err := providers.Get(ch.Provider); err == nil {
				ch.BaseURL = provider.NormalizeConfig(ch.BaseURL)
			}
		}
		if ch.Provider == models.ProviderCustom && ch.BaseURL == "" {
			return false, fmt.Errorf("%w: custom: must provide base URL", validation.ErrInvalidInput)
		}
		if input.APIKey != nil && *input.APIKey != "" {
			encrypted, err := m.encrypt(*input.APIKey)
			if err != nil {
				return false, err
			}
			ch.APIKey = encrypted
		}
		if input.Models != nil {
			ch.Models = m.models.NormalizeModels(input.Models)
		}
		if input.Enabled != nil {
			ch.Enabled = *input.Enabled
		}
		ch.UpdatedAt = m.nextUpdatedAt(ch.UpdatedAt)

		doc.Channels[idx] = ch
		updated = ch
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("channel updated", "id", id)
	return &updated, nil
}

// Delete removes a channel, keeping the order of the others
func (m *Manager) Delete(id string) error {
	err := m.mutate(func(doc *models.ChannelsConfig) (bool, error) {
		idx := indexOf(doc.Channels, id)
		if idx < 0 {
			return false, notFound(id)
		}
		doc.Channels = append(doc.Channels[:idx], doc.Channels[idx+1:]...)
		return true, nil
	})
	if err != nil {
		return err
	}

	m.logger.Info("channel deleted", "id", id)
	return nil
}

// DecryptAPIKey returns the plaintext API key of a channel
func (m *Manager) DecryptAPIKey(id string) (string, error) {
	ch, err := m.Get(id)
	if err != nil {
		return "", err
	}
	return m.decrypt(ch.APIKey)
}

// credentials resolves a stored channel into probe input
func (m *Manager) credentials(ch models.Channel) (models.Credentials, error) {
	apiKey, err := m.decrypt(ch.APIKey)
	if err != nil {
		return models.Credentials{}, err
	}
	return models.Credentials{Provider: ch.Provider, BaseURL: ch.BaseURL, APIKey: apiKey}, nil
}
