package models

// CurrentVersion is the schema version written to channels.json
const CurrentVersion = 1

// ProviderType identifies the API family a channel speaks
type ProviderType string

const (
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOpenAI    ProviderType = "openai"
	ProviderDeepSeek  ProviderType = "deepseek"
	ProviderGoogle    ProviderType = "google"
	ProviderCustom    ProviderType = "custom"
)

// ProviderTypes lists every supported provider in display order
var ProviderTypes = []ProviderType{
	ProviderAnthropic,
	ProviderOpenAI,
	ProviderDeepSeek,
	ProviderGoogle,
	ProviderCustom,
}

// Valid reports whether p is one of the known providers
func (p ProviderType) Valid() bool {
	for _, known := range ProviderTypes {
		if p == known {
			return true
		}
	}
	return false
}

// OpenAICompatible reports whether the provider uses the OpenAI REST shape
func (p ProviderType) OpenAICompatible() bool {
	return p == ProviderOpenAI || p == ProviderDeepSeek || p == ProviderCustom
}

// Model is a model offered by a channel
type Model struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

// Channel is one configured provider endpoint with its credential.
// APIKey holds ciphertext unless the cipher was unavailable when it was written.
type Channel struct {
	ID        string       `json:"id" yaml:"id"`
	Name      string       `json:"name" yaml:"name"`
	Provider  ProviderType `json:"provider" yaml:"provider"`
	BaseURL   string       `json:"baseUrl" yaml:"baseUrl"`
	APIKey    string       `json:"apiKey" yaml:"apiKey"`
	Models    []Model      `json:"models" yaml:"models"`
	Enabled   bool         `json:"enabled" yaml:"enabled"`
	CreatedAt int64        `json:"createdAt" yaml:"createdAt"`
	UpdatedAt int64        `json:"updatedAt" yaml:"updatedAt"`
}

// ChannelsConfig is the root document of channels.json
type ChannelsConfig struct {
	Version  int       `json:"version"`
	Channels []Channel `json:"channels"`
}

// ChannelCreateInput carries the fields of a new channel. APIKey is plaintext.
type ChannelCreateInput struct {
	Name     string       `json:"name"`
	Provider ProviderType `json:"provider"`
	BaseURL  string       `json:"baseUrl"`
	APIKey   string       `json:"apiKey"`
	Models   []Model      `json:"models"`
	Enabled  bool         `json:"enabled"`
}

// ChannelUpdateInput is a partial update. Nil fields are left untouched.
// A nil or empty APIKey keeps the stored credential. A nil Models keeps the
// stored list; an empty non-nil slice clears it.
type ChannelUpdateInput struct {
	Name     *string       `json:"name,omitempty"`
	Provider *ProviderType `json:"provider,omitempty"`
	BaseURL  *string       `json:"baseUrl,omitempty"`
	APIKey   *string       `json:"apiKey,omitempty"`
	Models   []Model       `json:"models,omitempty"`
	Enabled  *bool         `json:"enabled,omitempty"`
}

// Credentials is what a probe needs to reach a provider. APIKey is plaintext.
type Credentials struct {
	Provider ProviderType `json:"provider"`
	BaseURL  string       `json:"baseUrl"`
	APIKey   string       `json:"apiKey"`
}

// FailureKind classifies why a probe did not succeed
type FailureKind string

const (
	FailureTimeout             FailureKind = "timeout"
	FailureConnectionRefused   FailureKind = "connection_refused"
	FailureDNS                 FailureKind = "dns_failure"
	FailureTLS                 FailureKind = "tls_failure"
	FailureNetwork             FailureKind = "network_error"
	FailureInvalidCredential   FailureKind = "invalid_credential"
	FailureHTTP                FailureKind = "http_error"
	FailureUnsupportedProvider FailureKind = "unsupported_provider"
	FailureInvalidInput        FailureKind = "invalid_input"
	FailureDecryption          FailureKind = "decryption_failed"
)

// TestResult is the outcome of a connectivity probe
type TestResult struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	Kind       FailureKind `json:"kind,omitempty"`
	StatusCode int         `json:"statusCode,omitempty"`
	LatencyMs  int64       `json:"latencyMs,omitempty"`
}

// FetchModelsResult is the outcome of listing a provider's models
type FetchModelsResult struct {
	Success bool    `json:"success"`
	Models  []Model `json:"models"`
	Message string  `json:"message"`
}

// ChannelTestReport pairs a channel with its probe result
type ChannelTestReport struct {
	ChannelID string       `json:"channelId"`
	Name      string       `json:"name"`
	Provider  ProviderType `json:"provider"`
	Result    TestResult   `json:"result"`
}
