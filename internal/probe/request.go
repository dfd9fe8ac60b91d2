// Package probe checks that a channel's endpoint and credential work and
// lists the models a provider offers.
package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"proma/config/models"
	"proma/internal/providers"
	"proma/internal/utils"
)

// AnthropicVersion is sent with every Anthropic request
const AnthropicVersion = "2023-06-01"

// RequestBuilder builds the provider-specific probe requests
type RequestBuilder interface {
	// BuildTestRequest builds the cheapest request that proves the credential works
	BuildTestRequest(ctx context.Context) (*http.Request, error)
	// BuildModelsRequest builds the model listing request
	BuildModelsRequest(ctx context.Context) (*http.Request, error)
}

// ChatMessage represents a message in the probe request
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AnthropicRequest is the body of the Messages API probe
type AnthropicRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	Messages  []ChatMessage `json:"messages"`
}

// AnthropicRequestBuilder builds requests for the Anthropic Messages API
type AnthropicRequestBuilder struct {
	baseURL string
	apiKey  string
	model   string
}

// endpoint appends path after the API version, adding /v1 unless the base
// URL already carries a version segment
func (b *AnthropicRequestBuilder) endpoint(path string) string {
	if utils.HasVersionSuffix(b.baseURL) {
		return utils.JoinURL(b.baseURL, path)
	}
	return utils.JoinURL(b.baseURL, "/v1"+path)
}

func (b *AnthropicRequestBuilder) setHeaders(req *http.Request) {
	req.Header.Set("x-api-key", b.apiKey)
	req.Header.Set("anthropic-version", AnthropicVersion)
}

func (b *AnthropicRequestBuilder) BuildTestRequest(ctx context.Context) (*http.Request, error) {
	body, err := json.Marshal(AnthropicRequest{
		Model:     b.model,
		MaxTokens: 1,
		Messages:  []ChatMessage{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint("/messages"), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	b.setHeaders(req)
	return req, nil
}

func (b *AnthropicRequestBuilder) BuildModelsRequest(ctx context.Context) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.endpoint("/models"), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	b.setHeaders(req)
	return req, nil
}

// OpenAIRequestBuilder builds requests for OpenAI compatible APIs
type OpenAIRequestBuilder struct {
	baseURL string
	apiKey  string
}

func (b *OpenAIRequestBuilder) BuildTestRequest(ctx context.Context) (*http.Request, error) {
	return b.BuildModelsRequest(ctx)
}

func (b *OpenAIRequestBuilder) BuildModelsRequest(ctx context.Context) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, utils.JoinURL(b.baseURL, "/models"), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+b.apiKey)
	return req, nil
}

// GoogleRequestBuilder builds requests for the Generative Language API
type GoogleRequestBuilder struct {
	baseURL string
	apiKey  string
}

func (b *GoogleRequestBuilder) BuildTestRequest(ctx context.Context) (*http.Request, error) {
	return b.BuildModelsRequest(ctx)
}

func (b *GoogleRequestBuilder) BuildModelsRequest(ctx context.Context) (*http.Request, error) {
	endpoint := utils.JoinURL(b.baseURL, "/v1beta/models") + "?" + url.Values{"key": {b.apiKey}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return req, nil
}

// NewRequestBuilder creates the builder for creds. An empty base URL falls
// back to the provider default.
func NewRequestBuilder(creds models.Credentials) (RequestBuilder, error) {
	provider, err := providers.Get(creds.Provider)
	if err != nil {
		return nil, err
	}

	baseURL := provider.NormalizeConfig(creds.BaseURL)

	switch {
	case creds.Provider == models.ProviderAnthropic:
		return &AnthropicRequestBuilder{
			baseURL: baseURL,
			apiKey:  creds.APIKey,
			model:   provider.DefaultModel(),
		}, nil
	case creds.Provider == models.ProviderGoogle:
		return &GoogleRequestBuilder{baseURL: baseURL, apiKey: creds.APIKey}, nil
	case creds.Provider.OpenAICompatible():
		return &OpenAIRequestBuilder{baseURL: baseURL, apiKey: creds.APIKey}, nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", creds.Provider)
	}
}
