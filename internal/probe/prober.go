package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"proma/config/models"
	"proma/internal/providers"
	"proma/internal/utils"
)

// DefaultTimeout bounds a single probe request
const DefaultTimeout = 10 * time.Second

// maxBodySize caps how much of a response is read
const maxBodySize = 4 << 20

// Prober sends one request per call and never retries
type Prober struct {
	client    *http.Client
	timeout   time.Duration
	logger    *slog.Logger
	userAgent string
}

// Option is a functional option for configuring a Prober
type Option func(*Prober)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(p *Prober) {
		p.client = client
	}
}

// WithTimeout sets the per-request deadline; non-positive values are ignored
func WithTimeout(timeout time.Duration) Option {
	return func(p *Prober) {
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

// WithLogger sets the logger used for request diagnostics
func WithLogger(logger *slog.Logger) Option {
	return func(p *Prober) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithUserAgent sets the User-Agent header of probe requests
func WithUserAgent(ua string) Option {
	return func(p *Prober) {
		p.userAgent = ua
	}
}

// NewProber creates a Prober with a 10 second timeout
func NewProber(opts ...Option) *Prober {
	p := &Prober{
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				MaxIdleConns:          10,
				IdleConnTimeout:       30 * time.Second,
				TLSHandshakeTimeout:   5 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		timeout:   DefaultTimeout,
		logger:    slog.Default(),
		userAgent: "proma",
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Timeout returns the per-request deadline
func (p *Prober) Timeout() time.Duration {
	return p.timeout
}

type response struct {
	status  int
	body    []byte
	latency time.Duration
}

// inputFailure validates creds before any request is made
func inputFailure(creds models.Credentials) *models.TestResult {
	provider, err := providers.Get(creds.Provider)
	if err != nil {
		return &models.TestResult{Kind: models.FailureUnsupportedProvider, Message: err.Error()}
	}
	if err := provider.ValidateConfig(creds.BaseURL, creds.APIKey); err != nil {
		return &models.TestResult{Kind: models.FailureInvalidInput, Message: err.Error()}
	}
	return nil
}

func (p *Prober) do(ctx context.Context, build func(context.Context) (*http.Request, error)) (*response, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := build(ctx)
	if err != nil {
		return nil, err
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	p.logger.Debug("probe response",
		"method", req.Method,
		"host", req.URL.Host,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"latency", time.Since(start))

	return &response{status: resp.StatusCode, body: body, latency: time.Since(start)}, nil
}

// Test checks connectivity and credential validity for creds
func (p *Prober) Test(ctx context.Context, creds models.Credentials) models.TestResult {
	if failure := inputFailure(creds); failure != nil {
		return *failure
	}

	builder, err := NewRequestBuilder(creds)
	if err != nil {
		return models.TestResult{Kind: models.FailureUnsupportedProvider, Message: err.Error()}
	}

	resp, err := p.do(ctx, builder.BuildTestRequest)
	if err != nil {
		p.logger.Debug("probe failed", "provider", creds.Provider, "error", err)
		return NetworkFailure(err, p.timeout)
	}

	result := ClassifyTestStatus(creds.Provider, resp.status, resp.body)
	result.LatencyMs = resp.latency.Milliseconds()
	return result
}

// FetchModels lists the models creds can access
func (p *Prober) FetchModels(ctx context.Context, creds models.Credentials) models.FetchModelsResult {
	if failure := inputFailure(creds); failure != nil {
		return models.FetchModelsResult{Models: []models.Model{}, Message: failure.Message}
	}

	builder, err := NewRequestBuilder(creds)
	if err != nil {
		return models.FetchModelsResult{Models: []models.Model{}, Message: err.Error()}
	}

	resp, err := p.do(ctx, builder.BuildModelsRequest)
	if err != nil {
		_, desc := ClassifyNetworkError(err, p.timeout)
		return models.FetchModelsResult{Models: []models.Model{}, Message: "failed to fetch models: " + desc}
	}

	switch {
	case isCredentialRejected(creds.Provider, resp.status):
		return models.FetchModelsResult{Models: []models.Model{}, Message: "invalid API key"}
	case !isSuccess(resp.status):
		return models.FetchModelsResult{Models: []models.Model{}, Message: requestFailedMessage(resp.status, resp.body)}
	}

	list, err := ParseModels(creds.Provider, resp.body)
	if err != nil {
		msg := err.Error()
		if errors.Is(err, ErrUnexpectedFormat) {
			msg = fmt.Sprintf("%s: %s", msg, utils.Excerpt(string(resp.body), BodyExcerptLength))
		}
		return models.FetchModelsResult{Models: []models.Model{}, Message: msg}
	}

	return models.FetchModelsResult{
		Success: true,
		Models:  list,
		Message: fmt.Sprintf("fetched %d models", len(list)),
	}
}
