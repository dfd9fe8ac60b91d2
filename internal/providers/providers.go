package providers

import (
	"fmt"
	"sort"

	"proma/config/models"
	"proma/internal/utils"
)

// Provider defines the standard interface for API providers
type Provider interface {
	// Name returns the provider's identifier as stored in channels.json
	Name() models.ProviderType
	// Label returns a human readable name for menus and tables
	Label() string
	// DefaultBaseURL returns the base URL prefilled for new channels
	DefaultBaseURL() string
	// DefaultModel returns the model used by the connectivity probe
	DefaultModel() string
	// ValidateConfig checks that a credential set is usable for this provider
	ValidateConfig(baseURL, apiKey string) error
	// NormalizeConfig normalizes the base URL (trailing slashes removed)
	NormalizeConfig(baseURL string) string
}

var registry = make(map[models.ProviderType]Provider)

// Register registers a provider, replacing any previous one with the same name
func Register(provider Provider) {
	registry[provider.Name()] = provider
}

// Get returns a provider by name
func Get(name models.ProviderType) (Provider, error) {
	provider, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", name)
	}
	return provider, nil
}

// List returns all registered providers, known ones first in display order
func List() []Provider {
	order := make(map[models.ProviderType]int, len(models.ProviderTypes))
	for i, p := range models.ProviderTypes {
		order[p] = i
	}

	list := make([]Provider, 0, len(registry))
	for _, p := range registry {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool {
		oi, iKnown := order[list[i].Name()]
		oj, jKnown := order[list[j].Name()]
		switch {
		case iKnown && jKnown:
			return oi < oj
		case iKnown != jKnown:
			return iKnown
		default:
			return list[i].Name() < list[j].Name()
		}
	})
	return list
}

// DefaultBaseURL returns the default base URL for name, or "" if unknown
func DefaultBaseURL(name models.ProviderType) string {
	p, err := Get(name)
	if err != nil {
		return ""
	}
	return p.DefaultBaseURL()
}

// builtin implements Provider for the providers shipped with proma
type builtin struct {
	name         models.ProviderType
	label        string
	baseURL      string
	defaultModel string
	requireURL   bool
}

func (p *builtin) Name() models.ProviderType { return p.name }

func (p *builtin) Label() string { return p.label }

func (p *builtin) DefaultBaseURL() string { return p.baseURL }

func (p *builtin) DefaultModel() string { return p.defaultModel }

func (p *builtin) ValidateConfig(baseURL, apiKey string) error {
	if apiKey == "" {
		return fmt.Errorf("%s: must provide API key", p.name)
	}
	if baseURL == "" && p.requireURL {
		return fmt.Errorf("%s: must provide base URL", p.name)
	}
	if baseURL != "" && !utils.ValidateURL(baseURL) {
		return fmt.Errorf("%s: invalid base URL %q", p.name, baseURL)
	}
	return nil
}

func (p *builtin) NormalizeConfig(baseURL string) string {
	if baseURL == "" {
		return p.baseURL
	}
	return utils.TrimTrailingSlash(baseURL)
}

// Anthropic returns the Anthropic Messages API provider
func Anthropic() Provider {
	return &builtin{
		name:         models.ProviderAnthropic,
		label:        "Anthropic",
		baseURL:      "https://api.anthropic.com",
		defaultModel: "claude-sonnet-4-5-20250514",
	}
}

// OpenAI returns the OpenAI provider
func OpenAI() Provider {
	return &builtin{
		name:         models.ProviderOpenAI,
		label:        "OpenAI",
		baseURL:      "https://api.openai.com/v1",
		defaultModel: "gpt-4o-mini",
	}
}

// DeepSeek returns the DeepSeek provider, which is OpenAI compatible
func DeepSeek() Provider {
	return &builtin{
		name:         models.ProviderDeepSeek,
		label:        "DeepSeek",
		baseURL:      "https://api.deepseek.com",
		defaultModel: "deepseek-chat",
	}
}

// Google returns the Google Generative Language provider
func Google() Provider {
	return &builtin{
		name:         models.ProviderGoogle,
		label:        "Google",
		baseURL:      "https://generativelanguage.googleapis.com",
		defaultModel: "gemini-2.0-flash",
	}
}

// Custom returns the provider for arbitrary OpenAI compatible endpoints
func Custom() Provider {
	return &builtin{
		name:       models.ProviderCustom,
		label:      "Custom (OpenAI compatible)",
		requireURL: true,
	}
}

func init() {
	Register(Anthropic())
	Register(OpenAI())
	Register(DeepSeek())
	Register(Google())
	Register(Custom())
}
