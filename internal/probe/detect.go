package probe

import (
	"net/url"
	"strings"

	"proma/config/models"
)

// ProviderURLPatterns maps API hosts to providers for auto-detection
var ProviderURLPatterns = map[string]models.ProviderType{
	"api.anthropic.com":                 models.ProviderAnthropic,
	"api.openai.com":                    models.ProviderOpenAI,
	"api.deepseek.com":                  models.ProviderDeepSeek,
	"generativelanguage.googleapis.com": models.ProviderGoogle,
}

// DetectProviderFromURL guesses the provider from a base URL's host. Unknown
// hosts report false; callers usually fall back to custom.
func DetectProviderFromURL(baseURL string) (models.ProviderType, bool) {
	if baseURL == "" {
		return "", false
	}

	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Host == "" {
		parsed, err = url.Parse("https://" + baseURL)
		if err != nil {
			return "", false
		}
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return "", false
	}

	if provider, ok := ProviderURLPatterns[host]; ok {
		return provider, true
	}

	for pattern, provider := range ProviderURLPatterns {
		if strings.HasSuffix(host, "."+pattern) {
			return provider, true
		}
	}

	return "", false
}
