package validation

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"proma/internal/utils"
)

// MaxNameLength bounds channel display names
const MaxNameLength = 100

// InputValidator validates individual user supplied fields
type InputValidator struct {
}

// NewInputValidator creates a new InputValidator
func NewInputValidator() *InputValidator {
	return &InputValidator{}
}

// ValidateName checks a channel display name
func (iv *InputValidator) ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return fmt.Errorf("name is too long (max %d characters)", MaxNameLength)
	}
	if strings.IndexFunc(name, unicode.IsControl) >= 0 {
		return fmt.Errorf("name contains control characters")
	}
	return nil
}

// ValidateURL checks if a URL is valid; empty is accepted
func (iv *InputValidator) ValidateURL(url string) error {
	if url != "" && !utils.ValidateURL(url) {
		return fmt.Errorf("invalid URL format: %s", url)
	}
	return nil
}

// ValidateAPIKey rejects keys that cannot be sent in an HTTP header
func (iv *InputValidator) ValidateAPIKey(key string) error {
	if key == "" {
		return fmt.Errorf("API key cannot be empty")
	}
	if strings.IndexFunc(key, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) >= 0 {
		return fmt.Errorf("API key contains whitespace or control characters")
	}
	return nil
}

// ValidateModelID checks a model identifier. Slashes are allowed because
// providers use them ("models/gemini-pro", "meta-llama/llama-3").
func (iv *InputValidator) ValidateModelID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("model id cannot be empty")
	}
	if strings.IndexFunc(id, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) >= 0 {
		return fmt.Errorf("model id %q contains whitespace", id)
	}
	return nil
}
