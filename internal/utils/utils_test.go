package utils

import (
	"strings"
	"testing"
)

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		expected string
	}{
		{name: "Empty key", key: "", expected: "****"},
		{name: "Short key (8 chars)", key: "12345678", expected: "****"},
		{name: "Normal key (12 chars)", key: "123456789012", expected: "1234****9012"},
		{name: "Anthropic style key", key: "sk-ant-REDACTED", expected: "sk-a****mnop"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaskAPIKey(tt.key); got != tt.expected {
				t.Errorf("MaskAPIKey(%q) = %q, want %q", tt.key, got, tt.expected)
			}
		})
	}

	t.Run("Masked key hides the middle", func(t *testing.T) {
		masked := MaskAPIKey("sk-supersecretkey123")
		if strings.Contains(masked, "supersecret") {
			t.Errorf("Masked key contains sensitive middle part: %q", masked)
		}
	})
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected bool
	}{
		{"Valid HTTPS URL", "https://api.example.com", true},
		{"Valid HTTP URL with port", "http://localhost:8080", true},
		{"Valid URL with path", "https://api.openai.com/v1", true},
		{"Empty string", "", false},
		{"No scheme", "api.example.com", false},
		{"No host", "https://", false},
		{"Invalid scheme", "ftp://files.example.com", false},
		{"Malformed URL", "not a url at all", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateURL(tt.url); got != tt.expected {
				t.Errorf("ValidateURL(%q) = %v, want %v", tt.url, got, tt.expected)
			}
		})
	}
}

func TestJoinURL(t *testing.T) {
	tests := []struct {
		base, path, expected string
	}{
		{"https://api.openai.com/v1", "/models", "https://api.openai.com/v1/models"},
		{"https://api.openai.com/v1/", "/models", "https://api.openai.com/v1/models"},
		{"https://api.openai.com/v1//", "models", "https://api.openai.com/v1/models"},
		{"https://api.anthropic.com", "", "https://api.anthropic.com"},
	}

	for _, tt := range tests {
		if got := JoinURL(tt.base, tt.path); got != tt.expected {
			t.Errorf("JoinURL(%q, %q) = %q, want %q", tt.base, tt.path, got, tt.expected)
		}
	}
}

func TestHasVersionSuffix(t *testing.T) {
	tests := map[string]bool{
		"https://api.anthropic.com":         false,
		"https://api.anthropic.com/v1":      true,
		"https://api.anthropic.com/v1/":     true,
		"https://proxy.example.com/api/v2":  true,
		"https://proxy.example.com/v1beta":  false,
		"https://proxy.example.com/version": false,
	}

	for url, expected := range tests {
		if got := HasVersionSuffix(url); got != expected {
			t.Errorf("HasVersionSuffix(%q) = %v, want %v", url, got, expected)
		}
	}
}

func TestExcerpt(t *testing.T) {
	if got := Excerpt("hello", 10); got != "hello" {
		t.Errorf("Excerpt short string = %q", got)
	}
	if got := Excerpt("hello world", 5); got != "hello" {
		t.Errorf("Excerpt truncated = %q", got)
	}
	if got := Excerpt("你好世界", 2); got != "你好" {
		t.Errorf("Excerpt should count runes, got %q", got)
	}
	if got := Excerpt("abc", 0); got != "" {
		t.Errorf("Excerpt with n=0 = %q", got)
	}
}

func BenchmarkMaskAPIKey(b *testing.B) {
	key := "sk-proj-verylongfakekeywithmanycharacters123456789"
	for i := 0; i < b.N; i++ {
		_ = MaskAPIKey(key)
	}
}
