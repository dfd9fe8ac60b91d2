package utils

import (
	"net/url"
	"regexp"
	"strings"
)

var versionSuffix = regexp.MustCompile(`/v\d+$`)

// ValidateURL validates that a URL has a valid scheme and host
func ValidateURL(rawURL string) bool {
	if rawURL == "" {
		return false
	}

	parsed, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return false
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}

	return parsed.Host != ""
}

// TrimTrailingSlash strips every trailing slash from a base URL
func TrimTrailingSlash(rawURL string) string {
	return strings.TrimRight(rawURL, "/")
}

// JoinURL appends path to base with exactly one slash between them
func JoinURL(base, path string) string {
	base = TrimTrailingSlash(base)
	if path == "" {
		return base
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}

// HasVersionSuffix reports whether a base URL already ends in a /vN segment
func HasVersionSuffix(rawURL string) bool {
	return versionSuffix.MatchString(TrimTrailingSlash(rawURL))
}

// ExtractHost extracts the host from a URL
func ExtractHost(rawURL string) string {
	parsed, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Host
}
