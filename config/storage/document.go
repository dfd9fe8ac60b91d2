package storage

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// ErrInvalidDocument is returned for content that is not a JSON object
var ErrInvalidDocument = errors.New("document is not a valid JSON object")

// IsBlank reports whether data holds nothing but whitespace
func IsBlank(data []byte) bool {
	return len(bytes.TrimSpace(data)) == 0
}

// ValidateDocument checks that data is a well formed JSON object
func ValidateDocument(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("%w: malformed JSON", ErrInvalidDocument)
	}
	if !gjson.ParseBytes(data).IsObject() {
		return fmt.Errorf("%w: root is not an object", ErrInvalidDocument)
	}
	return nil
}

// MergeDocument sets the version and channels keys of original and leaves every
// other top-level key as it was. An empty or invalid original is replaced by a
// fresh document.
func MergeDocument(original []byte, version int, channels []byte) ([]byte, error) {
	if !gjson.ValidBytes(channels) || !gjson.ParseBytes(channels).IsArray() {
		return nil, errors.New("channels must be a JSON array")
	}

	doc := original
	if IsBlank(doc) || ValidateDocument(doc) != nil {
		doc = []byte("{}")
	}

	updated, err := sjson.SetBytes(doc, "version", version)
	if err != nil {
		return nil, fmt.Errorf("failed to update version field: %w", err)
	}

	updated, err = sjson.SetRawBytes(updated, "channels", channels)
	if err != nil {
		return nil, fmt.Errorf("failed to update channels field: %w", err)
	}

	if err := ValidateDocument(updated); err != nil {
		return nil, fmt.Errorf("update validation failed: %w", err)
	}

	return pretty.Pretty(updated), nil
}
