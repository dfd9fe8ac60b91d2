package probe

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"

	"proma/config/models"
)

// ErrUnexpectedFormat is returned when a model listing has no recognisable list
var ErrUnexpectedFormat = errors.New("unexpected response format")

// ParseModels extracts the models from a listing response. Every model is
// returned disabled, in API order, without duplicates.
func ParseModels(provider models.ProviderType, body []byte) ([]models.Model, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrUnexpectedFormat
	}
	root := gjson.ParseBytes(body)

	var list gjson.Result
	var idKey, nameKey string
	switch {
	case provider == models.ProviderGoogle:
		list, idKey, nameKey = root.Get("models"), "name", "displayName"
	case provider == models.ProviderAnthropic:
		list, idKey, nameKey = root.Get("data"), "id", "display_name"
	default:
		list, idKey, nameKey = root.Get("data"), "id", "name"
	}

	if !list.IsArray() {
		return nil, ErrUnexpectedFormat
	}

	seen := make(map[string]bool)
	result := make([]models.Model, 0, len(list.Array()))
	list.ForEach(func(_, item gjson.Result) bool {
		if provider == models.ProviderGoogle && !supportsGenerateContent(item) {
			return true
		}

		id := strings.TrimSpace(item.Get(idKey).String())
		if provider == models.ProviderGoogle {
			id = strings.TrimPrefix(id, "models/")
		}
		if id == "" || seen[id] {
			return true
		}
		seen[id] = true

		name := strings.TrimSpace(item.Get(nameKey).String())
		if name == "" {
			name = id
		}
		result = append(result, models.Model{ID: id, Name: name, Enabled: false})
		return true
	})

	return result, nil
}

// supportsGenerateContent drops embedding-only Gemini models. Entries without
// the field are kept.
func supportsGenerateContent(item gjson.Result) bool {
	methods := item.Get("supportedGenerationMethods")
	if !methods.Exists() {
		return true
	}
	for _, m := range methods.Array() {
		if m.String() == "generateContent" {
			return true
		}
	}
	return false
}
