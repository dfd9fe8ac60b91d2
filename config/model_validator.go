package config

import (
	"fmt"
	"strings"

	"proma/config/models"
)

// ModelValidator normalizes and merges channel model lists
type ModelValidator struct{}

// NewModelValidator creates a new ModelValidator instance
func NewModelValidator() *ModelValidator {
	return &ModelValidator{}
}

// NormalizeModels trims ids, drops empty ones and duplicates (first wins) and
// fills a missing name with the id. It never returns nil.
func (v *ModelValidator) NormalizeModels(list []models.Model) []models.Model {
	seen := make(map[string]bool)
	result := make([]models.Model, 0, len(list))

	for _, m := range list {
		id := strings.TrimSpace(m.ID)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		name := strings.TrimSpace(m.Name)
		if name == "" {
			name = id
		}
		result = append(result, models.Model{ID: id, Name: name, Enabled: m.Enabled})
	}

	return result
}

// MergeModels keeps every existing model with its enabled flag and appends
// fetched models that are new, disabled.
func (v *ModelValidator) MergeModels(existing, fetched []models.Model) []models.Model {
	result := v.NormalizeModels(existing)

	known := make(map[string]bool, len(result))
	for _, m := range result {
		known[m.ID] = true
	}

	for _, m := range v.NormalizeModels(fetched) {
		if known[m.ID] {
			continue
		}
		known[m.ID] = true
		m.Enabled = false
		result = append(result, m)
	}

	return result
}

// SetEnabled flips the enabled flag of the named models. Unknown ids are an error.
func (v *ModelValidator) SetEnabled(list []models.Model, ids []string, enabled bool) ([]models.Model, error) {
	result := v.NormalizeModels(list)

	index := make(map[string]int, len(result))
	for i, m := range result {
		index[m.ID] = i
	}

	for _, id := range ids {
		i, ok := index[strings.TrimSpace(id)]
		if !ok {
			return nil, fmt.Errorf("model '%s' is not in the channel's model list", id)
		}
		result[i].Enabled = enabled
	}

	return result, nil
}

// EnabledModels returns the enabled subset in order
func (v *ModelValidator) EnabledModels(list []models.Model) []models.Model {
	result := make([]models.Model, 0, len(list))
	for _, m := range list {
		if m.Enabled {
			result = append(result, m)
		}
	}
	return result
}
