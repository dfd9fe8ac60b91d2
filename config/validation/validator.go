package validation

import (
	"errors"
	"fmt"
	"strings"

	"proma/config/models"
	"proma/internal/providers"
)

// ErrInvalidInput wraps every validation failure
var ErrInvalidInput = errors.New("invalid input")

// Validator validates channel create and update inputs
type Validator struct {
	fields *InputValidator
}

// NewValidator creates a new Validator
func NewValidator() *Validator {
	return &Validator{fields: NewInputValidator()}
}

// ValidateCreate validates a new channel. BaseURL may be empty when the
// provider has a default endpoint.
func (v *Validator) ValidateCreate(input models.ChannelCreateInput) error {
	var problems []string

	if err := v.fields.ValidateName(input.Name); err != nil {
		problems = append(problems, err.Error())
	}

	if provider, err := providers.Get(input.Provider); err != nil {
		problems = append(problems, err.Error())
	} else if err := provider.ValidateConfig(input.BaseURL, input.APIKey); err != nil {
		problems = append(problems, err.Error())
	}

	if err := v.fields.ValidateAPIKey(input.APIKey); err != nil {
		problems = append(problems, err.Error())
	}

	problems = append(problems, v.modelProblems(input.Models)...)

	return joinProblems(problems)
}

// ValidateUpdate validates the fields present in a partial update
func (v *Validator) ValidateUpdate(input models.ChannelUpdateInput) error {
	var problems []string

	if input.Name != nil {
		if err := v.fields.ValidateName(*input.Name); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if input.Provider != nil && !input.Provider.Valid() {
		problems = append(problems, fmt.Sprintf("unknown provider: %s", *input.Provider))
	}
	if input.BaseURL != nil {
		if err := v.fields.ValidateURL(*input.BaseURL); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if input.APIKey != nil && *input.APIKey != "" {
		if err := v.fields.ValidateAPIKey(*input.APIKey); err != nil {
			problems = append(problems, err.Error())
		}
	}

	problems = append(problems, v.modelProblems(input.Models)...)

	return joinProblems(problems)
}

// ValidateCredentials validates the input of a direct probe
func (v *Validator) ValidateCredentials(creds models.Credentials) error {
	var problems []string

	provider, err := providers.Get(creds.Provider)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := provider.ValidateConfig(creds.BaseURL, creds.APIKey); err != nil {
		problems = append(problems, err.Error())
	}

	return joinProblems(problems)
}

func (v *Validator) modelProblems(list []models.Model) []string {
	var problems []string
	for _, m := range list {
		if err := v.fields.ValidateModelID(m.ID); err != nil {
			problems = append(problems, err.Error())
		}
	}
	return problems
}

func joinProblems(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(problems, "; "))
}
