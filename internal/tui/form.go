package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"proma/config/models"
	"proma/internal/providers"
	"proma/internal/utils"
)

// FormField represents the index of each form field
const (
	FormFieldName = iota
	FormFieldProvider
	FormFieldBaseURL
	FormFieldAPIKey
	FormFieldModels
	FormFieldCount // Total number of fields
)

// FormData represents the data collected from the form
type FormData struct {
	Name     string
	Provider string
	BaseURL  string
	APIKey   string
	Models   string // Comma-separated enabled model ids
}

// Validate validates the form data. The API key may be empty when editing.
func (f *FormData) Validate(editing bool) error {
	if strings.TrimSpace(f.Name) == "" {
		return errors.New("name cannot be empty")
	}

	provider := models.ProviderType(strings.ToLower(strings.TrimSpace(f.Provider)))
	if !provider.Valid() {
		return errors.New("provider must be one of anthropic, openai, deepseek, google, custom")
	}

	baseURL := strings.TrimSpace(f.BaseURL)
	if baseURL != "" && !utils.ValidateURL(baseURL) {
		return errors.New("invalid URL format")
	}
	if baseURL == "" && provider == models.ProviderCustom {
		return errors.New("custom providers need a base URL")
	}

	if !editing && strings.TrimSpace(f.APIKey) == "" {
		return errors.New("API key cannot be empty")
	}

	return nil
}

// ProviderType returns the normalized provider
func (f *FormData) ProviderType() models.ProviderType {
	return models.ProviderType(strings.ToLower(strings.TrimSpace(f.Provider)))
}

// ParseModels parses the comma-separated models string into a slice
func (f *FormData) ParseModels() []string {
	if strings.TrimSpace(f.Models) == "" {
		return []string{}
	}

	parts := strings.Split(f.Models, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	return ids
}

// CreateInput converts the form into a new enabled channel
func (f *FormData) CreateInput() models.ChannelCreateInput {
	var list []models.Model
	for _, id := range f.ParseModels() {
		list = append(list, models.Model{ID: id, Name: id, Enabled: true})
	}

	return models.ChannelCreateInput{
		Name:     strings.TrimSpace(f.Name),
		Provider: f.ProviderType(),
		BaseURL:  strings.TrimSpace(f.BaseURL),
		APIKey:   strings.TrimSpace(f.APIKey),
		Models:   list,
		Enabled:  true,
	}
}

// UpdateInput converts the form into a partial update of ch. Models listed in
// the form are enabled, the channel's other models are kept but disabled and
// new ids are appended.
func (f *FormData) UpdateInput(ch models.Channel) models.ChannelUpdateInput {
	name := strings.TrimSpace(f.Name)
	provider := f.ProviderType()
	baseURL := strings.TrimSpace(f.BaseURL)
	apiKey := strings.TrimSpace(f.APIKey)

	enabled := make(map[string]bool)
	for _, id := range f.ParseModels() {
		enabled[id] = true
	}

	list := make([]models.Model, 0, len(ch.Models)+len(enabled))
	known := make(map[string]bool)
	for _, m := range ch.Models {
		known[m.ID] = true
		m.Enabled = enabled[m.ID]
		list = append(list, m)
	}
	for _, id := range f.ParseModels() {
		if !known[id] {
			known[id] = true
			list = append(list, models.Model{ID: id, Name: id, Enabled: true})
		}
	}

	return models.ChannelUpdateInput{
		Name:     &name,
		Provider: &provider,
		BaseURL:  &baseURL,
		APIKey:   &apiKey,
		Models:   list,
	}
}

// ChannelFormData builds form data from a stored channel. The API key is left
// empty so that saving without typing one keeps the stored key.
func ChannelFormData(ch models.Channel) FormData {
	var ids []string
	for _, m := range ch.Models {
		if m.Enabled {
			ids = append(ids, m.ID)
		}
	}

	return FormData{
		Name:     ch.Name,
		Provider: string(ch.Provider),
		BaseURL:  ch.BaseURL,
		Models:   strings.Join(ids, ", "),
	}
}

// Form styles
var (
	formLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(14)

	formFocusedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("205")).
				Bold(true).
				Width(14)

	formErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	formHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true)
)

// FormInputs creates and initializes form input fields
func FormInputs() []textinput.Model {
	inputs := make([]textinput.Model, FormFieldCount)

	inputs[FormFieldName] = textinput.New()
	inputs[FormFieldName].Placeholder = "work"
	inputs[FormFieldName].CharLimit = 100

	inputs[FormFieldProvider] = textinput.New()
	inputs[FormFieldProvider].Placeholder = "anthropic"
	inputs[FormFieldProvider].CharLimit = 16

	inputs[FormFieldBaseURL] = textinput.New()
	inputs[FormFieldBaseURL].Placeholder = "provider default"
	inputs[FormFieldBaseURL].CharLimit = 256

	inputs[FormFieldAPIKey] = textinput.New()
	inputs[FormFieldAPIKey].Placeholder = "sk-..."
	inputs[FormFieldAPIKey].CharLimit = 512
	inputs[FormFieldAPIKey].EchoMode = textinput.EchoPassword
	inputs[FormFieldAPIKey].EchoCharacter = '•'

	inputs[FormFieldModels] = textinput.New()
	inputs[FormFieldModels].Placeholder = "model1, model2"
	inputs[FormFieldModels].CharLimit = 1024

	for i := range inputs {
		inputs[i].Width = 44
		inputs[i].Prompt = ""
	}

	inputs[FormFieldName].Focus()

	return inputs
}

// GetFormData extracts FormData from form inputs
func GetFormData(inputs []textinput.Model) FormData {
	return FormData{
		Name:     inputs[FormFieldName].Value(),
		Provider: inputs[FormFieldProvider].Value(),
		BaseURL:  inputs[FormFieldBaseURL].Value(),
		APIKey:   inputs[FormFieldAPIKey].Value(),
		Models:   inputs[FormFieldModels].Value(),
	}
}

// SetFormData populates form inputs with existing data
func SetFormData(inputs []textinput.Model, data FormData) {
	inputs[FormFieldName].SetValue(data.Name)
	inputs[FormFieldProvider].SetValue(data.Provider)
	inputs[FormFieldBaseURL].SetValue(data.BaseURL)
	inputs[FormFieldAPIKey].SetValue(data.APIKey)
	inputs[FormFieldModels].SetValue(data.Models)
}

// FormLabels returns the labels for each form field
func FormLabels() []string {
	return []string{
		"Name:",
		"Provider:",
		"Base URL:",
		"API Key:",
		"Models:",
	}
}

// formHints returns the hint text for each form field
func formHints(editing bool, provider string) []string {
	urlHint := "leave empty for the provider default"
	if def := providers.DefaultBaseURL(models.ProviderType(strings.ToLower(provider))); def != "" {
		urlHint = "default: " + def
	}

	keyHint := "stored encrypted"
	if editing {
		keyHint = "leave empty to keep the current key"
	}

	return []string{
		"a label for this channel",
		"anthropic, openai, deepseek, google or custom",
		urlHint,
		keyHint,
		"enabled model ids, comma separated (optional)",
	}
}

// RenderForm renders the form view with inputs
func RenderForm(inputs []textinput.Model, focusIndex int, title string, errorMsg string, editing bool) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(separatorStyle.Render(strings.Repeat("─", 60)))
	b.WriteString("\n\n")

	labels := FormLabels()
	hints := formHints(editing, inputs[FormFieldProvider].Value())

	for i, input := range inputs {
		if i == focusIndex {
			b.WriteString(formFocusedStyle.Render(labels[i]))
		} else {
			b.WriteString(formLabelStyle.Render(labels[i]))
		}
		b.WriteString(" ")
		b.WriteString(input.View())
		b.WriteString("\n")

		if i == focusIndex {
			b.WriteString(formLabelStyle.Render(""))
			b.WriteString(" ")
			b.WriteString(formHintStyle.Render(hints[i]))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if errorMsg != "" {
		b.WriteString(formErrorStyle.Render("✗ " + errorMsg))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(separatorStyle.Render(strings.Repeat("─", 60)))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("tab/↓: next │ shift+tab/↑: previous │ enter: save │ esc: cancel"))

	return b.String()
}

// NextFormField moves focus to the next form field
func NextFormField(inputs []textinput.Model, currentFocus int) int {
	inputs[currentFocus].Blur()
	nextFocus := (currentFocus + 1) % len(inputs)
	inputs[nextFocus].Focus()
	return nextFocus
}

// PrevFormField moves focus to the previous form field
func PrevFormField(inputs []textinput.Model, currentFocus int) int {
	inputs[currentFocus].Blur()
	prevFocus := currentFocus - 1
	if prevFocus < 0 {
		prevFocus = len(inputs) - 1
	}
	inputs[prevFocus].Focus()
	return prevFocus
}
