package tui

import (
	"strings"
	"testing"

	"proma/config/models"
)

func TestFormDataValidate(t *testing.T) {
	tests := []struct {
		name    string
		data    FormData
		editing bool
		wantErr string
	}{
		{
			name: "valid with default url",
			data: FormData{Name: "work", Provider: "anthropic", APIKey: "sk-ant"},
		},
		{
			name: "provider is case insensitive",
			data: FormData{Name: "work", Provider: " OpenAI ", APIKey: "sk"},
		},
		{
			name: "custom with url",
			data: FormData{Name: "local", Provider: "custom", BaseURL: "http://localhost:8080/v1", APIKey: "sk"},
		},
		{
			name:    "empty name",
			data:    FormData{Name: "   ", Provider: "openai", APIKey: "sk"},
			wantErr: "name cannot be empty",
		},
		{
			name:    "unknown provider",
			data:    FormData{Name: "x", Provider: "mistral", APIKey: "sk"},
			wantErr: "provider must be one of",
		},
		{
			name:    "invalid url",
			data:    FormData{Name: "x", Provider: "openai", BaseURL: "not a url", APIKey: "sk"},
			wantErr: "invalid URL format",
		},
		{
			name:    "custom without url",
			data:    FormData{Name: "x", Provider: "custom", APIKey: "sk"},
			wantErr: "custom providers need a base URL",
		},
		{
			name:    "missing key on add",
			data:    FormData{Name: "x", Provider: "openai"},
			wantErr: "API key cannot be empty",
		},
		{
			name:    "missing key on edit",
			data:    FormData{Name: "x", Provider: "openai"},
			editing: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.data.Validate(tt.editing)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestFormDataParseModels(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", []string{}},
		{"   ", []string{}},
		{"gpt-4o", []string{"gpt-4o"}},
		{"gpt-4o, o3 ,,o4-mini", []string{"gpt-4o", "o3", "o4-mini"}},
	}

	for _, tt := range tests {
		f := FormData{Models: tt.input}
		got := f.ParseModels()
		if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
			t.Errorf("ParseModels(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestFormDataCreateInput(t *testing.T) {
	f := FormData{
		Name:     "  work ",
		Provider: "OpenAI",
		BaseURL:  " https://api.openai.com/v1 ",
		APIKey:   " sk-test ",
		Models:   "gpt-4o, o3",
	}

	input := f.CreateInput()

	if input.Name != "work" || input.Provider != models.ProviderOpenAI || input.BaseURL != "https://api.openai.com/v1" || input.APIKey != "sk-test" {
		t.Errorf("CreateInput() = %+v", input)
	}
	if !input.Enabled {
		t.Error("new channels should be enabled")
	}
	if len(input.Models) != 2 {
		t.Fatalf("models = %v", input.Models)
	}
	for _, m := range input.Models {
		if !m.Enabled || m.Name != m.ID {
			t.Errorf("model %+v", m)
		}
	}
}

func TestFormDataUpdateInput(t *testing.T) {
	ch := models.Channel{
		ID:       "a",
		Name:     "work",
		Provider: models.ProviderOpenAI,
		Models: []models.Model{
			{ID: "gpt-4o", Name: "GPT-4o", Enabled: true},
			{ID: "o3", Name: "o3", Enabled: true},
			{ID: "o4-mini", Name: "o4-mini", Enabled: false},
		},
	}

	f := FormData{Name: "renamed", Provider: "openai", Models: "gpt-4o, o4-mini, gpt-5"}
	input := f.UpdateInput(ch)

	if input.Name == nil || *input.Name != "renamed" {
		t.Errorf("name = %v", input.Name)
	}
	if input.APIKey == nil || *input.APIKey != "" {
		t.Error("empty key field should be sent as empty to keep the stored key")
	}
	if input.Enabled != nil {
		t.Error("form should not touch the enabled flag")
	}

	want := []struct {
		id      string
		enabled bool
	}{
		{"gpt-4o", true},
		{"o3", false},
		{"o4-mini", true},
		{"gpt-5", true},
	}
	if len(input.Models) != len(want) {
		t.Fatalf("models = %v", input.Models)
	}
	for i, w := range want {
		if input.Models[i].ID != w.id || input.Models[i].Enabled != w.enabled {
			t.Errorf("models[%d] = %+v, want %s enabled=%v", i, input.Models[i], w.id, w.enabled)
		}
	}
	if input.Models[0].Name != "GPT-4o" {
		t.Error("existing model names should be kept")
	}
}

func TestChannelFormDataRoundTrip(t *testing.T) {
	ch := models.Channel{
		Name:     "work",
		Provider: models.ProviderAnthropic,
		BaseURL:  "https://api.anthropic.com",
		APIKey:   "ENC:secret",
		Models: []models.Model{
			{ID: "claude-sonnet-4-5", Enabled: true},
			{ID: "claude-haiku-4-5", Enabled: false},
			{ID: "claude-opus-4", Enabled: true},
		},
	}

	data := ChannelFormData(ch)
	if data.APIKey != "" {
		t.Error("stored key must not be copied into the form")
	}
	if data.Models != "claude-sonnet-4-5, claude-opus-4" {
		t.Errorf("models = %q", data.Models)
	}

	inputs := FormInputs()
	SetFormData(inputs, data)
	if got := GetFormData(inputs); got != data {
		t.Errorf("GetFormData() = %+v, want %+v", got, data)
	}
}

func TestFormInputs(t *testing.T) {
	inputs := FormInputs()

	if len(inputs) != FormFieldCount {
		t.Fatalf("len = %d, want %d", len(inputs), FormFieldCount)
	}
	if len(FormLabels()) != FormFieldCount {
		t.Error("every field needs a label")
	}
	if !inputs[FormFieldName].Focused() {
		t.Error("name field should start focused")
	}
	for i := 1; i < FormFieldCount; i++ {
		if inputs[i].Focused() {
			t.Errorf("field %d should start blurred", i)
		}
	}
}

func TestFormFieldNavigation(t *testing.T) {
	inputs := FormInputs()

	focus := FormFieldName
	for i := 0; i < FormFieldCount; i++ {
		focus = NextFormField(inputs, focus)
	}
	if focus != FormFieldName {
		t.Errorf("focus after a full cycle = %d", focus)
	}

	focus = PrevFormField(inputs, focus)
	if focus != FormFieldModels {
		t.Errorf("PrevFormField from first = %d, want %d", focus, FormFieldModels)
	}

	focused := 0
	for _, in := range inputs {
		if in.Focused() {
			focused++
		}
	}
	if focused != 1 {
		t.Errorf("%d fields focused, want 1", focused)
	}
}

func TestRenderForm(t *testing.T) {
	inputs := FormInputs()
	SetFormData(inputs, FormData{Name: "work", Provider: "deepseek", APIKey: "sk-hidden"})

	out := RenderForm(inputs, FormFieldBaseURL, "Add channel", "invalid URL format", false)

	for _, want := range []string{"Add channel", "Name:", "Models:", "default: https://api.deepseek.com", "invalid URL format"} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderForm() missing %q", want)
		}
	}
	if strings.Contains(out, "sk-hidden") {
		t.Error("API key must be masked")
	}

	edit := RenderForm(inputs, FormFieldAPIKey, "Edit channel", "", true)
	if !strings.Contains(edit, "leave empty to keep the current key") {
		t.Error("edit form should explain the empty key field")
	}
}
