// Package shell renders channel credentials as shell environment statements
package shell

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"al.essio.dev/pkg/shellescape"

	"proma/config/models"
)

// Dialect is a shell syntax family
type Dialect string

const (
	Bash Dialect = "bash"
	Zsh  Dialect = "zsh"
	Fish Dialect = "fish"
)

// Dialects lists the supported shells
func Dialects() []Dialect {
	return []Dialect{Bash, Zsh, Fish}
}

// ParseDialect parses a shell name such as "zsh" or "/usr/bin/fish"
func ParseDialect(name string) (Dialect, error) {
	d := Dialect(strings.ToLower(filepath.Base(strings.TrimSpace(name))))
	for _, known := range Dialects() {
		if d == known {
			return d, nil
		}
	}
	return "", fmt.Errorf("unsupported shell %q (use bash, zsh or fish)", name)
}

// DetectDialect guesses the dialect from $SHELL, falling back to bash
func DetectDialect() Dialect {
	if d, err := ParseDialect(os.Getenv("SHELL")); err == nil {
		return d
	}
	return Bash
}

// Var is one environment variable
type Var struct {
	Name  string
	Value string
}

// envPrefixes maps a provider to the prefix its SDKs read
var envPrefixes = map[models.ProviderType]string{
	models.ProviderAnthropic: "ANTHROPIC",
	models.ProviderOpenAI:    "OPENAI",
	models.ProviderDeepSeek:  "DEEPSEEK",
	models.ProviderGoogle:    "GEMINI",
	models.ProviderCustom:    "OPENAI",
}

// Vars returns the API key and base URL variables for a provider. An empty
// base URL is omitted.
func Vars(provider models.ProviderType, baseURL, apiKey string) []Var {
	prefix, ok := envPrefixes[provider]
	if !ok {
		prefix = "OPENAI"
	}

	vars := []Var{{Name: prefix + "_API_KEY", Value: apiKey}}
	if baseURL != "" {
		vars = append(vars, Var{Name: prefix + "_BASE_URL", Value: baseURL})
	}
	return vars
}

const (
	posixTemplate = `# {{.Comment}}
{{range .Vars}}{{if $.Unset}}unset {{.Name}}{{else}}export {{.Name}}={{quote .Value}}{{end}}
{{end}}`

	fishTemplate = `# {{.Comment}}
{{range .Vars}}{{if $.Unset}}set -e {{.Name}}{{else}}set -gx {{.Name}} {{quote .Value}}{{end}};
{{end}}`
)

// Generator renders variables for one dialect
type Generator struct {
	Dialect Dialect
	tmpl    *template.Template
}

// NewGenerator creates a generator for d
func NewGenerator(d Dialect) (*Generator, error) {
	text := posixTemplate
	if d == Fish {
		text = fishTemplate
	}

	tmpl, err := template.New(string(d)).
		Funcs(template.FuncMap{"quote": shellescape.Quote}).
		Parse(text)
	if err != nil {
		return nil, err
	}

	return &Generator{Dialect: d, tmpl: tmpl}, nil
}

// Export renders statements that set vars
func (g *Generator) Export(comment string, vars []Var) (string, error) {
	return g.render(comment, vars, false)
}

// Unset renders statements that remove vars
func (g *Generator) Unset(comment string, vars []Var) (string, error) {
	return g.render(comment, vars, true)
}

func (g *Generator) render(comment string, vars []Var, unset bool) (string, error) {
	var buf bytes.Buffer
	err := g.tmpl.Execute(&buf, struct {
		Comment string
		Vars    []Var
		Unset   bool
	}{
		Comment: strings.ReplaceAll(comment, "\n", " "),
		Vars:    vars,
		Unset:   unset,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
