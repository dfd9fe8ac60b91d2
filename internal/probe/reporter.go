package probe

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"proma/config/models"
)

// Exit code constants
const (
	ExitCodeSuccess = 0
	ExitCodeFailure = 1
	ExitCodeWarning = 2
)

// Reporter formats probe results for the terminal
type Reporter struct {
	jsonOutput bool
	verbose    bool
	writer     io.Writer
}

// ReporterOption is a functional option for configuring a Reporter
type ReporterOption func(*Reporter)

// WithJSONOutput enables JSON output format
func WithJSONOutput(jsonOutput bool) ReporterOption {
	return func(r *Reporter) {
		r.jsonOutput = jsonOutput
	}
}

// WithVerboseOutput adds failure kinds and status codes to text output
func WithVerboseOutput(verbose bool) ReporterOption {
	return func(r *Reporter) {
		r.verbose = verbose
	}
}

// NewReporter creates a new Reporter writing to writer
func NewReporter(writer io.Writer, opts ...ReporterOption) *Reporter {
	r := &Reporter{writer: writer}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// ReportTest prints a single probe result. label names what was tested.
func (r *Reporter) ReportTest(label string, result models.TestResult) error {
	if r.jsonOutput {
		return r.writeJSON(result)
	}

	var sb strings.Builder
	sb.WriteString(r.resultLine(label, result))
	_, err := io.WriteString(r.writer, sb.String())
	return err
}

// ReportModels prints a model listing
func (r *Reporter) ReportModels(result models.FetchModelsResult) error {
	if r.jsonOutput {
		return r.writeJSON(result)
	}

	var sb strings.Builder
	if !result.Success {
		sb.WriteString(fmt.Sprintf("❌ %s\n", result.Message))
		_, err := io.WriteString(r.writer, sb.String())
		return err
	}

	sb.WriteString(fmt.Sprintf("✅ %s\n", result.Message))
	for _, m := range result.Models {
		if m.Name != "" && m.Name != m.ID {
			sb.WriteString(fmt.Sprintf("  %s  (%s)\n", m.ID, m.Name))
		} else {
			sb.WriteString(fmt.Sprintf("  %s\n", m.ID))
		}
	}
	_, err := io.WriteString(r.writer, sb.String())
	return err
}

// ReportAll prints the results of a bulk test followed by a summary line
func (r *Reporter) ReportAll(reports []models.ChannelTestReport) error {
	if r.jsonOutput {
		if reports == nil {
			reports = []models.ChannelTestReport{}
		}
		return r.writeJSON(reports)
	}

	var sb strings.Builder
	if len(reports) == 0 {
		sb.WriteString("No enabled channels to test\n")
		_, err := io.WriteString(r.writer, sb.String())
		return err
	}

	passed := 0
	for _, report := range reports {
		if report.Result.Success {
			passed++
		}
		label := fmt.Sprintf("%s [%s]", report.Name, report.Provider)
		sb.WriteString(r.resultLine(label, report.Result))
	}
	sb.WriteString(fmt.Sprintf("\n%d/%d channels passed\n", passed, len(reports)))

	_, err := io.WriteString(r.writer, sb.String())
	return err
}

func (r *Reporter) resultLine(label string, result models.TestResult) string {
	emoji := "✅"
	if !result.Success {
		emoji = "❌"
	}

	line := fmt.Sprintf("%s %s: %s", emoji, label, result.Message)
	if result.LatencyMs > 0 {
		line += fmt.Sprintf(" (%dms)", result.LatencyMs)
	}
	if r.verbose {
		var details []string
		if result.Kind != "" {
			details = append(details, "kind="+string(result.Kind))
		}
		if result.StatusCode != 0 {
			details = append(details, fmt.Sprintf("status=%d", result.StatusCode))
		}
		if len(details) > 0 {
			line += " [" + strings.Join(details, " ") + "]"
		}
	}
	return line + "\n"
}

func (r *Reporter) writeJSON(output interface{}) error {
	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// ExitCodeFor maps bulk results to a process exit code: success when every
// channel passed, warning when some did, failure when none did.
func ExitCodeFor(reports []models.ChannelTestReport) int {
	if len(reports) == 0 {
		return ExitCodeSuccess
	}

	passed := 0
	for _, report := range reports {
		if report.Result.Success {
			passed++
		}
	}

	switch passed {
	case len(reports):
		return ExitCodeSuccess
	case 0:
		return ExitCodeFailure
	default:
		return ExitCodeWarning
	}
}
