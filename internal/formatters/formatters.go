package formatters

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"atsresume/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "ResultView", &ResultTextFormatter{})
	registry.RegisterFormatter("markdown", "ResultView", &ResultMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats, sorted
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.ResultView, *types.ResultView:
		return "ResultView"
	default:
		return "any"
	}
}

func asResultView(data any) (types.ResultView, error) {
	switch v := data.(type) {
	case types.ResultView:
		return v, nil
	case *types.ResultView:
		if v != nil {
			return *v, nil
		}
	}
	return types.ResultView{}, fmt.Errorf("expected ResultView, got %T", data)
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData) + "\n", nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// ResultTextFormatter renders a result for a terminal
type ResultTextFormatter struct{}

func (rtf *ResultTextFormatter) Format(data any) (string, error) {
	view, err := asResultView(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder

	output.WriteString("=== ATS COMPATIBILITY ===\n")
	if view.OriginalFileName != "" {
		output.WriteString(fmt.Sprintf("Based on: %s\n", view.OriginalFileName))
	}
	output.WriteString(fmt.Sprintf("Score: %d/100 (%s)\n", view.ATSScore, view.Tier))
	output.WriteString(view.TierMessage)
	output.WriteString("\n\n")

	if len(view.Sections) == 0 {
		output.WriteString("No resume content was returned.\n")
	}

	for _, section := range view.Sections {
		output.WriteString(fmt.Sprintf("=== %s ===\n", strings.ToUpper(section.Title)))
		switch {
		case len(section.Entries) > 0:
			for _, entry := range section.Entries {
				if entry.IsText() {
					output.WriteString(fmt.Sprintf("- %s\n", entry.Text))
					continue
				}
				writeTextEntry(&output, entry)
			}
		case len(section.Pairs) > 0:
			for _, pair := range section.Pairs {
				output.WriteString(fmt.Sprintf("%s: %s\n", pair.Key, pair.Value))
			}
		default:
			output.WriteString(section.Text)
			output.WriteString("\n")
		}
		output.WriteString("\n")
	}

	if view.PDFPath != "" {
		output.WriteString(fmt.Sprintf("PDF: %s\n", view.PDFPath))
	}

	return output.String(), nil
}

func writeTextEntry(output *strings.Builder, entry types.EntryView) {
	prefix := "- "
	for _, line := range []string{entry.Title, entry.Company, entry.Duration, entry.Description, entry.Details} {
		if line == "" {
			continue
		}
		output.WriteString(prefix)
		output.WriteString(line)
		output.WriteString("\n")
		prefix = "  "
	}
}

func (rtf *ResultTextFormatter) SupportedType() string {
	return "ResultView"
}

// ResultMarkdownFormatter renders a result as markdown
type ResultMarkdownFormatter struct{}

func (rmf *ResultMarkdownFormatter) Format(data any) (string, error) {
	view, err := asResultView(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder

	output.WriteString("# Your Optimized Resume\n\n")
	if view.OriginalFileName != "" {
		output.WriteString(fmt.Sprintf("Based on \"%s\"\n\n", view.OriginalFileName))
	}
	output.WriteString("## ATS Compatibility\n\n")
	output.WriteString(fmt.Sprintf("**Score:** %d/100\n\n", view.ATSScore))
	output.WriteString(fmt.Sprintf("> %s\n\n", view.TierMessage))

	for _, section := range view.Sections {
		output.WriteString(fmt.Sprintf("## %s\n\n", section.Title))
		switch {
		case len(section.Entries) > 0:
			for _, entry := range section.Entries {
				if entry.IsText() {
					output.WriteString(fmt.Sprintf("- %s\n", entry.Text))
					continue
				}
				writeMarkdownEntry(&output, entry)
			}
			output.WriteString("\n")
		case len(section.Pairs) > 0:
			for _, pair := range section.Pairs {
				output.WriteString(fmt.Sprintf("**%s:** %s\n\n", pair.Key, pair.Value))
			}
		default:
			output.WriteString(section.Text)
			output.WriteString("\n\n")
		}
	}

	if view.PDFPath != "" {
		output.WriteString(fmt.Sprintf("---\n\nPDF: `%s`\n", view.PDFPath))
	}

	return output.String(), nil
}

func writeMarkdownEntry(output *strings.Builder, entry types.EntryView) {
	var parts []string
	if entry.Title != "" {
		parts = append(parts, "**"+entry.Title+"**")
	}
	for _, s := range []string{entry.Company, entry.Duration} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	output.WriteString("- ")
	output.WriteString(strings.Join(parts, " · "))
	output.WriteString("\n")
	for _, s := range []string{entry.Description, entry.Details} {
		if s != "" {
			output.WriteString("  ")
			output.WriteString(s)
			output.WriteString("\n")
		}
	}
}

func (rmf *ResultMarkdownFormatter) SupportedType() string {
	return "ResultView"
}

// GlobalRegistry is the default formatter registry instance
var GlobalRegistry = NewFormatterRegistry()
