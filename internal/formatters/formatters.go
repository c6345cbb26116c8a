package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"resumeforge/internal/store"
	"resumeforge/internal/types"
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
	registry.RegisterFormatter("text", "JobKeywords", &KeywordsTextFormatter{})
	registry.RegisterFormatter("markdown", "JobKeywords", &KeywordsMarkdownFormatter{})
	registry.RegisterFormatter("text", "ResumeContent", &ResumeContentTextFormatter{})
	registry.RegisterFormatter("markdown", "ResumeContent", &ResumeContentMarkdownFormatter{})
	registry.RegisterFormatter("text", "Stats", &StatsTextFormatter{})

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
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.JobKeywords:
		return "JobKeywords"
	case types.ResumeContent:
		return "ResumeContent"
	case store.Stats:
		return "Stats"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

func keywordCategories(k types.JobKeywords) []struct {
	Title    string
	Keywords []string
} {
	return []struct {
		Title    string
		Keywords []string
	}{
		{"Technical Skills", k.TechnicalSkills},
		{"Technologies And Tools", k.TechnologiesAndTools},
		{"Soft Skills", k.SoftSkills},
		{"Certifications", k.Certifications},
		{"Other Requirements", k.OtherRequirements},
	}
}

// KeywordsTextFormatter handles text formatting for extracted keywords
type KeywordsTextFormatter struct{}

func (ktf *KeywordsTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.JobKeywords)
	if !ok {
		return "", fmt.Errorf("expected JobKeywords, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== EXTRACTED KEYWORDS ===\n\n")
	output.WriteString(fmt.Sprintf("Total keywords: %d\n\n", result.TotalKeywords()))

	for _, category := range keywordCategories(result) {
		if len(category.Keywords) == 0 {
			continue
		}
		output.WriteString(category.Title + ":\n")
		for _, keyword := range category.Keywords {
			output.WriteString(fmt.Sprintf("- %s\n", keyword))
		}
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (ktf *KeywordsTextFormatter) SupportedType() string {
	return "JobKeywords"
}

// KeywordsMarkdownFormatter handles markdown formatting for extracted keywords
type KeywordsMarkdownFormatter struct{}

func (kmf *KeywordsMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.JobKeywords)
	if !ok {
		return "", fmt.Errorf("expected JobKeywords, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Extracted Keywords\n\n")
	output.WriteString(fmt.Sprintf("**Total keywords:** %d\n\n", result.TotalKeywords()))

	for _, category := range keywordCategories(result) {
		output.WriteString("## " + category.Title + "\n\n")
		if len(category.Keywords) == 0 {
			output.WriteString("_None found._\n\n")
			continue
		}
		for _, keyword := range category.Keywords {
			output.WriteString(fmt.Sprintf("- %s\n", keyword))
		}
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (kmf *KeywordsMarkdownFormatter) SupportedType() string {
	return "JobKeywords"
}

func resumeSections(rc types.ResumeContent) []struct {
	Title   string
	Bullets []string
} {
	return []struct {
		Title   string
		Bullets []string
	}{
		{"Liberty Mutual Group", rc.LibertyMutualGroup},
		{"Inovace Technologies", rc.InovaceTechnologies},
		{"Spider Digital Commerce", rc.SpiderDigitalCommerce},
		{"Echo Project", rc.EchoProject},
	}
}

// ResumeContentTextFormatter handles text formatting for optimized resume content
type ResumeContentTextFormatter struct{}

func (rtf *ResumeContentTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.ResumeContent)
	if !ok {
		return "", fmt.Errorf("expected ResumeContent, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== OPTIMIZED RESUME CONTENT ===\n\n")
	output.WriteString("Summary:\n")
	output.WriteString(result.UpdatedSummary)
	output.WriteString("\n\n")

	for _, section := range resumeSections(result) {
		output.WriteString(section.Title + ":\n")
		for _, bullet := range section.Bullets {
			output.WriteString(fmt.Sprintf("- %s\n", bullet))
		}
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (rtf *ResumeContentTextFormatter) SupportedType() string {
	return "ResumeContent"
}

// ResumeContentMarkdownFormatter handles markdown formatting for optimized resume content
type ResumeContentMarkdownFormatter struct{}

func (rmf *ResumeContentMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.ResumeContent)
	if !ok {
		return "", fmt.Errorf("expected ResumeContent, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Optimized Resume Content\n\n")
	output.WriteString("## Summary\n\n")
	output.WriteString(result.UpdatedSummary)
	output.WriteString("\n\n")

	for _, section := range resumeSections(result) {
		output.WriteString("## " + section.Title + "\n\n")
		for _, bullet := range section.Bullets {
			output.WriteString(fmt.Sprintf("- %s\n", bullet))
		}
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (rmf *ResumeContentMarkdownFormatter) SupportedType() string {
	return "ResumeContent"
}

// StatsTextFormatter handles text formatting for record store statistics
type StatsTextFormatter struct{}

func (stf *StatsTextFormatter) Format(data any) (string, error) {
	result, ok := data.(store.Stats)
	if !ok {
		return "", fmt.Errorf("expected Stats, got %T", data)
	}

	var output strings.Builder
	output.WriteString("=== SUMMARY STATISTICS ===\n")
	output.WriteString(fmt.Sprintf("Job Analysis Records: %d\n", result.JobAnalysisCount))
	output.WriteString(fmt.Sprintf("Resume Optimization Records: %d\n", result.ResumeOptimizationCount))
	output.WriteString(fmt.Sprintf("Total Records: %d\n", result.TotalCount))
	return output.String(), nil
}

func (stf *StatsTextFormatter) SupportedType() string {
	return "Stats"
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
