package formatters

import (
	"encoding/json"
	"strings"
	"testing"

	"resumeforge/internal/store"
	"resumeforge/internal/types"
)

func testKeywords() types.JobKeywords {
	return types.JobKeywords{
		TechnicalSkills:      []string{"Go", "SQL"},
		TechnologiesAndTools: []string{"Docker"},
		SoftSkills:           []string{},
		Certifications:       []string{},
		OtherRequirements:    []string{"5+ years"},
	}
}

func TestJSONFormatterRoundTrip(t *testing.T) {
	registry := NewFormatterRegistry()

	out, err := registry.Format(testKeywords(), "json")
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("JSON output is not valid JSON: %v", err)
	}
	if _, ok := decoded["technical_skills"]; !ok {
		t.Error("JSON output missing technical_skills field")
	}
}

func TestKeywordsTextFormatter(t *testing.T) {
	registry := NewFormatterRegistry()

	out, err := registry.Format(testKeywords(), "text")
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	if !strings.Contains(out, "Total keywords: 4") {
		t.Errorf("text output missing total: %q", out)
	}
	if !strings.Contains(out, "- Go") {
		t.Errorf("text output missing keyword: %q", out)
	}
	// Empty categories are omitted in text output
	if strings.Contains(out, "Soft Skills") {
		t.Errorf("empty category should be omitted: %q", out)
	}
}

func TestKeywordsMarkdownFormatter(t *testing.T) {
	registry := NewFormatterRegistry()

	out, err := registry.Format(testKeywords(), "markdown")
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if !strings.Contains(out, "# Extracted Keywords") {
		t.Errorf("markdown output missing heading: %q", out)
	}
	if !strings.Contains(out, "_None found._") {
		t.Errorf("markdown output should mark empty categories: %q", out)
	}
}

func TestResumeContentFormatter(t *testing.T) {
	registry := NewFormatterRegistry()

	content := types.ResumeContent{
		UpdatedSummary:     "A summary.",
		LibertyMutualGroup: []string{"Did things"},
		EchoProject:        []string{"Built stuff", "Tested stuff"},
	}

	out, err := registry.Format(content, "text")
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if !strings.Contains(out, "A summary.") || !strings.Contains(out, "- Built stuff") {
		t.Errorf("unexpected text output: %q", out)
	}
}

func TestStatsFormatter(t *testing.T) {
	registry := NewFormatterRegistry()

	out, err := registry.Format(store.Stats{JobAnalysisCount: 2, ResumeOptimizationCount: 1, TotalCount: 3}, "text")
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if !strings.Contains(out, "Total Records: 3") {
		t.Errorf("unexpected stats output: %q", out)
	}
}

func TestUnknownFormat(t *testing.T) {
	registry := NewFormatterRegistry()

	if _, err := registry.Format(testKeywords(), "yaml"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestUnknownTypeFallsBackToJSON(t *testing.T) {
	registry := NewFormatterRegistry()

	out, err := registry.Format(map[string]string{"a": "b"}, "json")
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if !strings.Contains(out, `"a": "b"`) {
		t.Errorf("unexpected fallback output: %q", out)
	}
}
