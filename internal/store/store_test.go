package store

import (
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"resumeforge/internal/errors"
	"resumeforge/internal/types"
)

func testKeywords() types.JobKeywords {
	return types.JobKeywords{
		TechnicalSkills:      []string{"Go", "SQL"},
		TechnologiesAndTools: []string{"Docker"},
		SoftSkills:           []string{"Communication"},
		Certifications:       []string{},
		OtherRequirements:    []string{"3+ years of experience"},
	}
}

func TestSaveAndLoadJobAnalysis(t *testing.T) {
	s := NewStore(t.TempDir(), nil)

	jobDescription := "We are hiring a backend engineer with Go and SQL experience."
	path, record, err := s.SaveJobAnalysis(jobDescription, testKeywords())
	if err != nil {
		t.Fatalf("SaveJobAnalysis failed: %v", err)
	}

	namePattern := regexp.MustCompile(`^job_analysis_\d{8}_\d{6}_[0-9a-f]{8}\.json$`)
	if !namePattern.MatchString(record.Metadata.Filename) {
		t.Errorf("unexpected record filename: %s", record.Metadata.Filename)
	}
	if filepath.Base(path) != record.Metadata.Filename {
		t.Errorf("path %s does not end with recorded filename %s", path, record.Metadata.Filename)
	}
	if record.Output.TotalKeywordsExtracted != 5 {
		t.Errorf("expected 5 total keywords, got %d", record.Output.TotalKeywordsExtracted)
	}
	// Short inputs are stored verbatim, no ellipsis
	if record.Input.JobDescriptionPreview != jobDescription {
		t.Errorf("unexpected preview: %q", record.Input.JobDescriptionPreview)
	}

	loaded, err := s.LoadJobAnalysis(record.Metadata.Filename)
	if err != nil {
		t.Fatalf("LoadJobAnalysis failed: %v", err)
	}
	if loaded.Metadata.UniqueID != record.Metadata.UniqueID {
		t.Errorf("round trip changed unique id: %s vs %s",
			loaded.Metadata.UniqueID, record.Metadata.UniqueID)
	}
	if loaded.Output.AnalysisResult.TechnicalSkills[0] != "Go" {
		t.Errorf("round trip lost keywords: %v", loaded.Output.AnalysisResult)
	}
}

func TestJobDescriptionPreviewTruncation(t *testing.T) {
	s := NewStore(t.TempDir(), nil)

	long := strings.Repeat("a", 500)
	_, record, err := s.SaveJobAnalysis(long, testKeywords())
	if err != nil {
		t.Fatalf("SaveJobAnalysis failed: %v", err)
	}

	want := strings.Repeat("a", 200) + "..."
	if record.Input.JobDescriptionPreview != want {
		t.Errorf("expected 200-char preview with ellipsis, got %d chars",
			len(record.Input.JobDescriptionPreview))
	}
	// The full text is still stored
	if record.Input.JobDescription != long {
		t.Error("full job description must be stored alongside the preview")
	}
}

func TestSaveResumeOptimization(t *testing.T) {
	s := NewStore(t.TempDir(), nil)

	content := types.ResumeContent{
		UpdatedSummary:        "Engineer with Go experience.",
		LibertyMutualGroup:    []string{"Built services"},
		InovaceTechnologies:   []string{"Shipped APIs"},
		SpiderDigitalCommerce: []string{"Designed pages"},
		EchoProject:           []string{"Led a project", "Wrote docs"},
	}

	longResume := strings.Repeat("r", 400)
	_, record, err := s.SaveResumeOptimization([]string{"Go", "Docker"}, longResume, content, SourceJobAnalysis)
	if err != nil {
		t.Fatalf("SaveResumeOptimization failed: %v", err)
	}

	if record.Metadata.KeywordsSource != SourceJobAnalysis {
		t.Errorf("unexpected keywords source: %s", record.Metadata.KeywordsSource)
	}
	if record.Input.KeywordsCount != 2 {
		t.Errorf("expected keywords count 2, got %d", record.Input.KeywordsCount)
	}
	if len(record.Input.OriginalResumePreview) != 303 {
		t.Errorf("expected 300-char preview with ellipsis, got %d chars",
			len(record.Input.OriginalResumePreview))
	}
	if len(record.Output.SectionsOptimized) != 5 {
		t.Errorf("expected 5 optimized sections, got %v", record.Output.SectionsOptimized)
	}
	if record.Output.SectionsOptimized[0] != "updated_summary" {
		t.Errorf("expected updated_summary first, got %v", record.Output.SectionsOptimized)
	}
}

func TestDistinctRecordIdentifiers(t *testing.T) {
	s := NewStore(t.TempDir(), nil)

	_, first, err := s.SaveJobAnalysis("job one", testKeywords())
	if err != nil {
		t.Fatalf("SaveJobAnalysis failed: %v", err)
	}
	_, second, err := s.SaveJobAnalysis("job two", testKeywords())
	if err != nil {
		t.Fatalf("SaveJobAnalysis failed: %v", err)
	}

	if first.Metadata.UniqueID == second.Metadata.UniqueID {
		t.Error("records saved in the same second must still get distinct ids")
	}
	if first.Metadata.Filename == second.Metadata.Filename {
		t.Error("records saved in the same second must still get distinct filenames")
	}
}

func TestListRecords(t *testing.T) {
	s := NewStore(t.TempDir(), nil)

	if _, _, err := s.SaveJobAnalysis("job", testKeywords()); err != nil {
		t.Fatalf("SaveJobAnalysis failed: %v", err)
	}

	listing, err := s.ListRecords("all")
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	if len(listing[KindJobAnalysis]) != 1 {
		t.Errorf("expected 1 job analysis record, got %d", len(listing[KindJobAnalysis]))
	}
	// Empty kinds are present as empty lists
	if listing[KindResumeOptimization] == nil {
		t.Error("resume_optimization listing should be an empty list, not nil")
	}

	if _, err := s.ListRecords("bogus"); err == nil {
		t.Error("expected error for unknown record kind")
	}
}

func TestLoadMissingRecord(t *testing.T) {
	s := NewStore(t.TempDir(), nil)

	_, err := s.LoadJobAnalysis("job_analysis_20250101_000000_deadbeef.json")
	if err == nil {
		t.Fatal("expected not-found error")
	}
	if !errors.IsNotFound(err) {
		t.Errorf("expected not-found error type, got %v", errors.TypeOf(err))
	}
}

func TestRejectTraversalFilenames(t *testing.T) {
	s := NewStore(t.TempDir(), nil)

	for _, name := range []string{"../../etc/passwd", "sub/record.json", ".hidden.json", "record.txt", ""} {
		if _, err := s.LoadRaw(KindJobAnalysis, name); err == nil {
			t.Errorf("expected rejection of filename %q", name)
		} else if errors.IsNotFound(err) {
			t.Errorf("filename %q should fail validation, not lookup", name)
		}
	}
}

func TestGetStats(t *testing.T) {
	s := NewStore(t.TempDir(), nil)

	if _, _, err := s.SaveJobAnalysis("job", testKeywords()); err != nil {
		t.Fatalf("SaveJobAnalysis failed: %v", err)
	}
	if _, _, err := s.SaveResumeOptimization(nil, "resume", types.ResumeContent{UpdatedSummary: "x"}, SourceCustom); err != nil {
		t.Fatalf("SaveResumeOptimization failed: %v", err)
	}

	stats, err := s.GetStats()
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.JobAnalysisCount != 1 || stats.ResumeOptimizationCount != 1 || stats.TotalCount != 2 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
