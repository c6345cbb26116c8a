package workflow

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"resumeforge/internal/ai"
	"resumeforge/internal/config"
	"resumeforge/internal/errors"
	"resumeforge/internal/render"
	"resumeforge/internal/store"
	"resumeforge/internal/types"
)

// stubProvider implements ai.AIProvider with canned responses and call counts
type stubProvider struct {
	keywords    types.JobKeywords
	content     types.ResumeContent
	extractErr  error
	rewriteErr  error
	extractCall int
	rewriteCall int
}

func (s *stubProvider) ExtractKeywords(ctx context.Context, input types.ExtractKeywordsInput) (types.JobKeywords, *ai.TokenUsage, error) {
	s.extractCall++
	if s.extractErr != nil {
		return types.JobKeywords{}, nil, s.extractErr
	}
	return s.keywords, &ai.TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}, nil
}

func (s *stubProvider) RewriteResume(ctx context.Context, input types.RewriteResumeInput) (types.ResumeContent, *ai.TokenUsage, error) {
	s.rewriteCall++
	if s.rewriteErr != nil {
		return types.ResumeContent{}, nil, s.rewriteErr
	}
	return s.content, &ai.TokenUsage{InputTokens: 20, OutputTokens: 10, TotalTokens: 30}, nil
}

func (s *stubProvider) GetModelInfo(ctx context.Context) *ai.ModelInfo {
	return &ai.ModelInfo{Name: "stub", Available: true}
}

func (s *stubProvider) Close() error { return nil }

func testStub() *stubProvider {
	return &stubProvider{
		keywords: types.JobKeywords{
			TechnicalSkills:      []string{"Go"},
			TechnologiesAndTools: []string{"Docker"},
			SoftSkills:           []string{"Communication"},
			Certifications:       []string{"CKA"},
			OtherRequirements:    []string{"5+ years"},
		},
		content: types.ResumeContent{
			UpdatedSummary:        "Engineer.",
			LibertyMutualGroup:    []string{"Did a thing"},
			InovaceTechnologies:   []string{"Did another"},
			SpiderDigitalCommerce: []string{"Interned"},
			EchoProject:           []string{"Built", "Tested"},
		},
	}
}

func testPipeline(t *testing.T, stub *stubProvider, mode types.FlattenMode) (*Pipeline, *store.Store) {
	t.Helper()
	dir := t.TempDir()

	resumePath := filepath.Join(dir, "resume.md")
	if err := os.WriteFile(resumePath, []byte("# Test Person\noriginal resume text"), 0600); err != nil {
		t.Fatalf("failed to write resume: %v", err)
	}

	logger := errors.NewLogger(slog.LevelError)
	recordStore := store.NewStore(filepath.Join(dir, "outputs"), nil)
	renderer := render.NewRenderer(config.RenderConfig{
		OutputDir: filepath.Join(dir, "outputs", "resumes"),
	}, nil)

	return NewPipeline(stub, stub, recordStore, renderer, Options{
		FlattenMode:     mode,
		CanonicalResume: resumePath,
		PersistAnalysis: true,
		PersistRewrite:  true,
	}, logger), recordStore
}

func TestAnalyzeJobPersistsRecord(t *testing.T) {
	stub := testStub()
	p, recordStore := testPipeline(t, stub, types.FlattenCore)

	result, err := p.AnalyzeJob(context.Background(), "a job description")
	if err != nil {
		t.Fatalf("AnalyzeJob failed: %v", err)
	}
	if result.Keywords.TotalKeywords() != 5 {
		t.Errorf("unexpected keyword count: %d", result.Keywords.TotalKeywords())
	}
	if result.RecordPath == "" {
		t.Error("analysis record should be saved")
	}

	listing, err := recordStore.ListRecords(store.KindJobAnalysis)
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	if len(listing[store.KindJobAnalysis]) != 1 {
		t.Errorf("expected exactly one analysis record, got %d", len(listing[store.KindJobAnalysis]))
	}
}

func TestRunFullPipeline(t *testing.T) {
	stub := testStub()
	p, recordStore := testPipeline(t, stub, types.FlattenCore)

	result, err := p.Run(context.Background(), OptimizeRequest{
		JobDescription: "a job description",
		GenerateHTML:   true,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Step != StepDone {
		t.Errorf("expected step done, got %s", result.Step)
	}

	// Core flattening drops certifications and other requirements
	if len(result.FlattenedKeywords) != 3 {
		t.Errorf("expected 3 core keywords, got %v", result.FlattenedKeywords)
	}
	if result.AnalysisRecordPath == "" {
		t.Error("analysis record should be saved during the pipeline")
	}
	if result.OptimizationRecordPath == "" {
		t.Error("optimization record should be saved")
	}
	if result.HTMLPath == "" || result.HTML == "" {
		t.Error("HTML output missing")
	}
	if stub.extractCall != 1 || stub.rewriteCall != 1 {
		t.Errorf("unexpected call counts: extract=%d rewrite=%d", stub.extractCall, stub.rewriteCall)
	}

	// The saved optimization record carries the streamlined source label
	listing, _ := recordStore.ListRecords(store.KindResumeOptimization)
	names := listing[store.KindResumeOptimization]
	if len(names) != 1 {
		t.Fatalf("expected one optimization record, got %d", len(names))
	}
	record, err := recordStore.LoadResumeOptimization(names[0])
	if err != nil {
		t.Fatalf("LoadResumeOptimization failed: %v", err)
	}
	if record.Metadata.KeywordsSource != store.SourceStreamlinedWorkflow {
		t.Errorf("unexpected keywords source: %s", record.Metadata.KeywordsSource)
	}
}

func TestRunMarkdownAndDiffOutputs(t *testing.T) {
	stub := testStub()
	p, _ := testPipeline(t, stub, types.FlattenCore)

	result, err := p.Run(context.Background(), OptimizeRequest{
		JobDescription:   "a job description",
		GenerateMarkdown: true,
		GenerateDiff:     true,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.MarkdownPath == "" {
		t.Fatal("markdown output missing")
	}
	data, err := os.ReadFile(result.MarkdownPath)
	if err != nil {
		t.Fatalf("markdown file not written: %v", err)
	}
	text := string(data)
	if strings.Contains(text, "<") {
		t.Error("markdown output must not contain HTML tags")
	}
	if !strings.Contains(text, "Did a thing") {
		t.Errorf("markdown output missing rewritten bullet: %q", text)
	}

	// The rewritten text differs from the original resume, so the diff
	// must carry both removed and added lines.
	if result.Diff == "" {
		t.Fatal("diff output missing")
	}
	if !strings.Contains(result.Diff, "- original resume text") {
		t.Errorf("diff missing removed original line:\n%s", result.Diff)
	}
	if !strings.Contains(result.Diff, "+ ") {
		t.Errorf("diff missing added lines:\n%s", result.Diff)
	}
}

func TestRunAllCategoriesFlattening(t *testing.T) {
	stub := testStub()
	p, _ := testPipeline(t, stub, types.FlattenAll)

	result, err := p.Run(context.Background(), OptimizeRequest{JobDescription: "job"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.FlattenedKeywords) != 5 {
		t.Errorf("expected all 5 keywords, got %v", result.FlattenedKeywords)
	}
}

func TestRunWithDirectKeywords(t *testing.T) {
	stub := testStub()
	p, recordStore := testPipeline(t, stub, types.FlattenCore)

	result, err := p.Run(context.Background(), OptimizeRequest{
		Keywords: []string{"Go", "Kubernetes"},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if stub.extractCall != 0 {
		t.Error("direct keywords must not trigger extraction")
	}
	if result.AnalysisRecordPath != "" {
		t.Error("no analysis record expected without a job description")
	}

	listing, _ := recordStore.ListRecords(store.KindResumeOptimization)
	names := listing[store.KindResumeOptimization]
	record, err := recordStore.LoadResumeOptimization(names[0])
	if err != nil {
		t.Fatalf("LoadResumeOptimization failed: %v", err)
	}
	if record.Metadata.KeywordsSource != store.SourceCustom {
		t.Errorf("expected custom source, got %s", record.Metadata.KeywordsSource)
	}
	if record.Input.KeywordsCount != 2 {
		t.Errorf("expected 2 keywords, got %d", record.Input.KeywordsCount)
	}
}

func TestRunExtractFailureAttributedToAnalyzing(t *testing.T) {
	stub := testStub()
	stub.extractErr = errors.NewAIError(errors.ErrCodeAIServiceFailed, "upstream down", nil)
	p, _ := testPipeline(t, stub, types.FlattenCore)

	result, err := p.Run(context.Background(), OptimizeRequest{JobDescription: "job"})
	if err == nil {
		t.Fatal("expected pipeline failure")
	}
	if result.Step != StepAnalyzing {
		t.Errorf("failure should be attributed to analyzing, got %s", result.Step)
	}
	if stub.rewriteCall != 0 {
		t.Error("rewrite must not run after extraction fails")
	}
}

func TestRunRewriteFailureSkipsPersistence(t *testing.T) {
	stub := testStub()
	stub.rewriteErr = errors.NewSchemaError(errors.ErrCodeSchemaMismatch, "bad shape", nil)
	p, recordStore := testPipeline(t, stub, types.FlattenCore)

	result, err := p.Run(context.Background(), OptimizeRequest{JobDescription: "job"})
	if err == nil {
		t.Fatal("expected pipeline failure")
	}
	if result.Step != StepRewriting {
		t.Errorf("failure should be attributed to rewriting, got %s", result.Step)
	}

	// Partial results up to the failure survive
	if result.Keywords == nil {
		t.Error("extracted keywords should be preserved on rewrite failure")
	}
	if result.AnalysisRecordPath == "" {
		t.Error("analysis record is saved before the rewrite step")
	}

	// A schema-invalid rewrite must not persist an optimization record
	listing, _ := recordStore.ListRecords(store.KindResumeOptimization)
	if len(listing[store.KindResumeOptimization]) != 0 {
		t.Error("no optimization record may be written for a failed rewrite")
	}
}

func TestRunMissingCanonicalResume(t *testing.T) {
	stub := testStub()
	p, _ := testPipeline(t, stub, types.FlattenCore)
	p.opts.CanonicalResume = filepath.Join(t.TempDir(), "missing.md")

	result, err := p.Run(context.Background(), OptimizeRequest{Keywords: []string{"Go"}})
	if err == nil {
		t.Fatal("expected failure for missing canonical resume")
	}
	if result.Step != StepRewriting {
		t.Errorf("expected rewriting step attribution, got %s", result.Step)
	}
}
