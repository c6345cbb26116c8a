package ai

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"resumeforge/internal/config"
	"resumeforge/internal/errors"
	"resumeforge/internal/types"
)

func timePtr(d time.Duration) *time.Duration { return &d }
func intPtr(i int) *int                      { return &i }
func float32Ptr(f float32) *float32          { return &f }
func boolPtr(b bool) *bool                   { return &b }

var testLogger = errors.NewLogger(slog.LevelError)

func testOperationConfig() *config.OperationAIConfig {
	return &config.OperationAIConfig{
		Provider:         "gemini",
		Model:            "gemini-2.5-flash",
		APIKey:           "test-key",
		Timeout:          timePtr(30 * time.Second),
		MaxRetries:       intPtr(0),
		Temperature:      float32Ptr(0.2),
		UseSystemPrompts: boolPtr(true),
	}
}

// A provider constructed without a client is enough to exercise input
// validation, which must reject bad input before any network activity.
func validationOnlyProvider() *GeminiProvider {
	return &GeminiProvider{
		config: testOperationConfig(),
		logger: testLogger,
	}
}

func TestExtractKeywordsRejectsEmptyJobDescription(t *testing.T) {
	p := validationOnlyProvider()

	for _, jobDescription := range []string{"", "   ", "\n\t"} {
		_, _, err := p.ExtractKeywords(context.Background(), types.ExtractKeywordsInput{
			JobDescription: jobDescription,
		})
		if err == nil {
			t.Fatalf("expected validation error for job description %q", jobDescription)
		}
		if !errors.IsValidation(err) {
			t.Errorf("expected validation error type, got %v", errors.TypeOf(err))
		}
	}
}

func TestRewriteResumeRejectsEmptyResume(t *testing.T) {
	p := validationOnlyProvider()

	_, _, err := p.RewriteResume(context.Background(), types.RewriteResumeInput{
		Keywords:       []string{"Go", "Kubernetes"},
		OriginalResume: "  ",
	})
	if err == nil {
		t.Fatal("expected validation error for empty resume")
	}
	if !errors.IsValidation(err) {
		t.Errorf("expected validation error type, got %v", errors.TypeOf(err))
	}
}

func TestRewriteResumeAllowsEmptyKeywordList(t *testing.T) {
	// An empty keyword list is valid input; only the resume text is required.
	// Validation happens before any client call, so a provider without a
	// client panics only if validation incorrectly passes it through.
	p := validationOnlyProvider()

	defer func() {
		// The nil client panic proves validation accepted the input
		_ = recover()
	}()

	_, _, err := p.RewriteResume(context.Background(), types.RewriteResumeInput{
		Keywords:       nil,
		OriginalResume: "Software developer with Go experience.",
	})
	if err != nil && errors.IsValidation(err) {
		t.Error("empty keyword list must not fail validation")
	}
}

func TestResolvePromptPriority(t *testing.T) {
	if got := resolvePrompt("from-file", "from-config", "default"); got != "from-file" {
		t.Errorf("expected file-loaded prompt to win, got %q", got)
	}
	if got := resolvePrompt("", "from-config", "default"); got != "from-config" {
		t.Errorf("expected config prompt to win over default, got %q", got)
	}
	if got := resolvePrompt("", "", "default"); got != "default" {
		t.Errorf("expected default prompt, got %q", got)
	}
}

func TestDefaultUserPromptsContainPlaceholders(t *testing.T) {
	if !strings.Contains(DefaultUserPrompts.ExtractKeywords, "%s") {
		t.Error("extract user prompt must have a job description placeholder")
	}
	if strings.Count(DefaultUserPrompts.RewriteResume, "%s") != 2 {
		t.Error("rewrite user prompt must have keyword and resume placeholders")
	}
}

func TestNewServiceRejectsUnknownProvider(t *testing.T) {
	cfg := testOperationConfig()
	cfg.Provider = "openai"

	_, err := NewService(cfg, "extract", testLogger)
	if err == nil {
		t.Fatal("expected error for unsupported provider")
	}
}
