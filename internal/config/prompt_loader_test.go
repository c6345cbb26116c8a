package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPromptsFromFiles(t *testing.T) {
	tempDir := t.TempDir()

	systemPromptContent := "Test system prompt for extraction"
	userPromptContent := "Test user prompt template: %s"

	systemPromptFile := filepath.Join(tempDir, "system.extract.md")
	userPromptFile := filepath.Join(tempDir, "user.extract.md")

	if err := os.WriteFile(systemPromptFile, []byte(systemPromptContent), 0600); err != nil {
		t.Fatalf("Failed to create test system prompt file: %v", err)
	}
	if err := os.WriteFile(userPromptFile, []byte(userPromptContent), 0600); err != nil {
		t.Fatalf("Failed to create test user prompt file: %v", err)
	}

	config := &Config{
		AI: AIConfig{
			Extract: OperationAIConfig{
				CustomPrompts: PromptConfig{
					SystemPrompts: SystemPrompts{
						ExtractKeywordsFile: systemPromptFile,
					},
					UserPrompts: UserPrompts{
						ExtractKeywordsFile: userPromptFile,
					},
				},
			},
		},
	}

	if err := config.loadPromptsFromFiles(); err != nil {
		t.Fatalf("Failed to load prompts from files: %v", err)
	}

	loadedOps := GetPromptsForOperation("extract")

	if loadedOps.SystemPrompts.ExtractKeywords != systemPromptContent {
		t.Errorf("Expected loaded system prompt content %q, got %q",
			systemPromptContent, loadedOps.SystemPrompts.ExtractKeywords)
	}
	if loadedOps.UserPrompts.ExtractKeywords != userPromptContent {
		t.Errorf("Expected loaded user prompt content %q, got %q",
			userPromptContent, loadedOps.UserPrompts.ExtractKeywords)
	}
}

func TestLoadPromptsMissingFile(t *testing.T) {
	config := &Config{
		AI: AIConfig{
			Rewrite: OperationAIConfig{
				CustomPrompts: PromptConfig{
					UserPrompts: UserPrompts{
						RewriteResumeFile: filepath.Join(t.TempDir(), "does-not-exist.md"),
					},
				},
			},
		},
	}

	if err := config.loadPromptsFromFiles(); err == nil {
		t.Fatal("expected error for missing prompt file")
	}
}

func TestLoadPromptsEmptyFile(t *testing.T) {
	emptyFile := filepath.Join(t.TempDir(), "empty.md")
	if err := os.WriteFile(emptyFile, []byte("  \n"), 0600); err != nil {
		t.Fatalf("Failed to create empty prompt file: %v", err)
	}

	config := &Config{
		AI: AIConfig{
			CustomPrompts: PromptConfig{
				SystemPrompts: SystemPrompts{
					RewriteResumeFile: emptyFile,
				},
			},
		},
	}

	if err := config.loadPromptsFromFiles(); err == nil {
		t.Fatal("expected error for empty prompt file")
	}
}

func TestValidateKeywordFlattenMode(t *testing.T) {
	cfg := &Config{
		AI: AIConfig{
			APIKey:  "test-key",
			Timeout: 1,
		},
		Server: ServerConfig{
			Port: "8080",
			TLS:  TLSConfig{Mode: "disabled"},
		},
		App: AppConfig{
			DefaultFormat:      "json",
			SupportedFormats:   []string{"json"},
			KeywordFlattenMode: "everything",
		},
	}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for unknown flatten mode")
	}

	cfg.App.KeywordFlattenMode = "all"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestGetExtractConfigFallbacks(t *testing.T) {
	cfg := &Config{
		AI: AIConfig{
			Provider:    "gemini",
			Model:       "gemini-2.5-flash",
			APIKey:      "global-key",
			Timeout:     30,
			MaxRetries:  2,
			Temperature: 0.2,
		},
	}

	op := cfg.GetExtractConfig()
	if op.Model != "gemini-2.5-flash" {
		t.Errorf("expected global model fallback, got %q", op.Model)
	}
	if op.APIKey != "global-key" {
		t.Errorf("expected global API key fallback, got %q", op.APIKey)
	}
	if op.MaxRetries == nil || *op.MaxRetries != 2 {
		t.Error("expected global maxRetries fallback")
	}
}
