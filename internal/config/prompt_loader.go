package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// LoadedSystemPrompts holds system prompt content loaded from files
type LoadedSystemPrompts struct {
	ExtractKeywords string
	RewriteResume   string
}

// LoadedUserPrompts holds user prompt content loaded from files
type LoadedUserPrompts struct {
	ExtractKeywords string
	RewriteResume   string
}

// OperationLoadedPrompts groups loaded prompts for one operation
type OperationLoadedPrompts struct {
	SystemPrompts LoadedSystemPrompts
	UserPrompts   LoadedUserPrompts
}

// AllLoadedPrompts holds every file-loaded prompt, global and per operation
type AllLoadedPrompts struct {
	Global  OperationLoadedPrompts
	Extract OperationLoadedPrompts
	Rewrite OperationLoadedPrompts
}

var (
	loadedPrompts     AllLoadedPrompts
	loadedPromptsOnce sync.Once
	loadedPromptsMu   sync.RWMutex
)

// GetPromptsForOperation returns a copy of the loaded prompts for the given
// operation, with global file-loaded prompts filling any gaps.
func GetPromptsForOperation(operation string) OperationLoadedPrompts {
	loadedPromptsMu.RLock()
	defer loadedPromptsMu.RUnlock()

	var op OperationLoadedPrompts
	switch operation {
	case "extract":
		op = loadedPrompts.Extract
	case "rewrite":
		op = loadedPrompts.Rewrite
	}

	if op.SystemPrompts.ExtractKeywords == "" {
		op.SystemPrompts.ExtractKeywords = loadedPrompts.Global.SystemPrompts.ExtractKeywords
	}
	if op.SystemPrompts.RewriteResume == "" {
		op.SystemPrompts.RewriteResume = loadedPrompts.Global.SystemPrompts.RewriteResume
	}
	if op.UserPrompts.ExtractKeywords == "" {
		op.UserPrompts.ExtractKeywords = loadedPrompts.Global.UserPrompts.ExtractKeywords
	}
	if op.UserPrompts.RewriteResume == "" {
		op.UserPrompts.RewriteResume = loadedPrompts.Global.UserPrompts.RewriteResume
	}

	return op
}

// loadPromptsFromFiles loads custom prompts from external files if file
// paths are specified in the configuration.
func (c *Config) loadPromptsFromFiles() error {
	loadedPromptsOnce.Do(func() {
		loadedPrompts = AllLoadedPrompts{}
	})

	loadedPromptsMu.Lock()
	defer loadedPromptsMu.Unlock()

	targets := []struct {
		prompts *PromptConfig
		target  *OperationLoadedPrompts
		scope   string
	}{
		{&c.AI.CustomPrompts, &loadedPrompts.Global, "global"},
		{&c.AI.Extract.CustomPrompts, &loadedPrompts.Extract, "extract"},
		{&c.AI.Rewrite.CustomPrompts, &loadedPrompts.Rewrite, "rewrite"},
	}

	for _, t := range targets {
		if err := loadPromptFiles(t.prompts, t.target); err != nil {
			return fmt.Errorf("failed to load %s prompts: %w", t.scope, err)
		}
	}

	return nil
}

func loadPromptFiles(prompts *PromptConfig, target *OperationLoadedPrompts) error {
	entries := []struct {
		path string
		dest *string
	}{
		{prompts.SystemPrompts.ExtractKeywordsFile, &target.SystemPrompts.ExtractKeywords},
		{prompts.SystemPrompts.RewriteResumeFile, &target.SystemPrompts.RewriteResume},
		{prompts.UserPrompts.ExtractKeywordsFile, &target.UserPrompts.ExtractKeywords},
		{prompts.UserPrompts.RewriteResumeFile, &target.UserPrompts.RewriteResume},
	}

	for _, e := range entries {
		if e.path == "" {
			continue
		}
		content, err := loadPromptFromFile(e.path)
		if err != nil {
			return err
		}
		*e.dest = content
	}

	return nil
}

// loadPromptFromFile reads a prompt file, rejecting empty files and
// obviously wrong paths early.
func loadPromptFromFile(path string) (string, error) {
	cleaned := filepath.Clean(path)

	info, err := os.Stat(cleaned)
	if err != nil {
		return "", fmt.Errorf("prompt file %s: %w", cleaned, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("prompt file %s is a directory", cleaned)
	}

	content, err := os.ReadFile(cleaned)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt file %s: %w", cleaned, err)
	}

	text := strings.TrimSpace(string(content))
	if text == "" {
		return "", fmt.Errorf("prompt file %s is empty", cleaned)
	}

	return text, nil
}
