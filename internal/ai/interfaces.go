package ai

import (
	"context"

	"resumeforge/internal/types"
)

// AIProvider interface for different AI implementations.
// All methods return token usage information - callers can ignore it if not needed.
type AIProvider interface {
	ExtractKeywords(ctx context.Context, input types.ExtractKeywordsInput) (types.JobKeywords, *TokenUsage, error)
	RewriteResume(ctx context.Context, input types.RewriteResumeInput) (types.ResumeContent, *TokenUsage, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}
