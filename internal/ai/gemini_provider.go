package ai

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"math/big"
	"net"
	"net/http"
	"strings"
	"time"

	"resumeforge/internal/config"
	forgeErrors "resumeforge/internal/errors"
	"resumeforge/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// GeminiProvider implements AIProvider for Google Gemini
type GeminiProvider struct {
	client            *genai.Client
	httpClient        *http.Client
	config            *config.OperationAIConfig
	circuitBreaker    *AICircuitBreaker
	modelBreaker      *ModelCircuitBreaker
	modelCheckTimeout time.Duration
	logger            *forgeErrors.Logger
}

// Ensure GeminiProvider implements AIProvider
var _ AIProvider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a new Gemini provider instance for a specific operation
func NewGeminiProvider(cfg *config.OperationAIConfig, operationType string, logger *forgeErrors.Logger) (*GeminiProvider, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, forgeErrors.NewAIError(forgeErrors.ErrCodeAIServiceFailed,
			"Failed to create Gemini client", err)
	}

	return &GeminiProvider{
		client: client,
		httpClient: &http.Client{
			Timeout: *cfg.Timeout,
		},
		config:            cfg,
		circuitBreaker:    NewAICircuitBreaker(operationType, cfg, logger),
		modelBreaker:      NewModelCircuitBreaker(operationType, cfg, logger),
		modelCheckTimeout: 10 * time.Second,
		logger:            logger,
	}, nil
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	modelInfo := &ModelInfo{
		Name:      g.config.Model,
		Available: false,
	}

	checkCtx, cancel := context.WithTimeout(ctx, g.modelCheckTimeout)
	defer cancel()

	model, err := g.modelBreaker.ExecuteModel(func() (*genai.Model, error) {
		return g.client.Models.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		modelInfo.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"provider", g.config.Provider,
			"error", err.Error())
		return modelInfo
	}

	modelInfo.Available = true
	modelInfo.DisplayName = model.DisplayName
	modelInfo.Version = model.Version

	g.logger.Debug("Model availability check successful",
		"model", g.config.Model,
		"provider", g.config.Provider,
		"display_name", modelInfo.DisplayName,
		"version", modelInfo.Version)

	return modelInfo
}

// ExtractKeywords implements AIProvider for job description keyword extraction
func (g *GeminiProvider) ExtractKeywords(ctx context.Context, input types.ExtractKeywordsInput) (types.JobKeywords, *TokenUsage, error) {
	if strings.TrimSpace(input.JobDescription) == "" {
		return types.JobKeywords{}, nil, forgeErrors.NewValidationError(forgeErrors.ErrCodeEmptyInput,
			"Job description must not be empty", nil)
	}

	systemPrompt := g.resolveSystemPrompt("extract")
	userPrompt := fmt.Sprintf(g.resolveUserPrompt("extract"), input.JobDescription)

	raw, tokenUsage, err := g.generateJSON(ctx, "extract_keywords", userPrompt, systemPrompt,
		g.buildExtractSchema(),
		attribute.Int("input.job_length", len(input.JobDescription)),
	)
	if err != nil {
		return types.JobKeywords{}, nil, err
	}

	keywords, err := types.DecodeJobKeywords([]byte(raw))
	if err != nil {
		return types.JobKeywords{}, nil, err
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(attribute.Int("output.keywords_total", keywords.TotalKeywords()))
	}

	return keywords, tokenUsage, nil
}

// RewriteResume implements AIProvider for keyword-driven resume rewriting
func (g *GeminiProvider) RewriteResume(ctx context.Context, input types.RewriteResumeInput) (types.ResumeContent, *TokenUsage, error) {
	if strings.TrimSpace(input.OriginalResume) == "" {
		return types.ResumeContent{}, nil, forgeErrors.NewValidationError(forgeErrors.ErrCodeEmptyInput,
			"Original resume must not be empty", nil)
	}

	systemPrompt := g.resolveSystemPrompt("rewrite")
	userPrompt := fmt.Sprintf(g.resolveUserPrompt("rewrite"),
		strings.Join(input.Keywords, ", "), input.OriginalResume)

	raw, tokenUsage, err := g.generateJSON(ctx, "rewrite_resume", userPrompt, systemPrompt,
		g.buildRewriteSchema(),
		attribute.Int("input.keywords_count", len(input.Keywords)),
		attribute.Int("input.resume_length", len(input.OriginalResume)),
	)
	if err != nil {
		return types.ResumeContent{}, nil, err
	}

	content, err := types.DecodeResumeContent([]byte(raw))
	if err != nil {
		return types.ResumeContent{}, nil, err
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(attribute.Int("output.summary_length", len(content.UpdatedSummary)))
	}

	return content, tokenUsage, nil
}

// generateJSON runs one generation call with tracing, circuit breaker and
// retry handling, returning the raw JSON text of the response.
func (g *GeminiProvider) generateJSON(
	ctx context.Context,
	operationName string,
	userPrompt string,
	systemPrompt string,
	genaiConfig *genai.GenerateContentConfig,
	spanAttributes ...attribute.KeyValue,
) (string, *TokenUsage, error) {
	tracer := otel.Tracer("resumeforge.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini."+operationName)
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.Float64("ai.temperature", float64(*g.config.Temperature)),
	)
	span.SetAttributes(spanAttributes...)

	if *g.config.UseSystemPrompts && systemPrompt != "" {
		genaiConfig.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	result, err := g.circuitBreaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return g.executeWithRetry(ctx, operationName, func() (*genai.GenerateContentResponse, error) {
			return g.client.Models.GenerateContent(ctx, g.config.Model, genai.Text(userPrompt), genaiConfig)
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return "", nil, forgeErrors.NewAIError(forgeErrors.ErrCodeAIServiceFailed,
			"Failed to generate content for "+operationName, err)
	}

	tokenUsage := extractTokenUsage(result)
	if tokenUsage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", tokenUsage.InputTokens),
			attribute.Int64("ai.tokens.output", tokenUsage.OutputTokens),
			attribute.Int64("ai.tokens.total", tokenUsage.TotalTokens),
		)
	}

	span.SetAttributes(attribute.Bool("success", true))
	return result.Text(), tokenUsage, nil
}

// executeWithRetry executes an AI operation with retry logic and exponential
// backoff. With maxRetries 0 (the default) a failure surfaces immediately.
func (g *GeminiProvider) executeWithRetry(ctx context.Context, operation string, fn func() (*genai.GenerateContentResponse, error)) (*genai.GenerateContentResponse, error) {
	var lastErr error

	for attempt := 0; attempt <= *g.config.MaxRetries; attempt++ {
		if attempt > 0 {
			g.logger.Warn("Retrying AI operation",
				"operation", operation,
				"attempt", attempt,
				"max_retries", *g.config.MaxRetries,
				"error", lastErr.Error())

			// Exponential backoff with jitter to prevent thundering herd
			baseDelay := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			jitterMax := big.NewInt(int64(float64(baseDelay) * 0.1))
			jitterBig, _ := rand.Int(rand.Reader, jitterMax)
			backoff := min(baseDelay+time.Duration(jitterBig.Int64()), 30*time.Second)

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := fn()
		if err == nil {
			if attempt > 0 {
				g.logger.Info("AI operation succeeded after retry",
					"operation", operation,
					"total_attempts", attempt+1)
			}
			return result, nil
		}

		lastErr = err

		if !isRetryableError(err) {
			g.logger.Debug("Error is not retryable, stopping retry attempts",
				"operation", operation,
				"error", err.Error())
			break
		}
	}

	if *g.config.MaxRetries > 0 {
		g.logger.LogError(lastErr, "AI operation failed after all retry attempts",
			"operation", operation,
			"total_attempts", *g.config.MaxRetries+1)
		return nil, fmt.Errorf("operation '%s' failed after %d retries: %w", operation, *g.config.MaxRetries, lastErr)
	}

	return nil, lastErr
}

// isRetryableError reports whether an error should trigger a retry. Auth and
// invalid-request failures are permanent; timeouts and 5xx are not.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}

	return false
}

// buildExtractSchema declares the keyword extraction response shape. All
// five categories are required so empty ones come back as empty lists.
func (g *GeminiProvider) buildExtractSchema() *genai.GenerateContentConfig {
	stringList := func() *genai.Schema {
		return &genai.Schema{
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		}
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"technical_skills":       stringList(),
				"technologies_and_tools": stringList(),
				"soft_skills":            stringList(),
				"certifications":         stringList(),
				"other_requirements":     stringList(),
			},
			Required: []string{
				"technical_skills",
				"technologies_and_tools",
				"soft_skills",
				"certifications",
				"other_requirements",
			},
		},
	}

	if *g.config.Temperature > 0 {
		config.Temperature = g.config.Temperature
	}

	return config
}

// buildRewriteSchema declares the rewrite response shape including the
// per-section character and count limits.
func (g *GeminiProvider) buildRewriteSchema() *genai.GenerateContentConfig {
	bulletList := func(minItems, maxItems int64) *genai.Schema {
		return &genai.Schema{
			Type:     genai.TypeArray,
			MinItems: i64(minItems),
			MaxItems: i64(maxItems),
			Items: &genai.Schema{
				Type:      genai.TypeString,
				MaxLength: i64(types.ExperienceBulletMaxChars),
			},
		}
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"updated_summary": {
					Type:      genai.TypeString,
					MaxLength: i64(types.SummaryMaxChars),
				},
				"liberty_mutual_group":    bulletList(types.ExperienceBulletCount, types.ExperienceBulletCount),
				"inovace_technologies":    bulletList(types.ExperienceBulletCount, types.ExperienceBulletCount),
				"spider_digital_commerce": bulletList(types.InternshipBulletMin, types.InternshipBulletMax),
				"echo_project":            bulletList(types.ProjectBulletCount, types.ProjectBulletCount),
			},
			Required: []string{
				"updated_summary",
				"liberty_mutual_group",
				"inovace_technologies",
				"spider_digital_commerce",
				"echo_project",
			},
		},
	}

	if *g.config.Temperature > 0 {
		config.Temperature = g.config.Temperature
	}

	return config
}

func i64(v int64) *int64 { return &v }

// GetCircuitBreakerStats returns circuit breaker statistics
func (g *GeminiProvider) GetCircuitBreakerStats() map[string]any {
	stats := map[string]any{
		"ai_operations":    g.circuitBreaker.GetStats(),
		"model_operations": g.modelBreaker.GetModelStats(),
	}
	stats["overall_healthy"] = g.circuitBreaker.IsHealthy() && g.modelBreaker.IsModelHealthy()
	return stats
}

// Close implements AIProvider interface
func (g *GeminiProvider) Close() error {
	// Gemini client has no Close in single-shot usage
	return nil
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// extractTokenUsage extracts token usage information from a Gemini response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}

// resolveSystemPrompt returns the system prompt for the operation, preferring
// file-loaded content, then config values, then the hardcoded default.
func (g *GeminiProvider) resolveSystemPrompt(operation string) string {
	loaded := config.GetPromptsForOperation(operation)
	configPrompts := g.config.CustomPrompts.SystemPrompts

	switch operation {
	case "extract":
		return resolvePrompt(
			loaded.SystemPrompts.ExtractKeywords,
			configPrompts.ExtractKeywords,
			DefaultSystemPrompts.ExtractKeywords,
		)
	case "rewrite":
		return resolvePrompt(
			loaded.SystemPrompts.RewriteResume,
			configPrompts.RewriteResume,
			DefaultSystemPrompts.RewriteResume,
		)
	default:
		return ""
	}
}

// resolveUserPrompt returns the user prompt template for the operation with
// the same priority order as resolveSystemPrompt.
func (g *GeminiProvider) resolveUserPrompt(operation string) string {
	loaded := config.GetPromptsForOperation(operation)
	configPrompts := g.config.CustomPrompts.UserPrompts

	switch operation {
	case "extract":
		return resolvePrompt(
			loaded.UserPrompts.ExtractKeywords,
			configPrompts.ExtractKeywords,
			DefaultUserPrompts.ExtractKeywords,
		)
	case "rewrite":
		return resolvePrompt(
			loaded.UserPrompts.RewriteResume,
			configPrompts.RewriteResume,
			DefaultUserPrompts.RewriteResume,
		)
	default:
		return ""
	}
}

// resolvePrompt selects the prompt by priority: file-loaded content first,
// then config values, then the hardcoded default.
func resolvePrompt(loadedFromFile, fromConfig, fromDefault string) string {
	if loadedFromFile != "" {
		return loadedFromFile
	}
	if fromConfig != "" {
		return fromConfig
	}
	return fromDefault
}
