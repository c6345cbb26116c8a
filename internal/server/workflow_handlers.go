package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strings"
	"time"

	"resumeforge/internal/ai"
	forgeErrors "resumeforge/internal/errors"
	"resumeforge/internal/observability"
	"resumeforge/internal/store"
	"resumeforge/internal/types"
	"resumeforge/internal/workflow"

	"go.opentelemetry.io/otel/attribute"
)

// newPipeline builds a workflow pipeline with fresh AI services for one
// request. allCategories widens keyword flattening to all five categories.
func (s *Server) newPipeline(allCategories bool) (*workflow.Pipeline, error) {
	extractCfg := s.AppConfig.GetExtractConfig()
	extractService, err := ai.NewService(&extractCfg, "extract", s.Logger)
	if err != nil {
		return nil, err
	}

	rewriteCfg := s.AppConfig.GetRewriteConfig()
	rewriteService, err := ai.NewService(&rewriteCfg, "rewrite", s.Logger)
	if err != nil {
		return nil, err
	}

	mode := types.FlattenMode(s.AppConfig.App.KeywordFlattenMode)
	if allCategories {
		mode = types.FlattenAll
	}

	opts := workflow.Options{
		FlattenMode:     mode,
		CanonicalResume: s.AppConfig.Resume.CanonicalPath,
		PersistAnalysis: true,
		PersistRewrite:  true,
	}

	return workflow.NewPipeline(extractService.Provider, rewriteService.Provider,
		s.recordStore, s.renderer, opts, s.Logger), nil
}

// resolveJobDescription returns the inline job description, or scrapes it
// when a URL was provided instead.
func (s *Server) resolveJobDescription(ctx context.Context, om *observability.Manager, jobDescription, url string) (string, error) {
	if strings.TrimSpace(jobDescription) != "" {
		return jobDescription, nil
	}
	if strings.TrimSpace(url) == "" {
		return "", nil
	}

	text, err := s.jobScraper.ScrapeJobPosting(ctx, url)
	om.GetMetrics().RecordBusinessMetric(ctx, "job_scraped", err == nil,
		attribute.String("url", url))
	return text, err
}

// createAnalyzeHandler wraps keyword extraction with observability
func (s *Server) createAnalyzeHandler(om *observability.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("resumeforge.api")
		ctx, span := tracer.Start(ctx, "api.analyze")
		defer span.End()

		var req AnalyzeRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		jobDescription, err := s.resolveJobDescription(ctx, om, req.JobDescription, req.URL)
		if err != nil {
			span.RecordError(err)
			writeAppError(w, err, s.Logger)
			return
		}
		if strings.TrimSpace(jobDescription) == "" {
			writeErrorResponse(w, "Missing job description", "jobDescription or url field is required", http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.Int("request.job_length", len(jobDescription)),
			attribute.String("operation", "analyze"),
		)

		pipeline, err := s.newPipeline(false)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "service_creation"))
			writeAppError(w, err, s.Logger)
			return
		}

		metrics := om.GetMetrics()
		var result *workflow.AnalysisResult
		err = metrics.TrackAIOperation(ctx, "extract_keywords", func(ctx context.Context) *observability.AIOperationResult {
			analysis, aiErr := pipeline.AnalyzeJob(ctx, jobDescription)
			result = analysis
			opResult := &observability.AIOperationResult{Error: aiErr}
			if analysis != nil {
				opResult.TokenUsage = (*observability.TokenUsage)(analysis.Tokens)
			}
			return opResult
		})

		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "ai_processing"))
			metrics.RecordBusinessMetric(ctx, "job_analyzed", false)
			writeAppError(w, err, s.Logger)
			return
		}

		metrics.RecordBusinessMetric(ctx, "job_analyzed", true,
			attribute.Int("keywords.total", result.Keywords.TotalKeywords()))
		if result.RecordPath != "" {
			metrics.RecordBusinessMetric(ctx, "record_saved", true,
				attribute.String("kind", store.KindJobAnalysis))
		}

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("keywords.total", result.Keywords.TotalKeywords()),
		)

		writeJSON(w, map[string]any{
			"keywords":       result.Keywords,
			"total_keywords": result.Keywords.TotalKeywords(),
			"record_path":    result.RecordPath,
		}, s.Logger)
	}
}

// createOptimizeHandler runs the end-to-end optimization workflow
func (s *Server) createOptimizeHandler(om *observability.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("resumeforge.api")
		ctx, span := tracer.Start(ctx, "api.optimize")
		defer span.End()

		var req OptimizeRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		jobDescription, err := s.resolveJobDescription(ctx, om, req.JobDescription, req.URL)
		if err != nil {
			span.RecordError(err)
			writeAppError(w, err, s.Logger)
			return
		}
		if strings.TrimSpace(jobDescription) == "" && len(req.Keywords) == 0 {
			writeErrorResponse(w, "Missing input", "jobDescription, url or keywords is required", http.StatusBadRequest)
			return
		}

		originalResume := req.OriginalResume
		if strings.TrimSpace(originalResume) == "" {
			originalResume, _ = s.resume.get()
		}

		span.SetAttributes(
			attribute.Int("request.job_length", len(jobDescription)),
			attribute.Int("request.keyword_count", len(req.Keywords)),
			attribute.String("operation", "optimize"),
		)

		pipeline, err := s.newPipeline(req.AllCategories)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "service_creation"))
			writeAppError(w, err, s.Logger)
			return
		}

		metrics := om.GetMetrics()
		var result *workflow.OptimizeResult
		err = metrics.TrackAIOperation(ctx, "optimize", func(ctx context.Context) *observability.AIOperationResult {
			runResult, runErr := pipeline.Run(ctx, workflow.OptimizeRequest{
				JobDescription:   jobDescription,
				Keywords:         req.Keywords,
				OriginalResume:   originalResume,
				GenerateHTML:     req.GenerateHTML,
				GeneratePDF:      req.GeneratePDF,
				GenerateMarkdown: req.GenerateMarkdown,
				GenerateDiff:     req.GenerateDiff,
			})
			result = runResult
			opResult := &observability.AIOperationResult{Error: runErr}
			if runResult != nil {
				opResult.TokenUsage = combineTokenUsage(runResult.ExtractTokens, runResult.RewriteTokens)
			}
			return opResult
		})

		if err != nil {
			span.RecordError(err)
			metrics.RecordBusinessMetric(ctx, "resume_optimized", false)
			s.writeOptimizeError(w, err, result)
			return
		}

		metrics.RecordBusinessMetric(ctx, "resume_optimized", true,
			attribute.Int("keywords.flattened", len(result.FlattenedKeywords)))
		if result.OptimizationRecordPath != "" {
			metrics.RecordBusinessMetric(ctx, "record_saved", true,
				attribute.String("kind", store.KindResumeOptimization))
		}

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("keywords.flattened", len(result.FlattenedKeywords)),
		)

		writeJSON(w, optimizeResponse(result), s.Logger)
	}
}

// writeOptimizeError includes the failing pipeline step in the response
func (s *Server) writeOptimizeError(w http.ResponseWriter, err error, result *workflow.OptimizeResult) {
	step := ""
	if result != nil {
		step = string(result.Step)
	}

	var appErr *forgeErrors.AppError
	if stderrors.As(err, &appErr) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusForError(err))
		response := ErrorResponse{Error: appErr.Code, Message: appErr.Message, Step: step}
		if encErr := json.NewEncoder(w).Encode(response); encErr != nil {
			s.Logger.LogError(encErr, "Failed to encode error response")
		}
		return
	}
	writeErrorResponse(w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
}

func optimizeResponse(result *workflow.OptimizeResult) map[string]any {
	response := map[string]any{
		"step":               string(result.Step),
		"flattened_keywords": result.FlattenedKeywords,
	}
	if result.Keywords != nil {
		response["keywords"] = result.Keywords
	}
	if result.Content != nil {
		response["content"] = result.Content
	}
	if result.AnalysisRecordPath != "" {
		response["analysis_record_path"] = result.AnalysisRecordPath
	}
	if result.OptimizationRecordPath != "" {
		response["optimization_record_path"] = result.OptimizationRecordPath
	}
	if result.HTML != "" {
		response["html"] = result.HTML
	}
	if result.HTMLPath != "" {
		response["html_path"] = result.HTMLPath
	}
	if result.PDFPath != "" {
		response["pdf_path"] = result.PDFPath
	}
	if result.MarkdownPath != "" {
		response["markdown_path"] = result.MarkdownPath
	}
	if result.Diff != "" {
		response["diff"] = result.Diff
	}
	return response
}

func combineTokenUsage(usages ...*ai.TokenUsage) *observability.TokenUsage {
	var combined *observability.TokenUsage
	for _, u := range usages {
		if u == nil {
			continue
		}
		if combined == nil {
			combined = &observability.TokenUsage{}
		}
		combined.InputTokens += u.InputTokens
		combined.OutputTokens += u.OutputTokens
		combined.TotalTokens += u.TotalTokens
	}
	return combined
}

// createRenderHandler converts submitted HTML into a PDF document
func (s *Server) createRenderHandler(om *observability.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("resumeforge.api")
		ctx, span := tracer.Start(ctx, "api.render")
		defer span.End()

		var req RenderRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.HTML) == "" {
			writeErrorResponse(w, "Missing HTML", "html field is required", http.StatusBadRequest)
			return
		}

		start := time.Now()
		pdf, err := s.renderer.RenderPDF(ctx, req.HTML)
		om.GetMetrics().RecordRenderDuration(ctx, "pdf", time.Since(start).Seconds(), err == nil)

		if err != nil {
			span.RecordError(err)
			writeAppError(w, err, s.Logger)
			return
		}

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("pdf.size_bytes", len(pdf)),
		)

		w.Header().Set("Content-Type", "application/pdf")
		if _, err := w.Write(pdf); err != nil {
			s.Logger.LogError(err, "Failed to write PDF response")
		}
	}
}

// createRateLimitMiddleware adds observability to rate limiting
func (s *Server) createRateLimitMiddleware(om *observability.Manager) func(http.HandlerFunc) http.HandlerFunc {
	originalMiddleware := s.rateLimitMiddleware()

	return func(next http.HandlerFunc) http.HandlerFunc {
		return originalMiddleware(func(w http.ResponseWriter, r *http.Request) {
			wrapper := &responseWrapper{ResponseWriter: w, statusCode: 200}

			next(wrapper, r)

			if wrapper.statusCode == http.StatusTooManyRequests {
				om.GetMetrics().RecordBusinessMetric(r.Context(), "rate_limit_hit", true,
					attribute.String("endpoint", r.URL.Path),
					attribute.String("method", r.Method))
			}
		})
	}
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
