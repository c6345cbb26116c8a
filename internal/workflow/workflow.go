package workflow

import (
	"context"
	"fmt"
	"os"
	"strings"

	"resumeforge/internal/ai"
	"resumeforge/internal/errors"
	"resumeforge/internal/render"
	"resumeforge/internal/store"
	"resumeforge/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Step identifies a stage of the optimization pipeline
type Step string

const (
	StepAnalyzing  Step = "analyzing"
	StepFlattening Step = "flattening"
	StepRewriting  Step = "rewriting"
	StepPersisting Step = "persisting"
	StepRendering  Step = "rendering"
	StepDone       Step = "done"
)

// Options configures pipeline behavior that is independent of a single run
type Options struct {
	FlattenMode     types.FlattenMode
	CanonicalResume string
	PersistAnalysis bool
	PersistRewrite  bool
}

// Pipeline wires keyword extraction, resume rewriting, persistence and
// rendering into one linear flow.
type Pipeline struct {
	extract  ai.AIProvider
	rewrite  ai.AIProvider
	store    *store.Store
	renderer *render.Renderer
	opts     Options
	logger   *errors.Logger
}

// NewPipeline creates a pipeline from its stage implementations
func NewPipeline(extract, rewrite ai.AIProvider, recordStore *store.Store, renderer *render.Renderer, opts Options, logger *errors.Logger) *Pipeline {
	if opts.FlattenMode == "" {
		opts.FlattenMode = types.FlattenCore
	}
	return &Pipeline{
		extract:  extract,
		rewrite:  rewrite,
		store:    recordStore,
		renderer: renderer,
		opts:     opts,
		logger:   logger,
	}
}

// AnalysisResult is the outcome of a standalone job analysis
type AnalysisResult struct {
	Keywords   types.JobKeywords
	RecordPath string
	Tokens     *ai.TokenUsage
}

// AnalyzeJob extracts keywords from a job description and persists the
// analysis record. A failed save is reported but does not fail the analysis.
func (p *Pipeline) AnalyzeJob(ctx context.Context, jobDescription string) (*AnalysisResult, error) {
	tracer := otel.Tracer("resumeforge.workflow")
	ctx, span := tracer.Start(ctx, "workflow.analyze_job")
	defer span.End()

	keywords, tokens, err := p.extract.ExtractKeywords(ctx, types.ExtractKeywordsInput{
		JobDescription: jobDescription,
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("keywords.total", keywords.TotalKeywords()))

	result := &AnalysisResult{Keywords: keywords, Tokens: tokens}

	if p.opts.PersistAnalysis && p.store != nil {
		path, _, saveErr := p.store.SaveJobAnalysis(jobDescription, keywords)
		if saveErr != nil {
			p.logger.LogError(saveErr, "Analysis completed but record could not be saved")
		} else {
			result.RecordPath = path
		}
	}

	return result, nil
}

// OptimizeRequest describes one optimization run. When JobDescription is
// set, keywords are extracted from it first; otherwise Keywords are used
// directly. An empty OriginalResume falls back to the canonical resume file.
type OptimizeRequest struct {
	JobDescription   string
	Keywords         []string
	KeywordsSource   string
	OriginalResume   string
	GenerateHTML     bool
	GeneratePDF      bool
	GenerateMarkdown bool
	GenerateDiff     bool
}

// OptimizeResult carries everything the pipeline produced. On failure the
// fields populated before the failing step are still set, and Step names
// the step that failed.
type OptimizeResult struct {
	Step                   Step
	Keywords               *types.JobKeywords
	FlattenedKeywords      []string
	Content                *types.ResumeContent
	AnalysisRecordPath     string
	OptimizationRecordPath string
	HTML                   string
	HTMLPath               string
	PDFPath                string
	MarkdownPath           string
	Diff                   string
	ExtractTokens          *ai.TokenUsage
	RewriteTokens          *ai.TokenUsage
}

func (p *Pipeline) fail(result *OptimizeResult, step Step, err error) (*OptimizeResult, error) {
	result.Step = step
	p.logger.LogError(err, "Pipeline step failed", "step", string(step))
	if appErr, ok := err.(*errors.AppError); ok {
		return result, appErr.WithContext("step", string(step))
	}
	return result, fmt.Errorf("step %s: %w", step, err)
}

// Run executes the pipeline: analyze (when a job description is given),
// flatten, rewrite, persist, render. Steps after a failure are skipped.
func (p *Pipeline) Run(ctx context.Context, req OptimizeRequest) (*OptimizeResult, error) {
	tracer := otel.Tracer("resumeforge.workflow")
	ctx, span := tracer.Start(ctx, "workflow.optimize")
	defer span.End()

	result := &OptimizeResult{}
	keywords := req.Keywords
	source := req.KeywordsSource

	// Analyzing
	if strings.TrimSpace(req.JobDescription) != "" {
		analysis, err := p.AnalyzeJob(ctx, req.JobDescription)
		if err != nil {
			return p.fail(result, StepAnalyzing, err)
		}
		result.Keywords = &analysis.Keywords
		result.AnalysisRecordPath = analysis.RecordPath
		result.ExtractTokens = analysis.Tokens

		// Flattening
		keywords = analysis.Keywords.Flatten(p.opts.FlattenMode)
		result.FlattenedKeywords = keywords
		if source == "" {
			source = store.SourceStreamlinedWorkflow
		}
	} else {
		result.FlattenedKeywords = keywords
		if source == "" {
			source = store.SourceCustom
		}
	}

	// Rewriting
	originalResume := req.OriginalResume
	if originalResume == "" {
		data, err := os.ReadFile(p.opts.CanonicalResume)
		if err != nil {
			return p.fail(result, StepRewriting, errors.NewIOError(errors.ErrCodeFileNotReadable,
				"Failed to read canonical resume", err).WithContext("path", p.opts.CanonicalResume))
		}
		originalResume = string(data)
	}

	content, rewriteTokens, err := p.rewrite.RewriteResume(ctx, types.RewriteResumeInput{
		Keywords:       keywords,
		OriginalResume: originalResume,
	})
	if err != nil {
		return p.fail(result, StepRewriting, err)
	}
	result.Content = &content
	result.RewriteTokens = rewriteTokens

	// Persisting
	if p.opts.PersistRewrite && p.store != nil {
		path, _, err := p.store.SaveResumeOptimization(keywords, originalResume, content, source)
		if err != nil {
			return p.fail(result, StepPersisting, err)
		}
		result.OptimizationRecordPath = path
	}

	// Rendering
	if req.GenerateHTML || req.GeneratePDF || req.GenerateMarkdown || req.GenerateDiff {
		info := render.ExtractStaticInfo(originalResume)
		html, err := p.renderer.Render(content, info)
		if err != nil {
			return p.fail(result, StepRendering, err)
		}
		result.HTML = html

		if req.GenerateHTML {
			path, err := p.renderer.SaveHTML(html)
			if err != nil {
				return p.fail(result, StepRendering, err)
			}
			result.HTMLPath = path
		}
		if req.GeneratePDF {
			path, err := p.renderer.SavePDF(ctx, html)
			if err != nil {
				return p.fail(result, StepRendering, err)
			}
			result.PDFPath = path
		}
		if req.GenerateMarkdown || req.GenerateDiff {
			text := render.ToPlainText(html)
			if req.GenerateMarkdown {
				path, err := p.renderer.SaveMarkdown(text)
				if err != nil {
					return p.fail(result, StepRendering, err)
				}
				result.MarkdownPath = path
			}
			if req.GenerateDiff {
				result.Diff = render.DiffPlainText(strings.TrimSpace(originalResume), text)
			}
		}
	}

	result.Step = StepDone
	span.SetAttributes(attribute.Bool("success", true))
	return result, nil
}
