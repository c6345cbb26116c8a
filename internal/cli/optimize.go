package cli

import (
	"fmt"
	"strings"

	"resumeforge/internal/common"
	"resumeforge/internal/errors"
	"resumeforge/internal/scraper"
	"resumeforge/internal/store"
	"resumeforge/internal/workflow"

	"github.com/spf13/cobra"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize [job-description-file]",
	Short: "Optimize your resume for a job description end to end",
	Long: `Run the full optimization workflow: extract keywords from a job
description (from a file, a --url, or skip extraction with --keywords),
rewrite the canonical resume content to target them, save the records, and
optionally render the result.

Examples:
  resumeforge optimize job.txt
  resumeforge optimize --url https://example.com/careers/backend-engineer
  resumeforge optimize --keywords "Go, Kubernetes, gRPC" --pdf
  resumeforge optimize job.txt --all-categories --html-out resume.html
  resumeforge optimize job.txt --markdown --diff`,
	Args: cobra.MaximumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if optimizeConfig.OutputFormat == "" {
			optimizeConfig.OutputFormat = cfg.App.DefaultFormat
		}
		optimizeConfig.MaxFileSize = cfg.App.MaxFileSize
		return common.ValidateOutputFormat(optimizeConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runOptimize,
}

var (
	optimizeConfig        common.CommandConfig
	optimizeURL           string
	optimizeKeywords      string
	optimizeAllCategories bool
	optimizePDF           bool
	optimizeMarkdown      bool
	optimizeDiff          bool
	optimizeHTMLOut       string
)

func init() {
	optimizeCmd.Flags().StringVarP(&optimizeConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	optimizeCmd.Flags().StringVar(&optimizeConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	optimizeCmd.Flags().StringVar(&optimizeURL, "url", "", "Scrape the job description from a posting URL instead of a file")
	optimizeCmd.Flags().StringVar(&optimizeKeywords, "keywords", "", "Comma-separated keywords to use instead of extracting them")
	optimizeCmd.Flags().BoolVar(&optimizeAllCategories, "all-categories", false, "Feed all five keyword categories into the rewrite")
	optimizeCmd.Flags().BoolVar(&optimizePDF, "pdf", false, "Render the optimized resume to PDF")
	optimizeCmd.Flags().BoolVar(&optimizeMarkdown, "markdown", false, "Save a plain-text version of the rendered resume")
	optimizeCmd.Flags().BoolVar(&optimizeDiff, "diff", false, "Print a line diff against the original resume")
	optimizeCmd.Flags().StringVar(&optimizeHTMLOut, "html-out", "", "Write the rendered HTML to this path")

	_ = optimizeCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

// resolveOptimizeInput turns the file/url/keywords flags into a workflow request
func resolveOptimizeInput(cmd *cobra.Command, args []string) (workflow.OptimizeRequest, error) {
	req := workflow.OptimizeRequest{
		GenerateHTML:     optimizeHTMLOut != "",
		GeneratePDF:      optimizePDF,
		GenerateMarkdown: optimizeMarkdown,
		GenerateDiff:     optimizeDiff,
	}

	sources := 0
	if len(args) == 1 {
		sources++
	}
	if optimizeURL != "" {
		sources++
	}
	if optimizeKeywords != "" {
		sources++
	}
	if sources == 0 {
		return req, fmt.Errorf("a job description file, --url, or --keywords is required")
	}
	if sources > 1 {
		return req, fmt.Errorf("provide only one of: job description file, --url, --keywords")
	}

	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	switch {
	case len(args) == 1:
		fileProcessor := common.NewFileProcessor(logger, cfg.App.MaxFileSize)
		contents, err := fileProcessor.ValidateAndReadFiles(args[0])
		if err != nil {
			return req, err
		}
		req.JobDescription = contents[0]

	case optimizeURL != "":
		jobScraper := scraper.NewScraper(logger)
		logger.Info("Scraping job posting", "url", optimizeURL)
		jobDescription, err := jobScraper.ScrapeJobPosting(cmd.Context(), optimizeURL)
		if err != nil {
			return req, fmt.Errorf("failed to scrape job posting: %w", err)
		}
		req.JobDescription = jobDescription

	default:
		for kw := range strings.SplitSeq(optimizeKeywords, ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				req.Keywords = append(req.Keywords, kw)
			}
		}
		if len(req.Keywords) == 0 {
			return req, fmt.Errorf("--keywords contained no usable keywords")
		}
		req.KeywordsSource = store.SourceCustom
	}

	return req, nil
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	req, err := resolveOptimizeInput(cmd, args)
	if err != nil {
		return err
	}

	pipeline, err := newPipeline(cfg, logger, optimizeAllCategories)
	if err != nil {
		return err
	}

	logger.Info("Starting resume optimization",
		"job_chars", len(req.JobDescription),
		"custom_keywords", len(req.Keywords),
		"all_categories", optimizeAllCategories)

	result, err := pipeline.Run(cmd.Context(), req)
	if err != nil {
		if result != nil {
			return fmt.Errorf("optimization failed at step %q: %w", result.Step, err)
		}
		return fmt.Errorf("optimization failed: %w", err)
	}

	logOptimizeArtifacts(logger, result)

	if optimizeHTMLOut != "" && result.HTML != "" {
		fileProcessor := common.NewFileProcessor(logger, 0)
		if err := fileProcessor.WriteFile(optimizeHTMLOut, result.HTML); err != nil {
			return err
		}
		logger.Info("Rendered HTML written", "path", optimizeHTMLOut)
	}

	outputHandler := common.NewOutputHandler(logger)
	if err := outputHandler.HandleOutput(*result.Content, optimizeConfig); err != nil {
		return err
	}

	if optimizeDiff && result.Diff != "" {
		fmt.Println(result.Diff)
	}

	logger.Info("Resume optimization completed successfully",
		"flattened_keywords", len(result.FlattenedKeywords))
	return nil
}

func logOptimizeArtifacts(logger *errors.Logger, result *workflow.OptimizeResult) {
	if result.AnalysisRecordPath != "" {
		logger.Info("Analysis record saved", "path", result.AnalysisRecordPath)
	}
	if result.OptimizationRecordPath != "" {
		logger.Info("Optimization record saved", "path", result.OptimizationRecordPath)
	}
	if result.HTMLPath != "" {
		logger.Info("HTML saved", "path", result.HTMLPath)
	}
	if result.PDFPath != "" {
		logger.Info("PDF saved", "path", result.PDFPath)
	}
	if result.MarkdownPath != "" {
		logger.Info("Markdown saved", "path", result.MarkdownPath)
	}
}
