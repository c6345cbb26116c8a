package cli

import (
	"context"
	"fmt"

	"resumeforge/internal/ai"
	"resumeforge/internal/common"
	"resumeforge/internal/errors"
	"resumeforge/internal/scraper"
	"resumeforge/internal/types"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [job-description-file]",
	Short: "Extract the keywords a job description is asking for",
	Long: `Analyze a job description and extract the keywords it is asking for,
grouped into technical skills, technologies and tools, soft skills,
certifications and other requirements.

The job description comes from a file argument or, with --url, is scraped
from a job posting page. Each analysis is saved as a timestamped JSON record
for later use with 'optimize --keywords' or 'records show'.`,
	Args: cobra.MaximumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if analyzeConfig.OutputFormat == "" {
			analyzeConfig.OutputFormat = cfg.App.DefaultFormat
		}
		analyzeConfig.MaxFileSize = cfg.App.MaxFileSize
		return common.ValidateOutputFormat(analyzeConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runAnalyze,
}

var (
	analyzeConfig common.CommandConfig
	analyzeURL    string
)

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	analyzeCmd.Flags().StringVar(&analyzeConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	analyzeCmd.Flags().StringVar(&analyzeURL, "url", "", "Scrape the job description from a posting URL instead of a file")

	_ = analyzeCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	if len(args) == 0 && analyzeURL == "" {
		return fmt.Errorf("a job description file or --url is required")
	}
	if len(args) == 1 && analyzeURL != "" {
		return fmt.Errorf("provide either a job description file or --url, not both")
	}

	pipeline, err := newPipeline(cfg, logger, false)
	if err != nil {
		return err
	}

	analyzeOperation := func(ctx context.Context, input types.ExtractKeywordsInput) (types.JobKeywords, *ai.TokenUsage, error) {
		result, err := pipeline.AnalyzeJob(ctx, input.JobDescription)
		if err != nil {
			return types.JobKeywords{}, nil, err
		}
		if result.RecordPath != "" {
			logger.Info("Analysis record saved", "path", result.RecordPath)
		}
		return result.Keywords, result.Tokens, nil
	}

	if analyzeURL != "" {
		return analyzeFromURL(cmd.Context(), logger, analyzeOperation)
	}

	createInput := func(contents []string) (types.ExtractKeywordsInput, error) {
		if len(contents) != 1 {
			return types.ExtractKeywordsInput{}, fmt.Errorf("expected 1 file path, got %d", len(contents))
		}
		return types.ExtractKeywordsInput{JobDescription: contents[0]}, nil
	}

	logDetails := func(input types.ExtractKeywordsInput, cmdCfg common.CommandConfig) {
		logger.Info("Starting job description analysis",
			"job_chars", len(input.JobDescription),
			"output_format", cmdCfg.OutputFormat)
	}

	err = common.RunAICommand(
		cmd.Context(),
		logger,
		analyzeConfig,
		args,
		createInput,
		analyzeOperation,
		logDetails,
	)
	if err != nil {
		return fmt.Errorf("failed to analyze job description: %w", err)
	}
	logger.Info("Job description analysis completed successfully")
	return nil
}

// analyzeFromURL scrapes the posting first, then runs the same operation as
// the file-based path.
func analyzeFromURL(ctx context.Context, logger *errors.Logger, operation common.AIOperationFunc[types.ExtractKeywordsInput, types.JobKeywords]) error {
	jobScraper := scraper.NewScraper(logger)

	logger.Info("Scraping job posting", "url", analyzeURL)
	jobDescription, err := jobScraper.ScrapeJobPosting(ctx, analyzeURL)
	if err != nil {
		return fmt.Errorf("failed to scrape job posting: %w", err)
	}

	keywords, tokens, err := operation(ctx, types.ExtractKeywordsInput{JobDescription: jobDescription})
	if err != nil {
		return fmt.Errorf("failed to analyze job description: %w", err)
	}

	if tokens != nil {
		logger.Info("AI token usage",
			"input_tokens", tokens.InputTokens,
			"output_tokens", tokens.OutputTokens,
			"total_tokens", tokens.TotalTokens)
	}

	outputHandler := common.NewOutputHandler(logger)
	if err := outputHandler.HandleOutput(keywords, analyzeConfig); err != nil {
		return err
	}
	logger.Info("Job description analysis completed successfully")
	return nil
}
