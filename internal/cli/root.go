package cli

import (
	"context"

	"resumeforge/internal/config"
	"resumeforge/internal/errors"

	"github.com/spf13/cobra"
)

// Private context key types so values cannot collide with other packages.
type configKeyType struct{}
type loggerKeyType struct{}

var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

var rootCmd = &cobra.Command{
	Use:   "resumeforge",
	Short: "A CLI tool for optimizing resumes against job descriptions using AI",
	Long: `Resumeforge extracts the keywords a job posting is really asking for and
rewrites your resume content to target them. Every analysis and optimization is
saved as a timestamped JSON record, and optimized resumes can be rendered to
HTML and PDF.`,
}

func Execute(ctx context.Context, cfg *config.Config, logger *errors.Logger) error {
	// Attach the config and logger to the context, making them available to all subcommands
	ctx = context.WithValue(ctx, configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	panic("config not found in context") // Should not happen if properly initialized
}

func getLoggerFromContext(ctx context.Context) *errors.Logger {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger
	}
	panic("logger not found in context") // Should not happen if properly initialized
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(optimizeCmd)
	rootCmd.AddCommand(recordsCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
