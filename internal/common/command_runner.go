package common

import (
	"context"
	"fmt"
	"os"

	"resumeforge/internal/ai"
	"resumeforge/internal/errors"
)

// CreateInputFunc defines how to create the specific AI input from file contents.
type CreateInputFunc[Input any] func(contents []string) (Input, error)

// LogDetailsFunc defines how to log the start of an operation.
type LogDetailsFunc[Input any] func(input Input, cfg CommandConfig)

// AIOperationFunc is a generic function signature for any AI operation with context and token usage.
type AIOperationFunc[Input, Output any] func(context.Context, Input) (Output, *ai.TokenUsage, error)

// RunAICommand encapsulates the common logic for file-based CLI commands with token usage reporting.
func RunAICommand[Input, Output any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	args []string,
	createInput CreateInputFunc[Input],
	aiOperation AIOperationFunc[Input, Output],
	logDetails LogDetailsFunc[Input],
) error {
	fileProcessor := NewFileProcessor(logger, cmdConfig.MaxFileSize)
	outputHandler := NewOutputHandler(logger)

	contents, err := fileProcessor.ValidateAndReadFiles(args...)
	if err != nil {
		return err
	}

	input, err := createInput(contents)
	if err != nil {
		return fmt.Errorf("failed to create input from file contents: %w", err)
	}

	logDetails(input, cmdConfig)

	result, tokenUsage, err := aiOperation(ctx, input)
	if err != nil {
		return err
	}

	reportTokenUsage(logger, tokenUsage)

	return outputHandler.HandleOutput(result, cmdConfig)
}

func reportTokenUsage(logger *errors.Logger, usage *ai.TokenUsage) {
	if usage == nil {
		return
	}
	if logger != nil {
		logger.Info("AI token usage",
			"input_tokens", usage.InputTokens,
			"output_tokens", usage.OutputTokens,
			"total_tokens", usage.TotalTokens)
	} else {
		fmt.Fprintf(os.Stderr, "AI token usage: input=%d, output=%d, total=%d\n",
			usage.InputTokens, usage.OutputTokens, usage.TotalTokens)
	}
}
