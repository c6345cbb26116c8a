package cli

import (
	"fmt"

	"resumeforge/internal/ai"
	"resumeforge/internal/config"
	"resumeforge/internal/errors"
	"resumeforge/internal/render"
	"resumeforge/internal/store"
	"resumeforge/internal/types"
	"resumeforge/internal/workflow"
)

// newPipeline builds the optimization pipeline from the application config.
// allCategories widens keyword flattening to all five categories.
func newPipeline(cfg *config.Config, logger *errors.Logger, allCategories bool) (*workflow.Pipeline, error) {
	extractCfg := cfg.GetExtractConfig()
	extractService, err := ai.NewService(&extractCfg, "extract", logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create extract AI service: %w", err)
	}

	rewriteCfg := cfg.GetRewriteConfig()
	rewriteService, err := ai.NewService(&rewriteCfg, "rewrite", logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create rewrite AI service: %w", err)
	}

	mode := types.FlattenMode(cfg.App.KeywordFlattenMode)
	if allCategories {
		mode = types.FlattenAll
	}

	opts := workflow.Options{
		FlattenMode:     mode,
		CanonicalResume: cfg.Resume.CanonicalPath,
		PersistAnalysis: true,
		PersistRewrite:  true,
	}

	recordStore := store.NewStore(cfg.Store.OutputsDir, logger)
	renderer := render.NewRenderer(cfg.Render, logger)

	return workflow.NewPipeline(extractService.Provider, rewriteService.Provider,
		recordStore, renderer, opts, logger), nil
}
