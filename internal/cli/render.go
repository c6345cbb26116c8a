package cli

import (
	"fmt"
	"os"
	"strings"

	"resumeforge/internal/render"
	"resumeforge/internal/store"

	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render <optimization-record-filename>",
	Short: "Re-render a saved optimization record to HTML (and optionally PDF)",
	Long: `Render the optimized resume content from a saved resume_optimization
record into the HTML template. Static contact details come from the canonical
resume when available, falling back to the template defaults.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

var (
	renderPDF      bool
	renderMarkdown bool
	renderDiff     bool
)

func init() {
	renderCmd.Flags().BoolVar(&renderPDF, "pdf", false, "Also render the result to PDF")
	renderCmd.Flags().BoolVar(&renderMarkdown, "markdown", false, "Also save a plain-text version of the result")
	renderCmd.Flags().BoolVar(&renderDiff, "diff", false, "Print a line diff against the canonical resume")
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	recordStore := store.NewStore(cfg.Store.OutputsDir, logger)
	record, err := recordStore.LoadResumeOptimization(args[0])
	if err != nil {
		return err
	}

	info := render.DefaultStaticInfo()
	originalText := ""
	if cfg.Resume.CanonicalPath != "" {
		if data, readErr := os.ReadFile(cfg.Resume.CanonicalPath); readErr == nil {
			info = render.ExtractStaticInfo(string(data))
			originalText = string(data)
		} else {
			logger.Warn("Canonical resume not readable, using default static info",
				"path", cfg.Resume.CanonicalPath, "error", readErr)
		}
	}
	if renderDiff && originalText == "" {
		return fmt.Errorf("--diff requires a readable canonical resume (resume.canonicalPath)")
	}

	renderer := render.NewRenderer(cfg.Render, logger)
	html, err := renderer.Render(record.Output.OptimizationResult, info)
	if err != nil {
		return err
	}

	htmlPath, err := renderer.SaveHTML(html)
	if err != nil {
		return err
	}
	fmt.Printf("HTML saved to %s\n", htmlPath)

	if renderPDF {
		pdfPath, err := renderer.SavePDF(cmd.Context(), html)
		if err != nil {
			return err
		}
		fmt.Printf("PDF saved to %s\n", pdfPath)
	}

	if renderMarkdown || renderDiff {
		text := render.ToPlainText(html)
		if renderMarkdown {
			mdPath, err := renderer.SaveMarkdown(text)
			if err != nil {
				return err
			}
			fmt.Printf("Markdown saved to %s\n", mdPath)
		}
		if renderDiff {
			fmt.Println(render.DiffPlainText(strings.TrimSpace(originalText), text))
		}
	}

	return nil
}
