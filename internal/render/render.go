package render

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"resumeforge/internal/config"
	"resumeforge/internal/errors"
	"resumeforge/internal/types"
)

//go:embed resume_template.html
var embeddedTemplate string

// Renderer turns optimized resume content into HTML, plain text and PDF
type Renderer struct {
	config config.RenderConfig
	logger *errors.Logger
	now    func() time.Time
}

// NewRenderer creates a renderer from configuration
func NewRenderer(cfg config.RenderConfig, logger *errors.Logger) *Renderer {
	return &Renderer{
		config: cfg,
		logger: logger,
		now:    time.Now,
	}
}

// loadTemplate returns the HTML template, preferring a configured override
// file over the embedded default.
func (r *Renderer) loadTemplate() (string, error) {
	if r.config.TemplatePath == "" {
		return embeddedTemplate, nil
	}

	data, err := os.ReadFile(r.config.TemplatePath)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			"Failed to read template file", err).WithContext("path", r.config.TemplatePath)
	}
	return string(data), nil
}

// formatBulletsHTML renders a bullet list as <li> items. An empty list
// produces an empty string, leaving an empty <ul> block in the output.
func formatBulletsHTML(bullets []string) string {
	if len(bullets) == 0 {
		return ""
	}

	items := make([]string, len(bullets))
	for i, bullet := range bullets {
		items[i] = "<li>" + bullet + "</li>"
	}
	return strings.Join(items, "\n")
}

// Render fills the resume template with optimized content and static info.
// Every ${PLACEHOLDER} in the template must have a value; an unknown
// placeholder is a render error, not silently dropped.
func (r *Renderer) Render(content types.ResumeContent, info StaticInfo) (string, error) {
	template, err := r.loadTemplate()
	if err != nil {
		return "", err
	}

	summary := content.UpdatedSummary
	if summary == "" {
		summary = info.Summary
	}

	values := map[string]string{
		"NAME":         info.Name,
		"EMAIL":        info.Email,
		"PHONE":        info.Phone,
		"LOCATION":     info.Location,
		"LINKEDIN_URL": info.LinkedInURL,
		"GITHUB_URL":   info.GitHubURL,
		"SUMMARY_TEXT": summary,

		"LIBERTY_MUTUAL_DATES":      info.LibertyMutualDates,
		"LIBERTY_MUTUAL_LOCATION":   info.LibertyMutualLocation,
		"LIBERTY_MUTUAL_BULLETS":    formatBulletsHTML(content.LibertyMutualGroup),
		"LIBERTY_MUTUAL_TECH_STACK": info.LibertyMutualTechStack,

		"INOVACE_DATES":      info.InovaceDates,
		"INOVACE_LOCATION":   info.InovaceLocation,
		"INOVACE_BULLETS":    formatBulletsHTML(content.InovaceTechnologies),
		"INOVACE_TECH_STACK": info.InovaceTechStack,

		"SPIDER_DATES":      info.SpiderDates,
		"SPIDER_LOCATION":   info.SpiderLocation,
		"SPIDER_BULLETS":    formatBulletsHTML(content.SpiderDigitalCommerce),
		"SPIDER_TECH_STACK": info.SpiderTechStack,

		"ECHO_BULLETS": formatBulletsHTML(content.EchoProject),

		"GSU_DATES":    info.GSUDates,
		"GSU_LOCATION": info.GSULocation,
		"NSU_DATES":    info.NSUDates,
		"NSU_LOCATION": info.NSULocation,

		"SKILLS_LANGUAGES":  info.SkillsLanguages,
		"SKILLS_FRAMEWORKS": info.SkillsFrameworks,
		"SKILLS_DATABASES":  info.SkillsDatabases,
	}

	var missing []string
	rendered := os.Expand(template, func(name string) string {
		value, ok := values[name]
		if !ok {
			missing = append(missing, name)
			return ""
		}
		return value
	})

	if len(missing) > 0 {
		return "", errors.NewRenderError(errors.ErrCodeTemplateMissing,
			fmt.Sprintf("Template references unknown placeholders: %s", strings.Join(missing, ", ")), nil)
	}

	return rendered, nil
}

var (
	styleBlockPattern = regexp.MustCompile(`(?s)<style[^>]*>.*?</style>`)
	htmlTagPattern    = regexp.MustCompile(`<[^>]+>`)
	blankRunPattern   = regexp.MustCompile(`\n\s*\n\s*\n`)
	htmlEntityReplace = strings.NewReplacer(
		"&#10070;", "❖",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&nbsp;", " ",
	)
)

// ToPlainText strips HTML tags and collapses runs of three or more blank
// lines, producing a text version suitable for diffing and markdown output.
func ToPlainText(html string) string {
	text := styleBlockPattern.ReplaceAllString(html, "")
	text = htmlTagPattern.ReplaceAllString(text, "")
	text = htmlEntityReplace.Replace(text)
	for blankRunPattern.MatchString(text) {
		text = blankRunPattern.ReplaceAllString(text, "\n\n")
	}
	return strings.TrimSpace(text)
}

// DiffPlainText produces a line diff between the original and updated
// resume text. Unchanged lines are prefixed with two spaces, removals with
// "- " and additions with "+ ".
func DiffPlainText(original, updated string) string {
	a := strings.Split(original, "\n")
	b := strings.Split(updated, "\n")

	// LCS table over lines; resumes are small so the quadratic cost is fine
	lcs := make([][]int, len(a)+1)
	for i := range lcs {
		lcs[i] = make([]int, len(b)+1)
	}
	for i := len(a) - 1; i >= 0; i-- {
		for j := len(b) - 1; j >= 0; j-- {
			if a[i] == b[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else {
				lcs[i][j] = max(lcs[i+1][j], lcs[i][j+1])
			}
		}
	}

	var out strings.Builder
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out.WriteString("  " + a[i] + "\n")
			i++
			j++
		case lcs[i+1][j] >= lcs[i][j+1]:
			out.WriteString("- " + a[i] + "\n")
			i++
		default:
			out.WriteString("+ " + b[j] + "\n")
			j++
		}
	}
	for ; i < len(a); i++ {
		out.WriteString("- " + a[i] + "\n")
	}
	for ; j < len(b); j++ {
		out.WriteString("+ " + b[j] + "\n")
	}

	return strings.TrimRight(out.String(), "\n")
}

// SaveHTML writes rendered HTML to the configured output directory with a
// timestamped filename and returns the full path.
func (r *Renderer) SaveHTML(html string) (string, error) {
	filename := fmt.Sprintf("updated_resume_%s.html", r.now().Format("20060102_150405"))
	return r.saveOutput(filename, []byte(html))
}

// SaveMarkdown writes the plain text version to the configured output
// directory with a timestamped filename and returns the full path.
func (r *Renderer) SaveMarkdown(text string) (string, error) {
	filename := fmt.Sprintf("updated_resume_%s.md", r.now().Format("20060102_150405"))
	return r.saveOutput(filename, []byte(text))
}

func (r *Renderer) saveOutput(filename string, data []byte) (string, error) {
	if err := os.MkdirAll(r.config.OutputDir, 0750); err != nil {
		return "", errors.NewIOError(errors.ErrCodeRecordSaveFailed,
			"Failed to create output directory", err).WithContext("dir", r.config.OutputDir)
	}

	path := filepath.Join(r.config.OutputDir, filename)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", errors.NewIOError(errors.ErrCodeRecordSaveFailed,
			"Failed to write output file", err).WithContext("path", path)
	}

	if r.logger != nil {
		r.logger.Debug("Output saved", "path", path)
	}
	return path, nil
}
