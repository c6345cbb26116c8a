package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"resumeforge/internal/errors"

	"github.com/PuerkitoBio/goquery"
)

// Tags whose text never belongs to a job posting
var clutterTags = []string{
	"script", "style", "noscript", "iframe", "svg",
	"nav", "header", "footer", "aside", "form", "button",
}

var (
	whitespaceRun = regexp.MustCompile(`[ \t]+`)
	blankLineRun  = regexp.MustCompile(`\n{3,}`)
)

// Scraper fetches job postings and extracts their text content
type Scraper struct {
	client *http.Client
	logger *errors.Logger
}

// NewScraper creates a scraper with a sensible request timeout
func NewScraper(logger *errors.Logger) *Scraper {
	return &Scraper{
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

// ScrapeJobPosting fetches the page at rawURL and returns the visible text
// with navigation, header and footer clutter removed.
func (s *Scraper) ScrapeJobPosting(ctx context.Context, rawURL string) (string, error) {
	parsed, err := url.ParseRequestURI(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"Job posting URL must be an absolute http(s) URL", err).WithContext("url", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", errors.NewNetworkError(errors.ErrCodeScrapeFailed,
			"Failed to create scrape request", err)
	}
	req.Header.Set("User-Agent", "resumeforge/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", errors.NewNetworkError(errors.ErrCodeScrapeFailed,
			"Failed to fetch job posting", err).WithContext("url", rawURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.NewNetworkError(errors.ErrCodeScrapeFailed,
			fmt.Sprintf("Job posting returned status %d", resp.StatusCode), nil).WithContext("url", rawURL)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", errors.NewInternalError(errors.ErrCodeScrapeFailed,
			"Failed to parse job posting HTML", err)
	}

	text := ExtractText(doc)
	if text == "" {
		return "", errors.NewNotFoundError(errors.ErrCodeScrapeFailed,
			"Job posting page contains no readable text", nil).WithContext("url", rawURL)
	}

	if s.logger != nil {
		s.logger.Debug("Job posting scraped", "url", rawURL, "text_length", len(text))
	}
	return text, nil
}

// ExtractText pulls the readable text from a parsed document, preferring
// the main content area and stripping clutter tags first.
func ExtractText(doc *goquery.Document) string {
	for _, tag := range clutterTags {
		doc.Find(tag).Remove()
	}

	// Prefer an explicit main content area when the page has one
	content := doc.Find("main, [role='main'], article")
	var text string
	if content.Length() > 0 {
		var parts []string
		content.Each(func(i int, sel *goquery.Selection) {
			if t := strings.TrimSpace(sel.Text()); t != "" {
				parts = append(parts, t)
			}
		})
		text = strings.Join(parts, "\n\n")
	} else {
		text = doc.Find("body").Text()
	}

	return cleanText(text)
}

func cleanText(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(whitespaceRun.ReplaceAllString(line, " "))
	}
	text = strings.Join(lines, "\n")
	text = blankLineRun.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
