package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"resumeforge/internal/errors"

	"github.com/PuerkitoBio/goquery"
)

const testPage = `<!DOCTYPE html>
<html>
<head><title>Job</title><script>var x = 1;</script></head>
<body>
<header>Site Header</header>
<nav>Home | Jobs | About</nav>
<main>
  <h1>Backend Engineer</h1>
  <p>We are   looking for a Go developer.</p>


  <p>5+ years of experience required.</p>
</main>
<footer>Copyright 2025</footer>
</body>
</html>`

func TestExtractTextDropsClutter(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(testPage))
	if err != nil {
		t.Fatalf("failed to parse test page: %v", err)
	}

	text := ExtractText(doc)

	for _, clutter := range []string{"Site Header", "Home | Jobs", "Copyright 2025", "var x"} {
		if strings.Contains(text, clutter) {
			t.Errorf("clutter %q not removed from %q", clutter, text)
		}
	}
	if !strings.Contains(text, "Backend Engineer") {
		t.Errorf("main content missing from %q", text)
	}
	if strings.Contains(text, "We are   looking") {
		t.Errorf("whitespace runs not collapsed in %q", text)
	}
}

func TestScrapeJobPosting(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(testPage))
	}))
	defer server.Close()

	s := NewScraper(nil)
	text, err := s.ScrapeJobPosting(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("ScrapeJobPosting failed: %v", err)
	}
	if !strings.Contains(text, "Go developer") {
		t.Errorf("scraped text missing job content: %q", text)
	}
}

func TestScrapeJobPostingBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		http.NotFound(w, req)
	}))
	defer server.Close()

	s := NewScraper(nil)
	if _, err := s.ScrapeJobPosting(context.Background(), server.URL); err == nil {
		t.Fatal("expected error for 404 response")
	}
}

func TestScrapeJobPostingInvalidURL(t *testing.T) {
	s := NewScraper(nil)

	for _, u := range []string{"", "not-a-url", "ftp://example.com/job"} {
		_, err := s.ScrapeJobPosting(context.Background(), u)
		if err == nil {
			t.Errorf("expected error for URL %q", u)
			continue
		}
		if !errors.IsValidation(err) {
			t.Errorf("expected validation error for %q, got %v", u, errors.TypeOf(err))
		}
	}
}
