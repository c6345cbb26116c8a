package render

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"resumeforge/internal/config"
	"resumeforge/internal/errors"
	"resumeforge/internal/types"
)

func testContent() types.ResumeContent {
	return types.ResumeContent{
		UpdatedSummary:        "Backend engineer focused on Go services.",
		LibertyMutualGroup:    []string{"Built payment services", "Cut deploy time by 40%", "Led incident reviews"},
		InovaceTechnologies:   []string{"Shipped IoT dashboards", "Automated device provisioning", "Reduced query latency"},
		SpiderDigitalCommerce: []string{"Built Android checkout flow"},
		EchoProject:           []string{"Designed voice command parser", "Wrote integration tests"},
	}
}

func TestRenderFillsAllPlaceholders(t *testing.T) {
	r := NewRenderer(config.RenderConfig{}, nil)

	html, err := r.Render(testContent(), DefaultStaticInfo())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	if strings.Contains(html, "${") {
		t.Error("rendered HTML still contains unexpanded placeholders")
	}
	for _, want := range []string{
		"Naimul Islam",
		"Backend engineer focused on Go services.",
		"<li>Built payment services</li>",
		"<li>Designed voice command parser</li>",
		"Oct 2022 – Dec 2024",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered HTML missing %q", want)
		}
	}
}

func TestRenderEmptySectionLeavesEmptyBlock(t *testing.T) {
	r := NewRenderer(config.RenderConfig{}, nil)

	content := testContent()
	content.EchoProject = nil

	html, err := r.Render(content, DefaultStaticInfo())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if strings.Contains(html, "${ECHO_BULLETS}") {
		t.Error("empty section must render as an empty block, not a raw placeholder")
	}
}

func TestRenderFallsBackToStaticSummary(t *testing.T) {
	r := NewRenderer(config.RenderConfig{}, nil)

	content := testContent()
	content.UpdatedSummary = ""
	info := DefaultStaticInfo()
	info.Summary = "Original summary text."

	html, err := r.Render(content, info)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(html, "Original summary text.") {
		t.Error("empty updated summary must fall back to the static summary")
	}
}

func TestRenderUnknownPlaceholderFails(t *testing.T) {
	dir := t.TempDir()
	templatePath := filepath.Join(dir, "template.html")
	if err := os.WriteFile(templatePath, []byte("<p>${NAME}</p><p>${NOT_A_FIELD}</p>"), 0600); err != nil {
		t.Fatalf("failed to write template: %v", err)
	}

	r := NewRenderer(config.RenderConfig{TemplatePath: templatePath}, nil)

	_, err := r.Render(testContent(), DefaultStaticInfo())
	if err == nil {
		t.Fatal("expected render error for unknown placeholder")
	}
	if !errors.IsRender(err) {
		t.Errorf("expected render error type, got %v", errors.TypeOf(err))
	}
}

func TestExtractStaticInfoMarkers(t *testing.T) {
	content := strings.Join([]string{
		"# Jane Developer",
		"## jane@example.com ❖ (555) 123-4567 ❖ Austin, TX ❖ LinkedIn ❖ GitHub",
		"",
		"**Software Developer with 6 years of experience** building distributed systems",
		"and leading small teams.",
		"WORK EXPERIENCE",
		"irrelevant",
	}, "\n")

	info := ExtractStaticInfo(content)

	if info.Name != "Jane Developer" {
		t.Errorf("unexpected name: %q", info.Name)
	}
	if info.Email != "jane@example.com" {
		t.Errorf("unexpected email: %q", info.Email)
	}
	if info.Phone != "(555) 123-4567" {
		t.Errorf("unexpected phone: %q", info.Phone)
	}
	if info.Location != "Austin, TX" {
		t.Errorf("unexpected location: %q", info.Location)
	}
	if !strings.Contains(info.Summary, "distributed systems") {
		t.Errorf("summary not captured: %q", info.Summary)
	}
	// Untouched fields keep their defaults
	if info.LibertyMutualDates != DefaultStaticInfo().LibertyMutualDates {
		t.Error("fields without markers must keep default values")
	}
}

func TestExtractStaticInfoMissingMarkersKeepsDefaults(t *testing.T) {
	info := ExtractStaticInfo("just some text with no structure")
	if info != DefaultStaticInfo() {
		t.Error("content without markers must return all defaults")
	}
}

func TestToPlainText(t *testing.T) {
	html := "<html><body><h1>Title</h1>\n\n\n\n<p>Paragraph &amp; more</p></body></html>"
	text := ToPlainText(html)

	if strings.Contains(text, "<") {
		t.Errorf("tags not stripped: %q", text)
	}
	if strings.Contains(text, "\n\n\n") {
		t.Errorf("blank line runs not collapsed: %q", text)
	}
	if !strings.Contains(text, "Paragraph & more") {
		t.Errorf("entity not decoded: %q", text)
	}
}

func TestToPlainTextDropsStyleBlocks(t *testing.T) {
	html := "<html><head><style>\nbody { color: red; }\n</style></head><body><p>Content</p></body></html>"
	text := ToPlainText(html)

	if strings.Contains(text, "color") {
		t.Errorf("stylesheet text not removed: %q", text)
	}
	if !strings.Contains(text, "Content") {
		t.Errorf("body text lost: %q", text)
	}
}

func TestDiffPlainText(t *testing.T) {
	original := "line one\nline two\nline three"
	updated := "line one\nline 2\nline three"

	diff := DiffPlainText(original, updated)

	if !strings.Contains(diff, "- line two") {
		t.Errorf("removal not marked: %q", diff)
	}
	if !strings.Contains(diff, "+ line 2") {
		t.Errorf("addition not marked: %q", diff)
	}
	if !strings.Contains(diff, "  line one") {
		t.Errorf("unchanged line not kept: %q", diff)
	}
}

func TestSaveHTML(t *testing.T) {
	dir := t.TempDir()
	r := NewRenderer(config.RenderConfig{OutputDir: dir}, nil)

	path, err := r.SaveHTML("<html></html>")
	if err != nil {
		t.Fatalf("SaveHTML failed: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(path), "updated_resume_") {
		t.Errorf("unexpected output filename: %s", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("output file not written: %v", err)
	}
}

func TestRenderPDFRemote(t *testing.T) {
	pdfBytes := []byte("%PDF-1.7 fake")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/render" {
			t.Errorf("unexpected path: %s", req.URL.Path)
		}
		w.Write(pdfBytes)
	}))
	defer server.Close()

	r := NewRenderer(config.RenderConfig{
		RendererURL: server.URL,
		PDFTimeout:  5 * time.Second,
	}, nil)

	pdf, err := r.RenderPDF(context.Background(), "<html></html>")
	if err != nil {
		t.Fatalf("RenderPDF failed: %v", err)
	}
	if string(pdf) != string(pdfBytes) {
		t.Error("unexpected PDF bytes from remote renderer")
	}
}

func TestRenderPDFRemoteFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	r := NewRenderer(config.RenderConfig{
		RendererURL: server.URL,
		PDFTimeout:  5 * time.Second,
	}, nil)

	_, err := r.RenderPDF(context.Background(), "<html></html>")
	if err == nil {
		t.Fatal("expected error from failing renderer")
	}
	if !errors.IsRender(err) {
		t.Errorf("expected render error type, got %v", errors.TypeOf(err))
	}
}

func TestRenderPDFRejectsEmptyHTML(t *testing.T) {
	r := NewRenderer(config.RenderConfig{PDFTimeout: time.Second}, nil)

	if _, err := r.RenderPDF(context.Background(), "  "); err == nil {
		t.Fatal("expected validation error for empty HTML")
	}
}
