package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"resumeforge/internal/config"
	forgeErrors "resumeforge/internal/errors"
	"resumeforge/internal/observability"
	"resumeforge/internal/store"
	"resumeforge/internal/types"
	"resumeforge/internal/workflow"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	cfg := &config.Config{}
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = "8080"
	cfg.Store.OutputsDir = t.TempDir()
	cfg.App.MaxFileSize = 1 << 20
	cfg.Observability.HealthCheck.Timeout = time.Second

	return NewServer(cfg, "test", forgeErrors.NewLogger(slog.LevelError))
}

func disabledObservability(t *testing.T) *observability.Manager {
	t.Helper()
	om, err := observability.NewManager(config.ObservabilityConfig{Enabled: false}, "test")
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return om
}

func TestAuthMiddlewareNoKeysConfigured(t *testing.T) {
	s := testServer(t)

	called := false
	handler := s.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/records", nil))

	if !called {
		t.Error("handler should be called when no API keys are configured")
	}
}

func TestAuthMiddlewareRejectsMissingAndInvalidKeys(t *testing.T) {
	s := testServer(t)
	s.APIKeys = map[string]bool{"secret-key-12345": true}

	handler := s.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Missing key
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/records", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for missing key, got %d", rec.Code)
	}

	// Invalid key
	req := httptest.NewRequest(http.MethodGet, "/records", nil)
	req.Header.Set("X-API-Key", "wrong")
	rec = httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for invalid key, got %d", rec.Code)
	}

	// Valid key via header
	req = httptest.NewRequest(http.MethodGet, "/records", nil)
	req.Header.Set("X-API-Key", "secret-key-12345")
	rec = httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for valid key, got %d", rec.Code)
	}

	// Valid key via bearer token
	req = httptest.NewRequest(http.MethodGet, "/records", nil)
	req.Header.Set("Authorization", "Bearer secret-key-12345")
	rec = httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for bearer token, got %d", rec.Code)
	}
}

func TestRateLimiterBurstThenBlocks(t *testing.T) {
	limiter := NewRateLimiter(60, 2, forgeErrors.NewLogger(slog.LevelError))
	defer limiter.Close()

	if !limiter.Allow("ip:10.0.0.1") || !limiter.Allow("ip:10.0.0.1") {
		t.Fatal("burst capacity should allow first two requests")
	}
	if limiter.Allow("ip:10.0.0.1") {
		t.Error("third immediate request should be rejected")
	}
	// Separate keys get separate buckets
	if !limiter.Allow("ip:10.0.0.2") {
		t.Error("different key should not share the bucket")
	}
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	if ip := getClientIP(req); ip != "192.0.2.1" {
		t.Errorf("expected RemoteAddr host, got %q", ip)
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if ip := getClientIP(req); ip != "203.0.113.9" {
		t.Errorf("expected first forwarded IP, got %q", ip)
	}
}

func TestMaskAPIKey(t *testing.T) {
	if got := maskAPIKey("short"); got != "****" {
		t.Errorf("short keys should be fully masked, got %q", got)
	}
	if got := maskAPIKey("abcdefgh12345678"); got != "abcdefgh****" {
		t.Errorf("unexpected mask: %q", got)
	}
}

func TestRecordsEndpoints(t *testing.T) {
	s := testServer(t)
	om := disabledObservability(t)

	recordStore := s.recordStore
	_, record, err := recordStore.SaveJobAnalysis("Need a Go engineer", types.JobKeywords{
		TechnicalSkills: []string{"Go"},
	})
	if err != nil {
		t.Fatalf("SaveJobAnalysis failed: %v", err)
	}

	mux := s.setupRoutes(om)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/records?type=job_analysis", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from /records, got %d: %s", rec.Code, rec.Body.String())
	}

	var listResponse struct {
		Records map[string][]string `json:"records"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listResponse); err != nil {
		t.Fatalf("invalid list response: %v", err)
	}
	if len(listResponse.Records[store.KindJobAnalysis]) != 1 {
		t.Errorf("expected one job analysis record, got %v", listResponse.Records)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/records/job_analysis/"+record.Metadata.Filename, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from record fetch, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/records/job_analysis/nope_20250101_000000_deadbeef.json", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for missing record, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/records?type=bogus", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown record type, got %d", rec.Code)
	}
}

func TestStatsHandlerReportsRecordCounts(t *testing.T) {
	s := testServer(t)

	rec := httptest.NewRecorder()
	s.statsHandler(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var response map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("invalid stats response: %v", err)
	}
	if _, ok := response["records"]; !ok {
		t.Error("stats response missing records section")
	}
	if response["service"] != "resumeforge" {
		t.Errorf("unexpected service name: %v", response["service"])
	}
}

func TestStatusForError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{forgeErrors.NewValidationError("X", "bad input", nil), http.StatusBadRequest},
		{forgeErrors.NewNotFoundError("X", "gone", nil), http.StatusNotFound},
		{forgeErrors.NewAIError("X", "model down", nil), http.StatusBadGateway},
		{forgeErrors.NewNetworkError("X", "timeout", nil), http.StatusBadGateway},
		{forgeErrors.NewInternalError("X", "boom", nil), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		if got := statusForError(tc.err); got != tc.want {
			t.Errorf("statusForError(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestResumeCacheReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resume.md")
	content := "# Jane Doe\njane@example.com ❖ (555) 000-1111 ❖ Remote\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cache := newResumeCache(path)
	if err := cache.reload(); err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	got, info := cache.get()
	if got != content {
		t.Error("cached content does not match file")
	}
	if info.Name != "Jane Doe" {
		t.Errorf("static info not extracted, name = %q", info.Name)
	}
}

func TestResumeCacheMissingFile(t *testing.T) {
	cache := newResumeCache(filepath.Join(t.TempDir(), "missing.md"))
	if err := cache.reload(); err == nil {
		t.Fatal("expected error for missing canonical resume")
	}
}

func TestResumeWatcherReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resume.md")
	if err := os.WriteFile(path, []byte("# Old Name\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cache := newResumeCache(path)
	if err := cache.reload(); err != nil {
		t.Fatalf("initial reload failed: %v", err)
	}

	watcher, err := NewResumeWatcher(cache, forgeErrors.NewLogger(slog.LevelError))
	if err != nil {
		t.Fatalf("NewResumeWatcher failed: %v", err)
	}
	defer func() {
		if err := watcher.Stop(); err != nil {
			t.Errorf("Stop failed: %v", err)
		}
	}()

	if err := os.WriteFile(path, []byte("# New Name\n"), 0600); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for {
		_, info := cache.get()
		if info.Name == "New Name" {
			return
		}
		select {
		case <-deadline:
			t.Fatal("watcher did not reload resume within deadline")
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func TestOptimizeResponseCarriesRenderArtifacts(t *testing.T) {
	result := &workflow.OptimizeResult{
		Step:         workflow.StepDone,
		MarkdownPath: "/outputs/resumes/updated_resume_20260901_120000.md",
		Diff:         "- old line\n+ new line",
	}

	response := optimizeResponse(result)

	if response["markdown_path"] != result.MarkdownPath {
		t.Errorf("markdown_path missing from response: %v", response)
	}
	if response["diff"] != result.Diff {
		t.Errorf("diff missing from response: %v", response)
	}

	// Absent artifacts must not produce empty fields
	bare := optimizeResponse(&workflow.OptimizeResult{Step: workflow.StepDone})
	if _, ok := bare["markdown_path"]; ok {
		t.Error("markdown_path must be omitted when no markdown was saved")
	}
	if _, ok := bare["diff"]; ok {
		t.Error("diff must be omitted when no diff was requested")
	}
}
