package server

import (
	"time"

	"resumeforge/internal/config"
	forgeErrors "resumeforge/internal/errors"
	"resumeforge/internal/render"
	"resumeforge/internal/scraper"
	"resumeforge/internal/store"
)

// AnalyzeRequest is the body for POST /analyze. Exactly one of
// JobDescription or URL must be set; when URL is set the posting is scraped.
type AnalyzeRequest struct {
	JobDescription string `json:"jobDescription"`
	URL            string `json:"url"`
}

// OptimizeRequest is the body for POST /optimize. A job description (inline
// or via URL) triggers keyword extraction first; Keywords bypass extraction.
// An empty OriginalResume uses the server's canonical resume.
type OptimizeRequest struct {
	JobDescription string   `json:"jobDescription"`
	URL            string   `json:"url"`
	Keywords       []string `json:"keywords"`
	OriginalResume string   `json:"originalResume"`
	AllCategories  bool     `json:"allCategories"`
	GenerateHTML   bool     `json:"generateHtml"`
	GeneratePDF    bool     `json:"generatePdf"`
	// GenerateMarkdown saves a plain-text version of the rendered resume;
	// GenerateDiff returns a line diff against the original resume text.
	GenerateMarkdown bool `json:"generateMarkdown"`
	GenerateDiff     bool `json:"generateDiff"`
}

// RenderRequest is the body for POST /render.
type RenderRequest struct {
	HTML string `json:"html"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Step    string `json:"step,omitempty"`
}

// Server holds configuration and shared components for the HTTP API
type Server struct {
	Host    string
	Port    string
	Version string

	AppConfig *config.Config
	TLSConfig config.TLSConfig

	// API Authentication; empty map disables auth
	APIKeys map[string]bool

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit, shared with the file-size limit for CLI inputs
	MaxRequestSize int64

	RateLimit   *config.RateLimitConfig
	RateLimiter *LimiterManager

	Logger *forgeErrors.Logger

	recordStore *store.Store
	renderer    *render.Renderer
	jobScraper  *scraper.Scraper
	resume      *resumeCache
	watcher     *ResumeWatcher
}

// NewServer creates a Server with its stores, renderer and rate limiter
// wired from the application configuration.
func NewServer(appCfg *config.Config, version string, logger *forgeErrors.Logger) *Server {
	apiKeyMap := make(map[string]bool)
	for _, key := range appCfg.Server.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *LimiterManager
	if appCfg.Server.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(
			appCfg.Server.RateLimit.RequestsPerMin,
			appCfg.Server.RateLimit.BurstCapacity,
			logger,
		)
	}

	resume := newResumeCache(appCfg.Resume.CanonicalPath)
	if err := resume.reload(); err != nil {
		// A missing canonical resume only matters for requests that rely on
		// it; those fail with a clear error at request time.
		logger.Warn("Canonical resume not loaded", "path", appCfg.Resume.CanonicalPath, "error", err)
	}

	return &Server{
		Host:           appCfg.Server.Host,
		Port:           appCfg.Server.Port,
		Version:        version,
		AppConfig:      appCfg,
		TLSConfig:      appCfg.Server.TLS,
		APIKeys:        apiKeyMap,
		ReadTimeout:    appCfg.Server.ReadTimeout,
		WriteTimeout:   appCfg.Server.WriteTimeout,
		IdleTimeout:    appCfg.Server.IdleTimeout,
		MaxRequestSize: appCfg.App.MaxFileSize,
		RateLimit:      &appCfg.Server.RateLimit,
		RateLimiter:    rateLimiter,
		Logger:         logger,
		recordStore:    store.NewStore(appCfg.Store.OutputsDir, logger),
		renderer:       render.NewRenderer(appCfg.Render, logger),
		jobScraper:     scraper.NewScraper(logger),
		resume:         resume,
	}
}
