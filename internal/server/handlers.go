package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"

	"resumeforge/internal/ai"
	"resumeforge/internal/config"
	forgeErrors "resumeforge/internal/errors"
)

// healthHandler reports AI model availability and circuit breaker state for
// both operations.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	timeout := s.AppConfig.Observability.HealthCheck.Timeout
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	response := map[string]any{
		"status":  "healthy",
		"service": "resumeforge",
		"version": s.Version,
	}

	aiStatus := make(map[string]any)
	breakerStatus := make(map[string]any)
	overallHealthy := true

	for name, cfg := range s.operationConfigs() {
		service, err := ai.NewService(&cfg, name, s.Logger)
		if err != nil {
			aiStatus[name] = map[string]any{
				"available": false,
				"error":     fmt.Sprintf("Failed to create %s service: %v", name, err),
			}
			overallHealthy = false
			continue
		}

		aiStatus[name] = service.GetModelInfo(ctx)

		if provider, ok := service.Provider.(*ai.GeminiProvider); ok {
			breakerStatus[name] = provider.GetCircuitBreakerStats()
		}
		if closeErr := service.Provider.Close(); closeErr != nil {
			s.Logger.Warn("Failed to close AI provider", "operation", name, "error", closeErr)
		}
	}

	response["ai_models"] = aiStatus
	response["circuit_breakers"] = breakerStatus

	if !overallHealthy {
		response["status"] = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	writeJSON(w, response, s.Logger)
}

func (s *Server) operationConfigs() map[string]config.OperationAIConfig {
	return map[string]config.OperationAIConfig{
		"extract": s.AppConfig.GetExtractConfig(),
		"rewrite": s.AppConfig.GetRewriteConfig(),
	}
}

// statsHandler reports record counts, rate limiting and server limits.
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "resumeforge",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
		},
	}

	if stats, err := s.recordStore.GetStats(); err == nil {
		response["records"] = stats
	} else {
		s.Logger.LogError(err, "Failed to collect record stats")
		response["records"] = map[string]any{"error": "unavailable"}
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{"enabled": false}
	}

	writeJSON(w, response, s.Logger)
}

// listRecordsHandler serves GET /records with an optional ?type= filter.
func (s *Server) listRecordsHandler(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("type")
	if kind == "" {
		kind = "all"
	}

	records, err := s.recordStore.ListRecords(kind)
	if err != nil {
		writeAppError(w, err, s.Logger)
		return
	}

	writeJSON(w, map[string]any{"records": records}, s.Logger)
}

// getRecordHandler serves GET /records/{kind}/{filename}.
func (s *Server) getRecordHandler(w http.ResponseWriter, r *http.Request) {
	kind := r.PathValue("kind")
	filename := r.PathValue("filename")

	record, err := s.recordStore.LoadRaw(kind, filename)
	if err != nil {
		writeAppError(w, err, s.Logger)
		return
	}

	writeJSON(w, record, s.Logger)
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	if r.Header.Get("Content-Type") != "application/json" {
		return fmt.Errorf("content-type must be application/json")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
		}
		return fmt.Errorf("failed to read request body: %w", err)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	return nil
}

// statusForError maps the error taxonomy onto HTTP status codes
func statusForError(err error) int {
	switch forgeErrors.TypeOf(err) {
	case forgeErrors.ErrorTypeValidation:
		return http.StatusBadRequest
	case forgeErrors.ErrorTypeNotFound:
		return http.StatusNotFound
	case forgeErrors.ErrorTypeNetwork, forgeErrors.ErrorTypeAI, forgeErrors.ErrorTypeSchema:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeAppError surfaces a typed error with its code and mapped status
func writeAppError(w http.ResponseWriter, err error, logger *forgeErrors.Logger) {
	var appErr *forgeErrors.AppError
	if stderrors.As(err, &appErr) {
		writeErrorResponse(w, appErr.Code, appErr.Message, statusForError(err))
		return
	}
	logger.LogError(err, "Unclassified error in request handling")
	writeErrorResponse(w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v any, logger *forgeErrors.Logger) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.LogError(err, "Failed to encode response")
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, errorCode, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error:   errorCode,
		Message: message,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode error response", http.StatusInternalServerError)
	}
}
