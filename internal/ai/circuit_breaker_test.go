package ai

import (
	"testing"
	"time"

	"resumeforge/internal/config"

	"google.golang.org/genai"
)

func TestIndependentCircuitBreakerConfigurations(t *testing.T) {
	extractConfig := &config.OperationAIConfig{
		Provider: "gemini",
		Model:    "gemini-2.5-flash",
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:          true,
			MaxRequests:      3,
			Interval:         60 * time.Second,
			Timeout:          60 * time.Second,
			MinRequests:      3,
			FailureThreshold: 0.6,
		},
	}

	rewriteConfig := &config.OperationAIConfig{
		Provider: "gemini",
		Model:    "gemini-2.5-flash",
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:          true,
			MaxRequests:      5,
			Interval:         30 * time.Second,
			Timeout:          45 * time.Second,
			MinRequests:      2,
			FailureThreshold: 0.7,
		},
	}

	extractCB := NewAICircuitBreaker("Extract", extractConfig, nil)
	rewriteCB := NewAICircuitBreaker("Rewrite", rewriteConfig, nil)

	t.Run("ExtractCircuitBreaker", func(t *testing.T) {
		stats := extractCB.GetStats()

		name, ok := stats["name"].(string)
		if !ok {
			t.Fatal("Circuit breaker name not found")
		}
		if name != "AI-Extract" {
			t.Errorf("Expected circuit breaker name 'AI-Extract', got '%s'", name)
		}

		state, ok := stats["state"].(string)
		if !ok {
			t.Fatal("Circuit breaker state not found")
		}
		if state != "closed" {
			t.Errorf("Expected initial state 'closed', got '%s'", state)
		}
	})

	t.Run("RewriteCircuitBreaker", func(t *testing.T) {
		stats := rewriteCB.GetStats()

		name, ok := stats["name"].(string)
		if !ok {
			t.Fatal("Circuit breaker name not found")
		}
		if name != "AI-Rewrite" {
			t.Errorf("Expected circuit breaker name 'AI-Rewrite', got '%s'", name)
		}
	})

	t.Run("IndependentInstances", func(t *testing.T) {
		if extractCB == rewriteCB {
			t.Error("Extract and rewrite circuit breakers should be different instances")
		}
	})

	t.Run("IndependentHealthStates", func(t *testing.T) {
		if !extractCB.IsHealthy() {
			t.Error("Extract circuit breaker should be healthy initially")
		}
		if !rewriteCB.IsHealthy() {
			t.Error("Rewrite circuit breaker should be healthy initially")
		}
	})
}

func TestCircuitBreakerDisabled(t *testing.T) {
	disabledConfig := &config.OperationAIConfig{
		Provider: "gemini",
		Model:    "gemini-2.5-flash",
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled: false,
		},
	}

	cb := NewAICircuitBreaker("Disabled", disabledConfig, nil)
	if cb != nil {
		t.Fatal("Circuit breaker should be nil when disabled")
	}

	// A nil breaker executes the function directly
	executed := false
	_, err := cb.Execute(func() (*genai.GenerateContentResponse, error) {
		executed = true
		return &genai.GenerateContentResponse{}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !executed {
		t.Error("disabled breaker should still execute the wrapped function")
	}
}
