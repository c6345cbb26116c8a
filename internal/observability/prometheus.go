package observability

import (
	"fmt"
	"net/http"
	"time"

	"resumeforge/internal/config"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
)

// SetupPrometheusExporter creates a Prometheus metric reader and the mux that
// serves the scrape endpoint. Returns nils when disabled.
func SetupPrometheusExporter(cfg config.PrometheusConfig) (metric.Reader, *http.ServeMux, error) {
	if !cfg.Enabled {
		return nil, nil, nil
	}

	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "/metrics"
	}

	mux := http.NewServeMux()
	// The OTel exporter registers to the default registry that promhttp serves.
	mux.Handle(endpoint, promhttp.Handler())

	return exporter, mux, nil
}

// StartPrometheusServer serves the scrape endpoint on a dedicated port.
func StartPrometheusServer(mux *http.ServeMux, port string) error {
	if mux == nil {
		return nil
	}
	if port == "" {
		port = "9090"
	}

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("Prometheus server error: %v\n", err)
		}
	}()

	return nil
}
