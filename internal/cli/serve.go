package cli

import (
	"resumeforge/internal/server"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP server exposing the optimization workflow as a REST API.

Available endpoints:
- POST /analyze: Extract keywords from a job description or posting URL
- POST /optimize: Run the full optimization workflow
- POST /render: Convert rendered HTML to PDF
- GET /records, GET /records/{type}/{filename}: Browse saved records
- GET /health: AI model and circuit breaker health
- GET /stats: Record counts and rate limiting info

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled or server
- Use --cert-file and --key-file for TLS certificates`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("tls-mode", "", "TLS mode: disabled, server (overrides config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")

	bindFlag := func(key, flagName string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(flagName)); err != nil {
			panic(err)
		}
	}

	bindFlag("server.port", "port")
	bindFlag("server.host", "host")
	bindFlag("server.tls.mode", "tls-mode")
	bindFlag("server.tls.certfile", "cert-file")
	bindFlag("server.tls.keyfile", "key-file")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	return server.NewServer(cfg, Version, logger).Start()
}
