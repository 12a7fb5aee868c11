package cli

import (
	"atsresume/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web form",
	Long: `Start a local web server hosting the resume form and results pages.

Pages and endpoints:
- GET  /                       Resume form
- POST /resume-form            Generate an optimized resume
- GET  /results/{id}           Optimized resume and ATS score
- POST /results/{id}/download  Download the generated PDF
- GET  /health                 Health check including the backend circuit breaker
- GET  /stats                  Rate limiting and session statistics

When a config file is in use it is watched, and changes to the log level and
rate limit apply without a restart.`,
	RunE: runServe,
}

var serveFlags struct {
	Host string
	Port string
}

func init() {
	serveCmd.Flags().StringVarP(&serveFlags.Port, "port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().StringVar(&serveFlags.Host, "host", "", "Host to bind to (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	serverCfg := server.ServerConfigFrom(cfg, Version)
	if serveFlags.Host != "" {
		serverCfg.Host = serveFlags.Host
	}
	if serveFlags.Port != "" {
		serverCfg.Port = serveFlags.Port
	}

	return server.NewServer(cfg, serverCfg, logger).Start()
}
