package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/ppiankov/candidstance/internal/logging"
	"github.com/ppiankov/candidstance/internal/server"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve exposes the analysis pipeline over HTTP:
- POST /analyze            one-shot JSON, or server-sent events with "stream": true
- GET  /ws/analyze?candidateName=  progress events over a WebSocket
- GET  /healthz            liveness
- GET  /metrics            Prometheus metrics (server.metrics)

Example:
  candidstance serve
  candidstance serve --addr :9090
  CANDIDSTANCE_STORE_DRIVER=mongo MONGODB_URI=mongodb://localhost:27017 candidstance serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(settings)
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, appOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			a.logger.WithError(err).Warn("shutdown cleanup failed")
		}
	}()

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := server.New(a.pipeline, cfg.Server, logging.Component(a.logger, "server"))

	a.logger.WithField("version", Version).Info("starting candidstance")
	return srv.Run(ctx)
}
