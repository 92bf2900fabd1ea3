// Package server exposes the analysis pipeline over HTTP, server-sent events
// and websockets.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ppiankov/candidstance/internal/logging"
	"github.com/ppiankov/candidstance/internal/metrics"
	"github.com/ppiankov/candidstance/internal/model"
)

const requestIDHeader = "X-Request-ID"

// Analyzer runs candidate analyses
type Analyzer interface {
	Analyze(ctx context.Context, inputName string) (*model.Analysis, error)
	AnalyzeStream(ctx context.Context, inputName string, emit func(model.Event))
}

// Server is the HTTP front end
type Server struct {
	analyzer Analyzer
	cfg      model.ServerConfig
	engine   *gin.Engine
	log      *logrus.Entry
}

// New creates a server and registers its routes
func New(analyzer Analyzer, cfg model.ServerConfig, log *logrus.Entry) *Server {
	if log == nil {
		log = logging.Discard()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 2 * time.Minute
	}

	s := &Server{
		analyzer: analyzer,
		cfg:      cfg,
		engine:   gin.New(),
		log:      log,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.engine
	r.Use(gin.Recovery(), s.requestID(), s.accessLog())
	r.Use(cors.New(s.corsConfig()))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST("/analyze", s.handleAnalyze)
	r.GET("/ws/analyze", s.handleWebsocket)

	if s.cfg.Metrics {
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", requestIDHeader},
		ExposeHeaders: []string{"Content-Length", requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(s.cfg.AllowOrigins) == 0 || containsWildcard(s.cfg.AllowOrigins) {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = s.cfg.AllowOrigins
	}
	return cfg
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on the configured address until ctx is cancelled, then drains
// in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.cfg.Addr).Info("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.RequestTimeout)
	defer cancel()

	s.log.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger(c).WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}).Debug("request")
	}
}

func (s *Server) logger(c *gin.Context) *logrus.Entry {
	return s.log.WithField("request_id", c.GetString("request_id"))
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
