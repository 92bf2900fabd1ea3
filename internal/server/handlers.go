package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/ppiankov/candidstance/internal/model"
	"github.com/ppiankov/candidstance/internal/pipeline"
)

// AnalyzeRequest is the body of POST /analyze
type AnalyzeRequest struct {
	CandidateName string `json:"candidateName"`
	Stream        bool   `json:"stream"`
}

// Response is the envelope of every non-streamed reply
type Response struct {
	Success bool            `json:"success"`
	Data    *model.Analysis `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

var errBadRequest = errors.New("request body must be JSON with a candidateName")

func (s *Server) handleAnalyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger(c).WithError(err).Debug("bad analyze request")
		c.JSON(http.StatusBadRequest, Response{Error: errBadRequest.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.RequestTimeout)
	defer cancel()

	if req.Stream {
		s.streamSSE(ctx, c, req.CandidateName)
		return
	}

	analysis, err := s.analyzer.Analyze(ctx, req.CandidateName)
	if err != nil {
		status := statusFor(err)
		log := s.logger(c).WithError(err).WithField("candidate", req.CandidateName)
		if status >= http.StatusInternalServerError {
			log.Error("analysis failed")
		} else {
			log.Info("analysis rejected")
		}
		c.JSON(status, Response{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: analysis})
}

// streamSSE writes one "data:" message per event. Input errors are still
// delivered in-stream, since the 200 status is committed before the first event.
func (s *Server) streamSSE(ctx context.Context, c *gin.Context, name string) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	log := s.logger(c).WithField("candidate", name)

	s.analyzer.AnalyzeStream(ctx, name, func(e model.Event) {
		payload, err := json.Marshal(e)
		if err != nil {
			log.WithError(err).Error("marshal event")
			return
		}
		if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", payload); err != nil {
			log.WithError(err).Debug("client went away")
			return
		}
		c.Writer.Flush()
	})
}

func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(s.cfg.AllowOrigins) == 0 || containsWildcard(s.cfg.AllowOrigins) {
				return true
			}
			for _, allowed := range s.cfg.AllowOrigins {
				if allowed == origin {
					return true
				}
			}
			return false
		},
	}
}

// handleWebsocket streams the same events as SSE, one JSON text frame each,
// and closes after the terminal event.
func (s *Server) handleWebsocket(c *gin.Context) {
	name := c.Query("candidateName")
	log := s.logger(c).WithField("candidate", name)

	upgrader := s.upgrader()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WithError(err).Debug("websocket upgrade failed")
		return
	}
	defer func() { _ = conn.Close() }()

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.RequestTimeout)
	defer cancel()

	// Reading is only for noticing the client closing early
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	s.analyzer.AnalyzeStream(ctx, name, func(e model.Event) {
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(e); err != nil {
			log.WithError(err).Debug("websocket write failed")
			cancel()
		}
	})

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"),
		time.Now().Add(time.Second))
}

// statusFor maps pipeline errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case pipeline.IsInputError(err), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
