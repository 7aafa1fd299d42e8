// Package server exposes lisp evaluation sessions over an HTTP JSON API.
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/rfielding/lispy/internal/config"
	"github.com/rfielding/lispy/internal/logging"
)

type Server struct {
	cfg      config.Config
	sessions *SessionStore
	metrics  *MetricsCollector
	logger   *slog.Logger
	router   *gin.Engine
}

type evalRequest struct {
	Source string `json:"source" binding:"required"`
}

func New(cfg config.Config, logger *slog.Logger) *Server {
	metrics := NewMetricsCollector()
	registerMetrics(metrics)

	s := &Server{
		cfg:      cfg,
		sessions: NewSessionStore(cfg.MaxDepth, cfg.SessionTTL, logger),
		metrics:  metrics,
		logger:   logging.For(logger, logging.ChannelServer),
	}
	s.router = s.routes()
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.withLogging())
	if len(s.cfg.AllowOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: s.cfg.AllowOrigins,
			AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders: []string{
				"X-Request-ID",
			},
			MaxAge: 12 * time.Hour,
		}))
	}

	r.GET("/healthz", s.handleHealth)
	r.GET("/metrics", s.handleMetrics)

	api := r.Group("/api")
	api.POST("/eval", s.handleEvalOnce)
	api.POST("/sessions", s.handleCreateSession)
	api.POST("/sessions/:id/eval", s.handleSessionEval)
	api.DELETE("/sessions/:id", s.handleDeleteSession)
	return r
}

// withLogging tags each request with an id and logs it once it completes.
func (s *Server) withLogging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		rid := shortID()
		c.Header("X-Request-ID", rid)
		c.Next()
		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"rid", rid,
			"status", c.Writer.Status(),
			"dur", time.Since(start))
	}
}

func shortID() string {
	var b [6]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "sessions": s.sessions.Len()})
}

func (s *Server) handleMetrics(c *gin.Context) {
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(s.metrics.Table()))
}

func (s *Server) handleCreateSession(c *gin.Context) {
	sess := s.sessions.New()
	s.metrics.Inc(metricSessionsCreated)
	s.sessions.logger.Info("session created", "id", sess.ID)
	c.JSON(http.StatusCreated, gin.H{"id": sess.ID})
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	id := c.Param("id")
	if !s.sessions.Delete(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session " + id})
		return
	}
	s.metrics.Inc(metricSessionsDeleted)
	c.Status(http.StatusNoContent)
}

func (s *Server) handleSessionEval(c *gin.Context) {
	sess, ok := s.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session " + c.Param("id")})
		return
	}
	s.eval(c, sess)
}

// handleEvalOnce evaluates in a throwaway session that is never stored.
func (s *Server) handleEvalOnce(c *gin.Context) {
	s.eval(c, newSession(s.cfg.MaxDepth, s.sessions.evalLog, time.Now()))
}

func (s *Server) eval(c *gin.Context, sess *Session) {
	var req evalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	if s.cfg.EvalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.EvalTimeout)
		defer cancel()
	}
	res, err := sess.Eval(ctx, req.Source)
	if err != nil {
		s.metrics.Inc(metricParseErrors)
		c.JSON(http.StatusUnprocessableEntity, res)
		return
	}
	s.metrics.Add(metricEvals, float64(len(res.Results)))
	s.metrics.Add(metricEvalErrors, float64(res.Failed()))
	if n := res.TimedOut(); n > 0 {
		s.metrics.Inc(metricEvalTimeouts)
		s.logger.Warn("evaluation timed out", "limit", s.cfg.EvalTimeout, "forms", n)
	}
	c.JSON(http.StatusOK, res)
}

// Janitor expires idle sessions every interval until ctx is done.
func (s *Server) Janitor(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.expireIdle()
		}
	}
}

func (s *Server) expireIdle() int {
	n := s.sessions.Expire()
	if n > 0 {
		s.metrics.Add(metricSessionsExpired, float64(n))
		s.logger.Info("expired idle sessions", "count", n)
	}
	return n
}
