// Package server exposes the question orchestrator over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/zkloci/internal/log"
	"github.com/ppiankov/zkloci/internal/model"
)

// HealthMessage is returned by GET /
const HealthMessage = "zk-loci Analytics API is running"

// Answerer handles one question
type Answerer interface {
	HandleQuestion(ctx context.Context, question string) model.QueryResponse
}

// Server is the HTTP adapter around an Answerer
type Server struct {
	answerer Answerer
	engine   *gin.Engine
	cfg      model.ServerConfig
}

// New builds the router. baseCtx carries the logger that request
// contexts inherit.
func New(baseCtx context.Context, answerer Answerer, cfg model.ServerConfig) *Server {
	s := &Server{answerer: answerer, cfg: cfg}

	g := gin.New()
	g.Use(requestLogger(baseCtx), gin.Recovery())
	g.GET("/", s.health)
	g.POST("/analytics/query", s.query)
	g.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})

	s.engine = g
	return s
}

// Handler returns the underlying http.Handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info(ctx, "http server listening", zap.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info(ctx, "http server shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": HealthMessage})
}

func (s *Server) query(c *gin.Context) {
	var req model.QueryRequest
	// An empty body is an empty question
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp := s.answerer.HandleQuestion(c.Request.Context(), req.Question)
	c.JSON(http.StatusOK, resp)
}

// requestLogger attaches the base logger to each request context and logs
// one line per request.
func requestLogger(baseCtx context.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		ctx := log.CopyFromContext(baseCtx, c.Request.Context())
		ctx = log.With(ctx, zap.String("method", c.Request.Method), zap.String("path", c.Request.URL.Path))
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		log.Info(ctx, "request served",
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
