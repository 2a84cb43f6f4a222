package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"adinsight/app"
	"adinsight/internal"

	"github.com/gin-gonic/gin"
)

// maxBodyBytes bounds request documents
const maxBodyBytes = 4 << 20

// Server exposes the insight service over HTTP
type Server struct {
	router  *gin.Engine
	service *app.InsightService
	logger  *internal.Logger
}

// NewServer creates a server with all routes registered. An empty ginMode
// keeps gin's current mode.
func NewServer(service *app.InsightService, ginMode string) *Server {
	if ginMode != "" {
		gin.SetMode(ginMode)
	}
	s := &Server{
		router:  gin.New(),
		service: service,
		logger:  internal.DefaultLogger.Named("API"),
	}
	s.router.Use(gin.Recovery(), s.requestLogger())
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.GET("/healthz", s.health)

	v1 := s.router.Group("/v1")
	v1.POST("/hypotheses", s.generateHypotheses)
	v1.POST("/hypotheses/validate", s.validateHypotheses)
	v1.GET("/vocabulary", s.vocabulary)
	v1.GET("/usage", s.llmUsage)
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then drains in-flight requests
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening on %s", addr)
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("%s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
