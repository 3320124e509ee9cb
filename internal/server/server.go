package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"

	"github.com/wealthmastermind7-svg/AIEmployee/internal/handler"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/metrics"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/middleware"
)

// Options configure the HTTP server.
type Options struct {
	Port            string
	ReadTimeout     time.Duration
	ShutdownTimeout time.Duration
	RateLimit       string // limiter format, "" disables it
	Release         bool
}

type Server struct {
	router *gin.Engine
	http   *http.Server
	opts   Options
	logger *zap.Logger
}

func NewServer(h *handler.Handler, auth middleware.TokenParser, opts Options, logger *zap.Logger) (*Server, error) {
	if opts.Release {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger), cors())

	if opts.RateLimit != "" {
		rate, err := limiter.NewRateFromFormatted(opts.RateLimit)
		if err != nil {
			return nil, fmt.Errorf("invalid rate limit %q: %w", opts.RateLimit, err)
		}
		router.Use(mgin.NewMiddleware(limiter.New(memory.NewStore(), rate)))
		logger.Info("API rate limiting enabled", zap.String("rate", opts.RateLimit))
	}

	h.RegisterRoutes(router, middleware.AuthMiddleware(auth, logger))

	return &Server{
		router: router,
		http: &http.Server{
			Addr:              fmt.Sprintf(":%s", opts.Port),
			Handler:           router,
			ReadHeaderTimeout: opts.ReadTimeout,
		},
		opts:   opts,
		logger: logger,
	}, nil
}

// Router exposes the engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server starting", zap.String("address", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		metrics.ObserveRequest(c.Request.Method, route, c.Writer.Status(), elapsed.Seconds())
		logger.Debug("Request",
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", elapsed))
	}
}
