// Package api exposes the analysis operations as JSON endpoints.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spigell/scholarpath/internal/analysis"
	"github.com/spigell/scholarpath/internal/history"
	"github.com/spigell/scholarpath/internal/logger"
	"github.com/spigell/scholarpath/internal/scholarship"
)

const defaultRequestsPerMinute = 120

// CatalogSource returns the catalog requests are evaluated against.
type CatalogSource func(ctx context.Context) (*scholarship.Catalog, error)

type Options struct {
	Logger            *zap.Logger
	Service           *analysis.Service
	Catalog           CatalogSource
	History           history.Store
	AllowedOrigins    []string
	RequestsPerMinute int
	// Registry receives the HTTP and analysis metrics. Nil uses a private registry.
	Registry *prometheus.Registry
}

type Server struct {
	logger   *zap.Logger
	svc      *analysis.Service
	catalog  CatalogSource
	history  history.Store
	registry *prometheus.Registry
	metrics  *metrics
	limiter  *rate.Limiter
	origins  []string
}

func New(opts Options) (*Server, error) {
	if opts.Service == nil {
		return nil, errors.New("analysis service is required")
	}
	if opts.Catalog == nil {
		return nil, errors.New("catalog source is required")
	}
	registry := opts.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	store := opts.History
	if store == nil {
		store = history.Nop{}
	}
	rpm := opts.RequestsPerMinute
	if rpm <= 0 {
		rpm = defaultRequestsPerMinute
	}

	return &Server{
		logger:   logger.WithFields(opts.Logger),
		svc:      opts.Service,
		catalog:  opts.Catalog,
		history:  store,
		registry: registry,
		metrics:  newMetrics(registry),
		limiter:  rate.NewLimiter(rate.Limit(float64(rpm)/60.0), max(rpm/10, 1)),
		origins:  opts.AllowedOrigins,
	}, nil
}

// Router builds the gin engine with all middleware and routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), s.instrument())
	if len(s.origins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  s.origins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:  []string{"Origin", "Content-Type"},
			ExposeHeaders: []string{"Content-Length"},
			MaxAge:        12 * time.Hour,
		}))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	v1 := r.Group("/v1", s.rateLimit())
	v1.POST("/match", s.scoreMatch)
	v1.POST("/match/catalog", s.scoreCatalog)
	v1.POST("/eligibility", s.filterEligibility)
	v1.POST("/gaps", s.analyzeGaps)
	v1.POST("/simulate", s.simulate)
	v1.POST("/history/compare", s.compareToHistory)
	return r
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("address", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down http server")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		s.logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(started)),
		)
	}
}

func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
