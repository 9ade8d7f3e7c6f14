// Package server wires configuration, the tool registry and the HTTP
// surface together.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fsgate/fsgate/internal/api/middleware"
	"github.com/fsgate/fsgate/internal/atomicwrite"
	"github.com/fsgate/fsgate/internal/continuation"
	"github.com/fsgate/fsgate/internal/infrastructure/config"
	"github.com/fsgate/fsgate/internal/infrastructure/logging"
	"github.com/fsgate/fsgate/internal/infrastructure/monitoring"
	"github.com/fsgate/fsgate/internal/pathguard"
	"github.com/fsgate/fsgate/internal/providers/filesystem"
	"github.com/fsgate/fsgate/internal/service"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	router   *gin.Engine
	http     *http.Server
	registry *service.Registry
	tokens   *continuation.Store
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
	promReg  *prometheus.Registry
	started  time.Time
}

// New creates a server instance from configuration.
func New(cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	logger.Info("Initializing fsgate server",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
		zap.String("sandbox_root", cfg.Sandbox.Root),
		zap.Int("budget_bytes", cfg.Budget.LimitBytes),
	)

	metrics, promReg := monitoring.New()

	if err := os.MkdirAll(cfg.Sandbox.Root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create sandbox root: %w", err)
	}
	guard, err := pathguard.NewSandbox(cfg.Sandbox.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sandbox: %w", err)
	}

	tokens := continuation.New(continuation.WithTTL(cfg.Tokens.TTL))

	writerOpts := []atomicwrite.Option{
		atomicwrite.WithBackoff(cfg.Write.BackoffBase, cfg.Write.BackoffCap),
	}
	if cfg.Write.CompressBackups {
		writerOpts = append(writerOpts, atomicwrite.WithCompressedBackups())
	}
	writer := atomicwrite.New(logger.Component("atomicwrite"), writerOpts...)

	registry := service.NewRegistry(metrics)
	fsProvider := filesystem.New(&filesystem.FilesystemOps{
		Guard:          guard,
		Tokens:         tokens,
		Writer:         writer,
		Log:            logger.Component("filesystem"),
		Metrics:        metrics,
		BudgetBytes:    cfg.Budget.LimitBytes,
		BudgetFraction: cfg.Budget.Fraction,

		WriteChunkSize:     cfg.Write.ChunkSize,
		WriteRetryAttempts: cfg.Write.RetryAttempts,
	})
	if err := registry.Register(fsProvider); err != nil {
		return nil, fmt.Errorf("failed to register filesystem provider: %w", err)
	}
	logger.Info("Registered filesystem provider",
		zap.Int("tools", len(fsProvider.Definition().Tools)))

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}
	router.Use(monitoring.Middleware(metrics))

	s := &Server{
		router:   router,
		registry: registry,
		tokens:   tokens,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
		promReg:  promReg,
		started:  time.Now(),
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.router.GET("/", s.handleRoot)
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/services", s.handleListServices)
	s.router.POST("/services/execute", s.handleExecute)
	s.router.GET("/metrics", gin.WrapH(
		promhttp.HandlerFor(s.promReg, promhttp.HandlerOpts{})))
}

// Run starts the HTTP server and blocks until it stops.
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Server listening", zap.String("addr", addr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server, draining in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down")
	defer func() {
		_ = s.logger.Sync()
	}()
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}
