package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	tdmediadocs "github.com/tbnobed/tdmedia-sub001/docs/swagger"
	"github.com/tbnobed/tdmedia-sub001/internal/config"
	domain "github.com/tbnobed/tdmedia-sub001/internal/domain/media"
	"github.com/tbnobed/tdmedia-sub001/internal/domain/streaming"
	"github.com/tbnobed/tdmedia-sub001/internal/infrastructure/auth"
	"github.com/tbnobed/tdmedia-sub001/internal/infrastructure/database"
	"github.com/tbnobed/tdmedia-sub001/internal/interfaces/httpserver/handlers"
	"github.com/tbnobed/tdmedia-sub001/internal/interfaces/httpserver/middlewares"
	v1 "github.com/tbnobed/tdmedia-sub001/internal/interfaces/httpserver/routes/v1"
)

// HttpServer wraps the gin engine with graceful shutdown helpers.
type HttpServer struct {
	cfg    *config.Config
	engine *gin.Engine
	log    zerolog.Logger
	auth   *auth.Validator
	db     *gorm.DB
	media  *domain.Service
}

// New constructs the HTTP server with default middleware and routes.
func New(cfg *config.Config, log zerolog.Logger, mediaService *domain.Service, streamService *streaming.Service, authValidator *auth.Validator, db *gorm.DB) *HttpServer {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	tdmediadocs.SwaggerInfo.BasePath = "/"

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middlewares.RequestID(),
		middlewares.Tracing(cfg.ServiceName),
		middlewares.RequestLogger(log),
		middlewares.Metrics(),
	)
	if authValidator != nil {
		engine.Use(authValidator.Middleware())
	}

	server := &HttpServer{
		cfg:    cfg,
		engine: engine,
		log:    log,
		auth:   authValidator,
		db:     db,
		media:  mediaService,
	}

	handlerProvider := handlers.NewProvider(cfg, mediaService, streamService, log)
	routeProvider := v1.NewRoutes(handlerProvider)
	server.registerCoreRoutes(routeProvider)

	return server
}

// Run starts the HTTP listener and handles graceful shutdown via context cancellation.
func (s *HttpServer) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    s.cfg.Addr(),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr()).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.log.Info().Msg("context cancelled, shutting down HTTP server")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func (s *HttpServer) registerCoreRoutes(routes *v1.Routes) {
	s.engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": s.cfg.ServiceName, "status": "ok"})
	})
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	s.engine.GET("/readyz", s.handleReadyz)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.Register(s.engine.Group("/"))
}

// handleReadyz reports ready only when the database, the storage backend and
// the auth validator are all usable.
func (s *HttpServer) handleReadyz(c *gin.Context) {
	ctx := c.Request.Context()

	if err := database.Ping(ctx, s.db); err != nil {
		s.log.Warn().Err(err).Msg("readiness: database unreachable")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "reason": "database"})
		return
	}
	if err := s.media.Healthy(ctx); err != nil {
		s.log.Warn().Err(err).Msg("readiness: storage unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "reason": "storage"})
		return
	}
	if s.auth != nil && !s.auth.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "reason": "auth"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
