package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tbnobed/tdmedia-sub001/internal/config"
	"github.com/tbnobed/tdmedia-sub001/internal/domain/derivation"
	domain "github.com/tbnobed/tdmedia-sub001/internal/domain/media"
	"github.com/tbnobed/tdmedia-sub001/internal/domain/streaming"
	"github.com/tbnobed/tdmedia-sub001/internal/infrastructure/auth"
	"github.com/tbnobed/tdmedia-sub001/internal/infrastructure/database"
	"github.com/tbnobed/tdmedia-sub001/internal/infrastructure/logger"
	"github.com/tbnobed/tdmedia-sub001/internal/infrastructure/mediatools"
	"github.com/tbnobed/tdmedia-sub001/internal/infrastructure/observability"
	repo "github.com/tbnobed/tdmedia-sub001/internal/infrastructure/repository/media"
	"github.com/tbnobed/tdmedia-sub001/internal/infrastructure/storage"
	"github.com/tbnobed/tdmedia-sub001/internal/interfaces/httpserver"
	"github.com/tbnobed/tdmedia-sub001/internal/utils/redact"
)

// @title TD Media API
// @version 1.0
// @description Media catalog with signed streaming access and preview derivation.
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
type Application struct {
	httpServer *httpserver.HttpServer
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	log.Info().Str("database", redact.DSN(cfg.DatabaseURL)).Msg("connecting database")
	db, err := database.Connect(database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Error().Err(err).Msg("close database")
		}
	}()

	if err := database.AutoMigrate(db, log); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	storageClient, err := newStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize storage")
	}

	reportMediaTools(cfg, log)

	mediaRepository := repo.NewRepository(db)
	prober := mediatools.NewFFprobe(cfg.FFprobePath, cfg.DeriveToolTimeout)
	extractor := mediatools.NewFFmpeg(cfg.FFmpegPath, cfg.DeriveToolTimeout)
	deriver := derivation.NewService(cfg, mediaRepository, storageClient, prober, extractor, log)
	mediaService := domain.NewService(cfg, mediaRepository, storageClient, deriver, log)
	streamService := streaming.NewService(cfg, log)

	authValidator, err := auth.NewValidator(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize auth")
	}

	httpServer := httpserver.New(cfg, log, mediaService, streamService, authValidator, db)
	app := NewApplication(httpServer, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func newStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (domain.Storage, error) {
	if cfg.IsS3Storage() {
		s3Storage, err := storage.NewS3Storage(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return s3Storage, nil
	}
	localStorage, err := storage.NewLocalStorage(cfg, log)
	if err != nil {
		return nil, err
	}
	return localStorage, nil
}

// reportMediaTools logs tool availability once at startup. Missing tools are
// not fatal: derivation degrades to placeholders, but the operator should
// know before the first upload comes in.
func reportMediaTools(cfg *config.Config, log zerolog.Logger) {
	for _, status := range mediatools.CheckMediaTools(cfg.FFmpegPath, cfg.FFprobePath) {
		if status.Available {
			log.Info().Str("tool", status.Name).Str("command", status.Command).Msg("media tool available")
			continue
		}
		log.Warn().
			Str("tool", status.Name).
			Str("detail", status.Detail).
			Msg("media tool unavailable; derivation will fall back to placeholders")
	}
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
