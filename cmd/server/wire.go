//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tbnobed/tdmedia-sub001/internal/config"
	"github.com/tbnobed/tdmedia-sub001/internal/domain/derivation"
	domain "github.com/tbnobed/tdmedia-sub001/internal/domain/media"
	"github.com/tbnobed/tdmedia-sub001/internal/domain/streaming"
	"github.com/tbnobed/tdmedia-sub001/internal/infrastructure/auth"
	"github.com/tbnobed/tdmedia-sub001/internal/infrastructure/database"
	"github.com/tbnobed/tdmedia-sub001/internal/infrastructure/logger"
	"github.com/tbnobed/tdmedia-sub001/internal/infrastructure/mediatools"
	repo "github.com/tbnobed/tdmedia-sub001/internal/infrastructure/repository/media"
	"github.com/tbnobed/tdmedia-sub001/internal/infrastructure/storage"
	"github.com/tbnobed/tdmedia-sub001/internal/interfaces/httpserver"
)

var mediaSet = wire.NewSet(
	repo.NewRepository,
	wire.Bind(new(domain.Repository), new(*repo.Repository)),
	provideStorage,
	provideProber,
	wire.Bind(new(derivation.Prober), new(*mediatools.FFprobe)),
	provideExtractor,
	wire.Bind(new(derivation.FrameExtractor), new(*mediatools.FFmpeg)),
	derivation.NewService,
	wire.Bind(new(domain.Deriver), new(*derivation.Service)),
	domain.NewService,
	provideStreamService,
)

// BuildApplication assembles the media service with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		auth.NewValidator,
		newDatabaseConfig,
		newGormDB,
		mediaSet,
		httpserver.New,
		NewApplication,
	)
	return nil, nil
}

func newDatabaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	}
}

func newGormDB(cfg database.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(db, log); err != nil {
		return nil, err
	}
	return db, nil
}

// provideStorage creates the storage backend selected in configuration.
func provideStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (domain.Storage, error) {
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

func provideProber(cfg *config.Config) *mediatools.FFprobe {
	return mediatools.NewFFprobe(cfg.FFprobePath, cfg.DeriveToolTimeout)
}

func provideExtractor(cfg *config.Config) *mediatools.FFmpeg {
	return mediatools.NewFFmpeg(cfg.FFmpegPath, cfg.DeriveToolTimeout)
}

func provideStreamService(cfg *config.Config, log zerolog.Logger) *streaming.Service {
	return streaming.NewService(cfg, log)
}
