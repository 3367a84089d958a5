package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/tbnobed/tdmedia-sub001/internal/config"
	"github.com/tbnobed/tdmedia-sub001/internal/infrastructure/metrics"
	"github.com/tbnobed/tdmedia-sub001/internal/utils/platformerrors"
	"github.com/tbnobed/tdmedia-sub001/utils/mediaid"
)

// sniffLen matches the number of leading bytes mimetype reads.
const sniffLen = 3072

// Repository defines persistence operations needed by the service.
// A missing row is reported as (nil, nil), not an error.
type Repository interface {
	Create(ctx context.Context, asset *MediaAsset) error
	GetByID(ctx context.Context, id string) (*MediaAsset, error)
	UpdateDerived(ctx context.Context, id string, thumbnailKey *string, durationLabel *string) error
	Delete(ctx context.Context, id string) error
}

// Storage defines media storage operations.
type Storage interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Download(ctx context.Context, key string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
	Health(ctx context.Context) error
}

// Deriver produces preview artifacts for an asset and persists them.
type Deriver interface {
	Derive(ctx context.Context, asset *MediaAsset) (*MediaAsset, error)
}

// Service orchestrates media ingestion, retrieval and deletion.
type Service struct {
	cfg     *config.Config
	repo    Repository
	storage Storage
	deriver Deriver
	log     zerolog.Logger
}

func NewService(cfg *config.Config, repo Repository, storage Storage, deriver Deriver, log zerolog.Logger) *Service {
	return &Service{
		cfg:     cfg,
		repo:    repo,
		storage: storage,
		deriver: deriver,
		log:     log.With().Str("component", "media-service").Logger(),
	}
}

// Ingest classifies, stores and registers one upload. Classification runs
// before any storage write so unsupported files never leave residue. For
// video and audio the derivation worker is kicked off in the background;
// the returned asset has no thumbnail or duration yet.
func (s *Service) Ingest(ctx context.Context, req IngestRequest) (*MediaAsset, error) {
	if req.Size <= 0 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"file is empty", nil, "b6f1f6f0-6f0a-4f4b-9a51-8f1f3a1d2c01")
	}
	if req.Size > s.cfg.MaxMediaBytes {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("file exceeds max size of %d bytes", s.cfg.MaxMediaBytes), nil, "0d8e3b1c-45c2-4a8a-b0e7-3c7a84a3f902")
	}

	kind, err := Classify(req.FileName, req.DeclaredKind)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"rejected upload", err, "7a9c2e44-11de-4e0b-9d2f-5b6f08c4de03")
	}

	header := make([]byte, sniffLen)
	n, err := io.ReadFull(req.Content, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal,
			"read upload", err, "f3b0a7d8-92c1-4c7e-8f7a-6f2f9c1ab804")
	}
	header = header[:n]
	contentType := mimetype.Detect(header).String()
	body := io.MultiReader(bytes.NewReader(header), req.Content)

	id := mediaid.New()
	key := PrimaryKey(id, kind, req.FileName)

	if err := s.storage.Upload(ctx, key, body, req.Size, contentType); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal,
			"store upload", err, "4c1d9e2a-7b3f-4d08-a1c6-0e5b2d7f3a05")
	}

	title := req.Title
	if title == "" {
		title = req.FileName
	}
	asset := &MediaAsset{
		ID:         id,
		Title:      title,
		FileName:   req.FileName,
		Kind:       kind,
		MimeType:   contentType,
		SizeBytes:  req.Size,
		StorageKey: key,
		Tags:       req.Tags,
		UploadedBy: req.RequesterID,
	}

	if err := s.repo.Create(ctx, asset); err != nil {
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			s.log.Warn().Err(delErr).Str("key", key).Msg("failed to remove orphaned upload")
		}
		return nil, err
	}

	metrics.RecordUpload(string(kind), "success", req.Size)
	s.log.Info().
		Str("media_id", id).
		Str("kind", string(kind)).
		Int64("bytes", req.Size).
		Str("uploaded_by", req.RequesterID).
		Msg("media ingested")

	if kind.Derivable() {
		// Detached from the request: a client disconnect must not leave a
		// half-derived artifact set behind.
		go s.runDerivation(context.WithoutCancel(ctx), asset)
	}

	return asset, nil
}

func (s *Service) runDerivation(ctx context.Context, asset *MediaAsset) {
	if _, err := s.deriver.Derive(ctx, asset); err != nil {
		s.log.Error().Err(err).Str("media_id", asset.ID).Msg("background derivation failed")
	}
}

// Get returns asset metadata.
func (s *Service) Get(ctx context.Context, id string) (*MediaAsset, error) {
	asset, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, s.notFound(ctx, id)
	}
	return asset, nil
}

// Rederive re-runs derivation for an existing video or audio asset and
// returns the refreshed metadata.
func (s *Service) Rederive(ctx context.Context, id string) (*MediaAsset, error) {
	asset, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !asset.Kind.Derivable() {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("derivation does not apply to %s assets", asset.Kind), nil, "91f4c7b2-3e6d-4a4f-bc08-2d9e5f7a1c06")
	}
	return s.deriver.Derive(ctx, asset)
}

// Delete removes the asset row together with its primary object and every
// thumbnail artifact. Storage failures are logged and do not keep the row
// alive.
func (s *Service) Delete(ctx context.Context, id string) error {
	asset, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	keys, err := s.storage.List(ctx, ThumbnailPrefix(id))
	if err != nil {
		s.log.Warn().Err(err).Str("media_id", id).Msg("failed to list thumbnails for delete")
	}
	for _, key := range keys {
		if err := s.storage.Delete(ctx, key); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("failed to delete thumbnail")
		}
	}
	if err := s.storage.Delete(ctx, asset.StorageKey); err != nil {
		s.log.Warn().Err(err).Str("key", asset.StorageKey).Msg("failed to delete primary object")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.log.Info().Str("media_id", id).Msg("media deleted")
	return nil
}

// DownloadPrimary fetches the original object contents for streaming.
func (s *Service) DownloadPrimary(ctx context.Context, id string) (io.ReadCloser, string, error) {
	asset, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	reader, mime, err := s.storage.Download(ctx, asset.StorageKey)
	if err != nil {
		return nil, "", platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal,
			"fetch media object", err, "5e2a8d1f-6c4b-4e3a-9f07-1b8c3d5e2f07")
	}
	if mime == "" {
		mime = asset.MimeType
	}
	return reader, mime, nil
}

// DownloadThumbnail fetches the current thumbnail bytes.
func (s *Service) DownloadThumbnail(ctx context.Context, id string) (io.ReadCloser, string, error) {
	asset, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if asset.ThumbnailKey == nil {
		return nil, "", platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
			fmt.Sprintf("media %s has no thumbnail", id), nil, "c4d7e9a1-2b5f-4c8d-a3e6-9f0b1c2d3e08")
	}
	reader, mime, err := s.storage.Download(ctx, *asset.ThumbnailKey)
	if err != nil {
		return nil, "", platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal,
			"fetch thumbnail object", err, "a1b2c3d4-5e6f-4a7b-8c9d-0e1f2a3b4c09")
	}
	return reader, mime, nil
}

// Healthy reports storage backend health for the readiness probe.
func (s *Service) Healthy(ctx context.Context) error {
	return s.storage.Health(ctx)
}

func (s *Service) notFound(ctx context.Context, id string) *platformerrors.PlatformError {
	return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
		fmt.Sprintf("media %s not found", id), nil, "8f3e1d5c-9a2b-4f6e-b7d0-4c5a6e7f8a10")
}
