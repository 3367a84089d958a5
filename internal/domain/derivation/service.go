package derivation

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/tbnobed/tdmedia-sub001/internal/config"
	"github.com/tbnobed/tdmedia-sub001/internal/domain/media"
	"github.com/tbnobed/tdmedia-sub001/internal/infrastructure/metrics"
	"github.com/tbnobed/tdmedia-sub001/internal/utils/platformerrors"
)

// Thumbnail ladder rungs, in the order they are tried.
const (
	rungFramePrimary = "frame_primary"
	rungFrameRetry   = "frame_retry"
	rungPlaceholder  = "placeholder"
)

const (
	frameQualityPrimary = 2
	frameQualityRetry   = 5
)

// Prober reports a media file's duration in seconds.
type Prober interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
}

// FrameExtractor grabs a single frame from a video file.
type FrameExtractor interface {
	ExtractFrame(ctx context.Context, inputPath, outputPath string, offset time.Duration, quality int) error
}

// Service runs the derivation pipeline for video and audio assets: probe the
// duration, walk the thumbnail ladder, swap the artifact in atomically and
// persist the result. Concurrent triggers for the same asset coalesce into
// one run.
type Service struct {
	repo      media.Repository
	storage   media.Storage
	prober    Prober
	extractor FrameExtractor
	offsets   []time.Duration
	log       zerolog.Logger
	group     singleflight.Group
}

func NewService(cfg *config.Config, repo media.Repository, storage media.Storage, prober Prober, extractor FrameExtractor, log zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		storage:   storage,
		prober:    prober,
		extractor: extractor,
		offsets:   cfg.DeriveFrameOffsets,
		log:       log.With().Str("component", "derivation").Logger(),
	}
}

// Derive produces and persists preview artifacts for the asset. Duplicate
// concurrent calls for one asset share a single execution, which keeps the
// "exactly one current thumbnail" invariant under racing triggers. The work
// runs detached from the caller's context: cancelling an upload request
// never leaves a half-written artifact set.
func (s *Service) Derive(ctx context.Context, asset *media.MediaAsset) (*media.MediaAsset, error) {
	if !asset.Kind.Derivable() {
		return asset, nil
	}

	result, err, shared := s.group.Do(asset.ID, func() (any, error) {
		return s.derive(context.WithoutCancel(ctx), asset)
	})
	if err != nil {
		metrics.RecordDerivation(string(asset.Kind), "none", "error", 0)
		return nil, err
	}
	if shared {
		s.log.Debug().Str("media_id", asset.ID).Msg("derivation shared with concurrent trigger")
	}
	return result.(*media.MediaAsset), nil
}

func (s *Service) derive(ctx context.Context, asset *media.MediaAsset) (*media.MediaAsset, error) {
	start := time.Now()

	workDir, err := os.MkdirTemp("", "tdmedia-derive-")
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal,
			"create derivation workspace", err, "e7c1a4f2-8b3d-4e5a-9c06-1d2f3a4b5c11")
	}
	defer os.RemoveAll(workDir)

	localPath, srcErr := s.fetchSource(ctx, asset, workDir)
	if srcErr != nil {
		s.log.Warn().Err(srcErr).Str("media_id", asset.ID).Msg("source unavailable; deriving placeholder artifacts")
	}

	durationLabel := ZeroDurationLabel
	if srcErr == nil {
		if seconds, err := s.prober.ProbeDuration(ctx, localPath); err != nil {
			metrics.RecordToolFailure("ffprobe")
			s.log.Warn().Err(err).Str("media_id", asset.ID).Msg("duration probe failed; using zero label")
		} else {
			durationLabel = FormatDuration(seconds)
		}
	}

	thumbBytes, thumbExt, rung, err := s.deriveThumbnail(ctx, asset, workDir, localPath, srcErr == nil)
	if err != nil {
		return nil, err
	}

	thumbKey := media.NewThumbnailKey(asset.ID, thumbExt)
	s.sweepThumbnails(ctx, asset.ID)

	contentType := "image/jpeg"
	if thumbExt == ".png" {
		contentType = "image/png"
	}
	if err := s.storage.Upload(ctx, thumbKey, bytes.NewReader(thumbBytes), int64(len(thumbBytes)), contentType); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal,
			"store thumbnail", err, "3b9d5e7f-1a2c-4d6e-8f00-9a1b2c3d4e12")
	}

	if err := s.repo.UpdateDerived(ctx, asset.ID, &thumbKey, &durationLabel); err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	metrics.RecordDerivation(string(asset.Kind), rung, "success", elapsed.Seconds())
	s.log.Info().
		Str("media_id", asset.ID).
		Str("kind", string(asset.Kind)).
		Str("rung", rung).
		Str("duration_label", durationLabel).
		Dur("elapsed", elapsed).
		Msg("derivation complete")

	updated := *asset
	updated.ThumbnailKey = &thumbKey
	updated.DurationLabel = &durationLabel
	return &updated, nil
}

// deriveThumbnail walks the ladder: frame grab at the primary offset, frame
// grab at the retry offset with coarser quality, then the synthetic
// placeholder. Audio skips straight to the placeholder.
func (s *Service) deriveThumbnail(ctx context.Context, asset *media.MediaAsset, workDir, localPath string, haveSource bool) ([]byte, string, string, error) {
	if asset.Kind == media.KindVideo && haveSource {
		for i, offset := range s.offsets {
			quality := frameQualityPrimary
			rung := rungFramePrimary
			if i > 0 {
				quality = frameQualityRetry
				rung = rungFrameRetry
			}

			framePath := filepath.Join(workDir, fmt.Sprintf("frame-%d.jpg", i))
			if err := s.extractor.ExtractFrame(ctx, localPath, framePath, offset, quality); err != nil {
				metrics.RecordToolFailure("ffmpeg")
				s.log.Warn().Err(err).
					Str("media_id", asset.ID).
					Dur("offset", offset).
					Msg("frame extraction failed; trying next rung")
				continue
			}
			data, err := os.ReadFile(framePath)
			if err != nil || len(data) == 0 {
				s.log.Warn().Err(err).Str("media_id", asset.ID).Msg("extracted frame unreadable; trying next rung")
				continue
			}
			return data, ".jpg", rung, nil
		}
	}

	data, err := RenderPlaceholder(asset.ID, asset.Kind)
	if err != nil {
		return nil, "", "", platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal,
			"render placeholder", err, "6f2e8c4a-5b7d-4f1e-a3c9-0d1e2f3a4b13")
	}
	return data, ".png", rungPlaceholder, nil
}

// fetchSource copies the primary object into the workspace so external tools
// can seek in it.
func (s *Service) fetchSource(ctx context.Context, asset *media.MediaAsset, workDir string) (string, error) {
	reader, _, err := s.storage.Download(ctx, asset.StorageKey)
	if err != nil {
		return "", fmt.Errorf("download source: %w", err)
	}
	defer reader.Close()

	localPath := filepath.Join(workDir, "source"+filepath.Ext(asset.StorageKey))
	file, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("create workspace file: %w", err)
	}
	if _, err := io.Copy(file, reader); err != nil {
		file.Close()
		return "", fmt.Errorf("copy source: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("flush workspace file: %w", err)
	}
	return localPath, nil
}

// sweepThumbnails deletes every existing thumbnail for the asset before the
// replacement is written. Failures are logged and counted, never fatal: a
// leftover artifact is preferable to a failed derivation.
func (s *Service) sweepThumbnails(ctx context.Context, mediaID string) {
	keys, err := s.storage.List(ctx, media.ThumbnailPrefix(mediaID))
	if err != nil {
		s.log.Warn().Err(err).Str("media_id", mediaID).Msg("failed to list stale thumbnails")
		return
	}
	for _, key := range keys {
		if err := s.storage.Delete(ctx, key); err != nil {
			metrics.RecordJanitorDeletion("error")
			s.log.Warn().Err(err).Str("key", key).Msg("failed to delete stale thumbnail")
			continue
		}
		metrics.RecordJanitorDeletion("success")
	}
}
