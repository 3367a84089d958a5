package handlers

import (
	"github.com/rs/zerolog"

	"github.com/tbnobed/tdmedia-sub001/internal/config"
	media "github.com/tbnobed/tdmedia-sub001/internal/domain/media"
	"github.com/tbnobed/tdmedia-sub001/internal/domain/streaming"
)

// Provider wires HTTP handlers.
type Provider struct {
	Media  *MediaHandler
	Stream *StreamHandler
}

func NewProvider(cfg *config.Config, mediaService *media.Service, streamService *streaming.Service, log zerolog.Logger) *Provider {
	return &Provider{
		Media:  NewMediaHandler(cfg, mediaService, streamService, log),
		Stream: NewStreamHandler(mediaService, streamService, log),
	}
}
