package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	domain "github.com/tbnobed/tdmedia-sub001/internal/domain/media"
	"github.com/tbnobed/tdmedia-sub001/internal/domain/streaming"
	"github.com/tbnobed/tdmedia-sub001/internal/infrastructure/auth"
	"github.com/tbnobed/tdmedia-sub001/internal/infrastructure/metrics"
	"github.com/tbnobed/tdmedia-sub001/internal/interfaces/httpserver/responses"
	"github.com/tbnobed/tdmedia-sub001/internal/utils/redact"
)

// streamDeniedBody is the single response every rejected stream request
// gets, whatever the internal reason. Distinguishable denials would hand an
// attacker an oracle for probing signatures and expiry windows.
const streamDeniedBody = "unable to prepare stream"

// StreamHandler serves signed stream requests.
type StreamHandler struct {
	media  *domain.Service
	stream *streaming.Service
	log    zerolog.Logger
}

func NewStreamHandler(media *domain.Service, stream *streaming.Service, log zerolog.Logger) *StreamHandler {
	return &StreamHandler{
		media:  media,
		stream: stream,
		log:    log.With().Str("component", "stream-handler").Logger(),
	}
}

// Serve godoc
// @Summary      Stream media bytes
// @Description  Serves the primary object when the signed grant checks out. Every rejection returns the same opaque 403.
// @Tags         stream
// @Produce      octet-stream
// @Param        id         path   string  true  "Media ID"
// @Param        timestamp  query  int     true  "Grant issue instant, epoch milliseconds"
// @Param        signature  query  string  true  "Grant signature, lowercase hex"
// @Success      200  "binary data"
// @Failure      403  {object}  map[string]string
// @Router       /v1/stream/{id} [get]
func (h *StreamHandler) Serve(c *gin.Context) {
	mediaID := c.Param("id")
	requesterID := auth.Subject(c)

	timestampRaw := c.Query("timestamp")
	signature := c.Query("signature")
	if timestampRaw == "" || signature == "" {
		h.deny(c, mediaID, streaming.ErrMalformedGrant)
		return
	}
	issuedAtMilli, err := strconv.ParseInt(timestampRaw, 10, 64)
	if err != nil {
		h.deny(c, mediaID, streaming.ErrMalformedGrant)
		return
	}

	if err := h.stream.Verify(mediaID, requesterID, issuedAtMilli, signature); err != nil {
		h.deny(c, mediaID, err)
		return
	}

	reader, contentType, err := h.media.DownloadPrimary(c.Request.Context(), mediaID)
	if err != nil {
		responses.HandleError(c, err, "media not found")
		return
	}
	defer reader.Close()

	metrics.RecordStreamServed()

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "private, no-store")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, reader); err != nil {
		h.log.Error().Err(err).Str("media_id", mediaID).Msg("stream copy error")
	}
}

// deny logs and counts the internal rejection reason, then answers with the
// uniform body. The query is logged with the signature digested so a denial
// can be matched against its issue log line without storing the signature.
func (h *StreamHandler) deny(c *gin.Context, mediaID string, reason error) {
	metrics.RecordStreamDenial(denialReason(reason))
	h.log.Warn().
		Err(reason).
		Str("media_id", mediaID).
		Str("client_ip", c.ClientIP()).
		Str("query", redact.Query(c.Request.URL.RawQuery)).
		Msg("stream request denied")
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": streamDeniedBody})
}

func denialReason(err error) string {
	switch {
	case errors.Is(err, streaming.ErrSignatureMismatch):
		return "signature_mismatch"
	case errors.Is(err, streaming.ErrGrantExpired):
		return "expired"
	case errors.Is(err, streaming.ErrGrantFromFuture):
		return "future_timestamp"
	case errors.Is(err, streaming.ErrMalformedGrant):
		return "malformed"
	default:
		return "unknown"
	}
}
