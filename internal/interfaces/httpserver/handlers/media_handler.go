package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tbnobed/tdmedia-sub001/internal/config"
	domain "github.com/tbnobed/tdmedia-sub001/internal/domain/media"
	"github.com/tbnobed/tdmedia-sub001/internal/domain/streaming"
	"github.com/tbnobed/tdmedia-sub001/internal/infrastructure/auth"
	"github.com/tbnobed/tdmedia-sub001/internal/infrastructure/metrics"
	"github.com/tbnobed/tdmedia-sub001/internal/interfaces/httpserver/requests"
	"github.com/tbnobed/tdmedia-sub001/internal/interfaces/httpserver/responses"
	"github.com/tbnobed/tdmedia-sub001/internal/utils/platformerrors"
)

// MediaHandler exposes the media catalog endpoints.
type MediaHandler struct {
	cfg     *config.Config
	service *domain.Service
	stream  *streaming.Service
	log     zerolog.Logger
}

func NewMediaHandler(cfg *config.Config, service *domain.Service, stream *streaming.Service, log zerolog.Logger) *MediaHandler {
	return &MediaHandler{
		cfg:     cfg,
		service: service,
		stream:  stream,
		log:     log.With().Str("component", "media-handler").Logger(),
	}
}

// Ingest godoc
// @Summary      Upload media
// @Description  Accepts a multipart upload, classifies it by extension and stores it. Video and audio kick off thumbnail and duration derivation in the background.
// @Tags         media
// @Accept       multipart/form-data
// @Produce      json
// @Param        file   formData  file    true   "File to upload"
// @Param        title  formData  string  false  "Display title"
// @Param        kind   formData  string  false  "Declared kind (document|image|video|presentation|audio)"
// @Param        tags   formData  string  false  "Comma separated tags"
// @Success      201    {object}  responses.MediaAssetResponse
// @Failure      400    {object}  responses.ErrorResponse
// @Security     ApiKeyAuth
// @Router       /v1/media [post]
func (h *MediaHandler) Ingest(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "file is required",
			"9e1b3d5f-2a4c-4e6b-8d0f-1a2b3c4d5e60")
		return
	}
	defer file.Close()

	var form requests.IngestForm
	if err := c.ShouldBind(&form); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error(),
			"3c5d7e9f-4b6a-4c8d-9e1f-2b3c4d5e6f61")
		return
	}

	req, err := form.ToDomain(header.Filename, header.Size, file, auth.Subject(c))
	if err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error(),
			"7f9a1b3c-6d8e-4a0b-8c2d-3e4f5a6b7c62")
		return
	}

	asset, err := h.service.Ingest(c.Request.Context(), req)
	if err != nil {
		h.log.Warn().Err(err).Str("file_name", header.Filename).Msg("ingest rejected")
		responses.HandleError(c, err, "ingest failed")
		return
	}

	c.JSON(http.StatusCreated, responses.BuildMediaAssetResponse(asset))
}

// Get godoc
// @Summary      Get media metadata
// @Description  Returns the catalog entry, including derived thumbnail and duration once available.
// @Tags         media
// @Produce      json
// @Param        id   path      string  true  "Media ID (td_xxx)"
// @Success      200  {object}  responses.MediaAssetResponse
// @Failure      404  {object}  responses.ErrorResponse
// @Security     ApiKeyAuth
// @Router       /v1/media/{id} [get]
func (h *MediaHandler) Get(c *gin.Context) {
	asset, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		responses.HandleError(c, err, "media not found")
		return
	}
	c.JSON(http.StatusOK, responses.BuildMediaAssetResponse(asset))
}

// Delete godoc
// @Summary      Delete media
// @Description  Removes the asset, its primary object and every thumbnail artifact.
// @Tags         media
// @Produce      json
// @Param        id   path      string  true  "Media ID"
// @Success      204  "deleted"
// @Failure      404  {object}  responses.ErrorResponse
// @Security     ApiKeyAuth
// @Router       /v1/media/{id} [delete]
func (h *MediaHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		responses.HandleError(c, err, "delete failed")
		return
	}
	c.Status(http.StatusNoContent)
}

// Rederive godoc
// @Summary      Re-run derivation
// @Description  Probes duration and regenerates the thumbnail for a video or audio asset. Synchronous; returns the refreshed entry.
// @Tags         media
// @Produce      json
// @Param        id   path      string  true  "Media ID"
// @Success      200  {object}  responses.MediaAssetResponse
// @Failure      404  {object}  responses.ErrorResponse
// @Security     ApiKeyAuth
// @Router       /v1/media/{id}/derive [post]
func (h *MediaHandler) Rederive(c *gin.Context) {
	asset, err := h.service.Rederive(c.Request.Context(), c.Param("id"))
	if err != nil {
		responses.HandleError(c, err, "derivation failed")
		return
	}
	c.JSON(http.StatusOK, responses.BuildMediaAssetResponse(asset))
}

// IssueStreamURL godoc
// @Summary      Issue a signed stream URL
// @Description  Mints a short-lived signed URL for streaming the asset. The grant is bound to the requesting session and cannot be replayed by another user.
// @Tags         media
// @Produce      json
// @Param        id   path      string  true  "Media ID"
// @Success      200  {object}  responses.StreamURLResponse
// @Failure      404  {object}  responses.ErrorResponse
// @Security     ApiKeyAuth
// @Router       /v1/media/{id}/stream-url [post]
func (h *MediaHandler) IssueStreamURL(c *gin.Context) {
	asset, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		responses.HandleError(c, err, "media not found")
		return
	}

	grant := h.stream.Issue(asset.ID, auth.Subject(c))
	metrics.RecordGrantIssued()

	c.JSON(http.StatusOK, responses.BuildStreamURLResponse(grant, h.stream.TTL()))
}

// Thumbnail godoc
// @Summary      Serve the current thumbnail
// @Description  Streams the thumbnail bytes for the asset. Exactly one thumbnail exists per asset once derivation has run.
// @Tags         media
// @Produce      image/jpeg
// @Param        id   path      string  true  "Media ID"
// @Success      200  "binary data"
// @Failure      404  {object}  responses.ErrorResponse
// @Security     ApiKeyAuth
// @Router       /v1/media/{id}/thumbnail [get]
func (h *MediaHandler) Thumbnail(c *gin.Context) {
	reader, contentType, err := h.service.DownloadThumbnail(c.Request.Context(), c.Param("id"))
	if err != nil {
		responses.HandleError(c, err, "thumbnail not available")
		return
	}
	defer reader.Close()

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "private, no-store")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, reader); err != nil {
		h.log.Error().Err(err).Str("media_id", c.Param("id")).Msg("thumbnail stream error")
	}
}
