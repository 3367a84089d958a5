package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/tbnobed/tdmedia-sub001/internal/interfaces/httpserver/handlers"
)

// Routes encapsulates versioned route registration.
type Routes struct {
	handlers *handlers.Provider
}

func NewRoutes(provider *handlers.Provider) *Routes {
	return &Routes{handlers: provider}
}

// Register attaches all v1 routes under the /v1 prefix.
func (r *Routes) Register(router gin.IRouter) {
	group := router.Group("/v1")

	group.POST("/media", r.handlers.Media.Ingest)
	group.GET("/media/:id", r.handlers.Media.Get)
	group.DELETE("/media/:id", r.handlers.Media.Delete)
	group.POST("/media/:id/derive", r.handlers.Media.Rederive)
	group.POST("/media/:id/stream-url", r.handlers.Media.IssueStreamURL)
	group.GET("/media/:id/thumbnail", r.handlers.Media.Thumbnail)

	group.GET("/stream/:id", r.handlers.Stream.Serve)
}
