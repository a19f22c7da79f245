package files

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"scriptrack/internal/pkg/response"
)

// Blobs are immutable once stored (a re-upload gets a new key), so
// aggressive caching is safe.
const cacheControl = "public, max-age=31536000, immutable"

type Handler struct {
	resolver *Resolver
}

func NewHandler(resolver *Resolver) *Handler {
	return &Handler{resolver: resolver}
}

// Serve handles GET /api/files/*filepath. Both of
//
//	/api/files/<key>
//	/api/files/uploads/<key>
//
// resolve to the same blob; the second shape predates the storage
// directory rename and still appears in old records.
func (h *Handler) Serve(c *gin.Context) {
	segments := strings.Split(strings.Trim(c.Param("filepath"), "/"), "/")

	res := h.resolver.Resolve(c.Request.Context(), segments)
	switch res.Outcome {
	case OutcomeFound:
		c.Header("Cache-Control", cacheControl)
		c.Data(http.StatusOK, res.Object.ContentType, res.Object.Data)
	case OutcomeNotFound:
		response.NotFound(c, "file not found")
	default:
		response.Internal(c, "failed to read file")
	}
}

// RegisterRoutes mounts the serving route. Public: locators are embedded
// in pages and mails, so no session check here.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	r.GET("/files/*filepath", h.Serve)
}
