package scripts

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"scriptrack/internal/domain"
	"scriptrack/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Submit(c *gin.Context) {
	userID := mustUserID(c)
	if userID == 0 {
		return
	}

	var req SubmitScriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	script, err := h.service.Submit(c.Request.Context(), userID, req)
	if err != nil {
		response.Internal(c, "failed to submit script")
		return
	}
	response.Success(c, http.StatusCreated, script)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := scriptID(c)
	if !ok {
		return
	}
	script, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrScriptNotFound) {
			response.NotFound(c, "script not found")
			return
		}
		response.Internal(c, "failed to load script")
		return
	}
	response.Success(c, http.StatusOK, script)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := scriptID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrScriptNotFound) {
			response.NotFound(c, "script not found")
			return
		}
		response.Internal(c, "failed to delete script")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": id})
}

// UploadFile handles POST /scripts/:id/files (multipart: file, file_type).
func (h *Handler) UploadFile(c *gin.Context) {
	userID := mustUserID(c)
	if userID == 0 {
		return
	}
	id, ok := scriptID(c)
	if !ok {
		return
	}

	fileType := domain.FileType(c.PostForm("file_type"))
	fh, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "no file provided")
		return
	}

	record, err := h.service.AttachFile(c.Request.Context(), id, userID, fileType, fh)
	if err != nil {
		switch {
		case errors.Is(err, ErrScriptNotFound):
			response.NotFound(c, "script not found")
		case errors.Is(err, ErrInvalidFileType), errors.Is(err, ErrEmptyFile):
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		case errors.Is(err, ErrFileTooLarge):
			response.Error(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", err.Error())
		default:
			response.Internal(c, "upload failed")
		}
		return
	}
	response.Success(c, http.StatusCreated, record)
}

func (h *Handler) ListFiles(c *gin.Context) {
	id, ok := scriptID(c)
	if !ok {
		return
	}
	files, err := h.service.Files(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrScriptNotFound) {
			response.NotFound(c, "script not found")
			return
		}
		response.Internal(c, "failed to list files")
		return
	}
	response.Success(c, http.StatusOK, files)
}

func (h *Handler) SetCover(c *gin.Context) {
	userID := mustUserID(c)
	if userID == 0 {
		return
	}
	id, ok := scriptID(c)
	if !ok {
		return
	}

	var req SetCoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	if err := h.service.SetCover(c.Request.Context(), id, userID, req.URL); err != nil {
		switch {
		case errors.Is(err, ErrScriptNotFound):
			response.NotFound(c, "script not found")
		case errors.Is(err, ErrDanglingCover):
			response.Error(c, http.StatusUnprocessableEntity, "DANGLING_LOCATOR", err.Error())
		default:
			response.Internal(c, "failed to set cover")
		}
		return
	}
	response.Success(c, http.StatusOK, gin.H{"cover_image_url": req.URL})
}

// RegisterRoutes mounts script routes under the authenticated group.
// deleteGuard gates the destructive route (cascade delete) to roles
// allowed to remove scripts.
func RegisterRoutes(r *gin.RouterGroup, h *Handler, deleteGuard gin.HandlerFunc) {
	s := r.Group("/scripts")
	{
		s.POST("", h.Submit)
		s.GET("/:id", h.Get)
		s.DELETE("/:id", deleteGuard, h.Delete)
		s.POST("/:id/files", h.UploadFile)
		s.GET("/:id/files", h.ListFiles)
		s.PUT("/:id/cover", h.SetCover)
	}
}

func scriptID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid script id")
		return 0, false
	}
	return id, true
}

func mustUserID(c *gin.Context) int64 {
	id, exists := c.Get("user_id")
	if !exists {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return 0
	}
	switch v := id.(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	}
	response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid user id")
	return 0
}
