package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"namespaced-cache/internal/cache"
	"namespaced-cache/internal/domain"
	"namespaced-cache/internal/service"
	"namespaced-cache/pkg/logger"
)

// CacheHandler handles HTTP requests for namespaced cache operations
type CacheHandler struct {
	service service.CacheService
	logger  *logger.Logger
}

// NewCacheHandler creates a new cache handler with dependencies
func NewCacheHandler(service service.CacheService, logger *logger.Logger) *CacheHandler {
	return &CacheHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes mounts the cache endpoints on group
func (h *CacheHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.PUT("/cache/:key", h.SetValue)
	group.GET("/cache/:key", h.GetValue)
	group.DELETE("/cache/:key", h.DeleteValue)
	group.GET("/cache/:key/exists", h.HasValue)
	group.GET("/cache/:key/storage-key", h.StorageKey)
	group.POST("/batch", h.SetValues)
	group.POST("/batch/get", h.GetValues)
}

// SetValue handles PUT /api/v1/cache/:key
func (h *CacheHandler) SetValue(c *gin.Context) {
	var req domain.SetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	response, err := h.service.Put(c.Request.Context(), c.Param("key"), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetValue handles GET /api/v1/cache/:key
// The optional default query parameter is returned on a miss
func (h *CacheHandler) GetValue(c *gin.Context) {
	var def any
	if value, ok := c.GetQuery("default"); ok {
		def = value
	}

	response, err := h.service.Fetch(c.Request.Context(), c.Param("key"), def)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// HasValue handles GET /api/v1/cache/:key/exists
func (h *CacheHandler) HasValue(c *gin.Context) {
	response, err := h.service.Exists(c.Request.Context(), c.Param("key"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// DeleteValue handles DELETE /api/v1/cache/:key
func (h *CacheHandler) DeleteValue(c *gin.Context) {
	response, err := h.service.Remove(c.Request.Context(), c.Param("key"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// StorageKey handles GET /api/v1/cache/:key/storage-key
func (h *CacheHandler) StorageKey(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.StorageKey(c.Param("key")))
}

// SetValues handles POST /api/v1/batch
func (h *CacheHandler) SetValues(c *gin.Context) {
	var req domain.SetMultipleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	response, err := h.service.PutMany(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetValues handles POST /api/v1/batch/get
// Values come back keyed by storage key, the way the store reports them
func (h *CacheHandler) GetValues(c *gin.Context) {
	var req domain.GetMultipleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	response, err := h.service.FetchMany(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *CacheHandler) badRequest(c *gin.Context, err error) {
	h.logger.Warnw("Invalid request body", "error", err)
	c.JSON(http.StatusBadRequest, domain.ErrorResponse{
		Error:   "invalid_request",
		Message: domain.ErrInvalidRequest.Error() + ": " + err.Error(),
		Code:    http.StatusBadRequest,
	})
}

// handleError processes domain errors and returns appropriate HTTP responses
func (h *CacheHandler) handleError(c *gin.Context, err error) {
	var appErr *domain.AppError

	switch {
	case errors.Is(err, cache.ErrInvalidKey):
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{
			Error:   "invalid_key",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})

	case errors.As(err, &appErr):
		// Log internal errors but don't expose details to users
		if appErr.Internal {
			h.logger.Errorw("Internal server error", "error", appErr.Err)
			c.JSON(appErr.StatusCode, domain.ErrorResponse{
				Error:   "internal_error",
				Message: appErr.Message,
				Code:    appErr.StatusCode,
			})
		} else {
			c.JSON(appErr.StatusCode, domain.ErrorResponse{
				Error:   "client_error",
				Message: appErr.Message,
				Code:    appErr.StatusCode,
			})
		}

	default:
		h.logger.Errorw("Unexpected error", "error", err)
		c.JSON(http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "internal_error",
			Message: "An unexpected error occurred",
			Code:    http.StatusInternalServerError,
		})
	}
}
