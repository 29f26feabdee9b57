// File: internal/profile/handler.go
package profile

import (
	"minitorque_web/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler serves the profile of the signed-in user.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new profile handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger.Named("ProfileHandler"),
	}
}

// RegisterRoutes sets up the routes for profile operations behind sessionMW.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, sessionMW gin.HandlerFunc) {
	userGroup := router.Group("/users", sessionMW)
	{
		userGroup.GET("/me", h.getMe)
	}
}

func (h *Handler) getMe(c *gin.Context) {
	uid := c.GetString(common.SessionUserIDKey)
	if uid == "" {
		h.logger.Error("User ID not found in context for /me", zap.String("path", c.Request.URL.Path))
		common.RespondWithError(c, common.ErrInternalServer.WithDetails("User identifier missing."))
		return
	}
	record, err := h.service.Get(c.Request.Context(), uid)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "User profile retrieved successfully.", ToResponse(record))
}
