package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"renoleads-backend-go/internal/core"
	"renoleads-backend-go/internal/db"
)

// ArtisanHandler handles the artisan self-service endpoints.
type ArtisanHandler struct {
	artisanRepo       db.ArtisanRepository
	assignmentService core.AssignmentService
	logger            *zap.Logger
}

// NewArtisanHandler creates a new ArtisanHandler.
func NewArtisanHandler(ar db.ArtisanRepository, as core.AssignmentService, logger *zap.Logger) *ArtisanHandler {
	return &ArtisanHandler{
		artisanRepo:       ar,
		assignmentService: as,
		logger:            logger,
	}
}

// GetCurrentArtisan handles GET /artisans/me. The artisan document is
// resolved from the verified bearer token, with email lookup as a fallback
// for legacy documents not keyed by auth UID.
func (h *ArtisanHandler) GetCurrentArtisan(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}
	userEmail := c.GetString("userEmail")

	artisanID, err := h.assignmentService.ResolveArtisanID(c.Request.Context(), "", userEmail, userID.(string))
	if err != nil {
		if errors.Is(err, core.ErrArtisanNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "No artisan profile for this account"})
			return
		}
		h.logger.Error("Failed to resolve artisan for current user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "An unexpected internal server error occurred."})
		return
	}

	artisan, err := h.artisanRepo.GetByID(c.Request.Context(), artisanID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "No artisan profile for this account"})
			return
		}
		h.logger.Error("Failed to load artisan profile", zap.String("artisanId", artisanID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "An unexpected internal server error occurred."})
		return
	}
	c.JSON(http.StatusOK, ArtisanProfileResponse{Artisan: artisan})
}
