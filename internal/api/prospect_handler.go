package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"renoleads-backend-go/internal/core"
	"renoleads-backend-go/internal/models"
)

// ProspectHandler handles the registration funnel and the admin conversion
// endpoint.
type ProspectHandler struct {
	prospectService   core.ProspectService
	conversionService core.ConversionService
	logger            *zap.Logger
}

// NewProspectHandler creates a new ProspectHandler.
func NewProspectHandler(ps core.ProspectService, cs core.ConversionService, logger *zap.Logger) *ProspectHandler {
	return &ProspectHandler{
		prospectService:   ps,
		conversionService: cs,
		logger:            logger,
	}
}

// mapProspectErrorToStatus maps errors from the prospect/conversion
// services to HTTP status codes.
func (h *ProspectHandler) mapProspectErrorToStatus(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrProspectNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: core.ErrProspectNotFound.Error()})
	case errors.Is(err, core.ErrMissingRequiredFields):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Missing required fields", Details: err.Error()})
	case errors.Is(err, core.ErrInvalidFunnelStep):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid funnel step", Details: err.Error()})
	default:
		h.logger.Error("Prospect endpoint failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "An unexpected internal server error occurred."})
	}
}

// CreateProspect handles POST /prospects
func (h *ProspectHandler) CreateProspect(c *gin.Context) {
	var req models.CreateProspectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	prospect, err := h.prospectService.CreateProspect(c.Request.Context(), req)
	if err != nil {
		h.mapProspectErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusCreated, prospect)
}

// AdvanceFunnel handles PATCH /prospects/:prospectId/step
func (h *ProspectHandler) AdvanceFunnel(c *gin.Context) {
	prospectID := c.Param("prospectId")
	if prospectID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Prospect ID is required"})
		return
	}

	var req models.AdvanceFunnelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	if err := h.prospectService.AdvanceFunnel(c.Request.Context(), prospectID, req.FunnelStep); err != nil {
		h.mapProspectErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Funnel step updated"})
}

// ConvertProspect handles POST /admin/prospects/:prospectId/convert
func (h *ProspectHandler) ConvertProspect(c *gin.Context) {
	prospectID := c.Param("prospectId")
	if prospectID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Prospect ID is required"})
		return
	}

	var req models.ConvertProspectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	resp, err := h.conversionService.ConvertProspect(c.Request.Context(), prospectID, req)
	if err != nil {
		h.mapProspectErrorToStatus(c, err)
		return
	}
	// Duplicate and racing conversions come back as success with
	// alreadyExists set, so admin retries are safe.
	c.JSON(http.StatusOK, resp)
}
