package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"renoleads-backend-go/internal/core"
	"renoleads-backend-go/internal/models"
)

// EstimationHandler handles the simulator intake and the admin distribution
// endpoints (assignment, pricing, marketplace visibility).
type EstimationHandler struct {
	estimationService core.EstimationService
	assignmentService core.AssignmentService
	logger            *zap.Logger
}

// NewEstimationHandler creates a new EstimationHandler.
func NewEstimationHandler(es core.EstimationService, as core.AssignmentService, logger *zap.Logger) *EstimationHandler {
	return &EstimationHandler{
		estimationService: es,
		assignmentService: as,
		logger:            logger,
	}
}

// mapEstimationErrorToStatus maps errors from the estimation/assignment
// services to HTTP status codes.
func (h *EstimationHandler) mapEstimationErrorToStatus(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrEstimationNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: core.ErrEstimationNotFound.Error()})
	case errors.Is(err, core.ErrArtisanNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: core.ErrArtisanNotFound.Error()})
	case errors.Is(err, core.ErrAssignmentNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: core.ErrAssignmentNotFound.Error()})
	case errors.Is(err, core.ErrMissingEstimationFields):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Missing required fields", Details: err.Error()})
	case errors.Is(err, core.ErrInvalidStatus), errors.Is(err, core.ErrInvalidStatusTransition):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid status change", Details: err.Error()})
	default:
		h.logger.Error("Estimation endpoint failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "An unexpected internal server error occurred."})
	}
}

// CreateEstimation handles POST /estimations
func (h *EstimationHandler) CreateEstimation(c *gin.Context) {
	var req models.CreateEstimationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	estimation, err := h.estimationService.CreateEstimation(c.Request.Context(), req)
	if err != nil {
		h.mapEstimationErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusCreated, estimation)
}

// SetStatus handles PUT /admin/estimations/:estimationId/status
func (h *EstimationHandler) SetStatus(c *gin.Context) {
	estimationID := c.Param("estimationId")

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	if err := h.estimationService.SetStatus(c.Request.Context(), estimationID, req.Status); err != nil {
		h.mapEstimationErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Status updated"})
}

// SetPublished handles PUT /admin/estimations/:estimationId/published
func (h *EstimationHandler) SetPublished(c *gin.Context) {
	estimationID := c.Param("estimationId")

	var req models.SetPublishedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	if err := h.estimationService.SetPublished(c.Request.Context(), estimationID, req.IsPublished); err != nil {
		h.mapEstimationErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Marketplace visibility updated"})
}

// AssignArtisan handles POST /admin/estimations/:estimationId/assignments
func (h *EstimationHandler) AssignArtisan(c *gin.Context) {
	estimationID := c.Param("estimationId")

	var req models.AssignArtisanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	assignments, err := h.assignmentService.AssignArtisan(c.Request.Context(), estimationID, req.ArtisanID)
	if err != nil {
		h.mapEstimationErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, AssignmentListResponse{EstimationID: estimationID, Assignments: assignments})
}

// RemoveAssignment handles DELETE /admin/estimations/:estimationId/assignments/:artisanId
func (h *EstimationHandler) RemoveAssignment(c *gin.Context) {
	estimationID := c.Param("estimationId")
	artisanID := c.Param("artisanId")

	assignments, err := h.assignmentService.RemoveAssignment(c.Request.Context(), estimationID, artisanID)
	if err != nil {
		h.mapEstimationErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, AssignmentListResponse{EstimationID: estimationID, Assignments: assignments})
}

// UpdateAssignmentPrice handles PUT /admin/estimations/:estimationId/assignments/:artisanId/price
func (h *EstimationHandler) UpdateAssignmentPrice(c *gin.Context) {
	estimationID := c.Param("estimationId")
	artisanID := c.Param("artisanId")

	var req models.UpdateAssignmentPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	assignments, err := h.assignmentService.UpdateAssignmentPrice(c.Request.Context(), estimationID, artisanID, req.Price)
	if err != nil {
		h.mapEstimationErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, AssignmentListResponse{EstimationID: estimationID, Assignments: assignments})
}
