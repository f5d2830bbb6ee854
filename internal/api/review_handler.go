package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"renoleads-backend-go/internal/core"
	"renoleads-backend-go/internal/models"
)

// ReviewHandler handles public review submission and admin moderation.
type ReviewHandler struct {
	reviewService core.ReviewService
	logger        *zap.Logger
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(rs core.ReviewService, logger *zap.Logger) *ReviewHandler {
	return &ReviewHandler{reviewService: rs, logger: logger}
}

func (h *ReviewHandler) mapReviewErrorToStatus(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrArtisanNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: core.ErrArtisanNotFound.Error()})
	case errors.Is(err, core.ErrReviewNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: core.ErrReviewNotFound.Error()})
	case errors.Is(err, core.ErrInvalidRating):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid rating", Details: err.Error()})
	default:
		h.logger.Error("Review endpoint failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "An unexpected internal server error occurred."})
	}
}

// CreateReview handles POST /artisans/:artisanId/reviews
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	artisanID := c.Param("artisanId")
	if artisanID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Artisan ID is required"})
		return
	}

	var req models.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	review, err := h.reviewService.CreateReview(c.Request.Context(), artisanID, req)
	if err != nil {
		h.mapReviewErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

// ModerateReview handles PUT /admin/artisans/:artisanId/reviews/:reviewId
func (h *ReviewHandler) ModerateReview(c *gin.Context) {
	artisanID := c.Param("artisanId")
	reviewID := c.Param("reviewId")
	moderatorID := c.GetString("userID")

	var req models.ModerateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	review, err := h.reviewService.ModerateReview(c.Request.Context(), artisanID, reviewID, moderatorID, req)
	if err != nil {
		h.mapReviewErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

// DeleteReview handles DELETE /admin/artisans/:artisanId/reviews/:reviewId
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	artisanID := c.Param("artisanId")
	reviewID := c.Param("reviewId")

	if err := h.reviewService.DeleteReview(c.Request.Context(), artisanID, reviewID); err != nil {
		h.mapReviewErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Review deleted"})
}
