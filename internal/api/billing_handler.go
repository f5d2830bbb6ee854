package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"renoleads-backend-go/internal/core"
	"renoleads-backend-go/internal/models"
)

// BillingHandler handles subscription plan-change endpoints.
type BillingHandler struct {
	billingService    core.BillingService
	assignmentService core.AssignmentService
	logger            *zap.Logger
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(bs core.BillingService, as core.AssignmentService, logger *zap.Logger) *BillingHandler {
	return &BillingHandler{
		billingService:    bs,
		assignmentService: as,
		logger:            logger,
	}
}

// mapBillingErrorToStatus maps errors from core.BillingService to HTTP
// status codes.
func (h *BillingHandler) mapBillingErrorToStatus(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrArtisanNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: core.ErrArtisanNotFound.Error()})
	case errors.Is(err, core.ErrUnknownPlan):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Unknown plan", Details: err.Error()})
	case errors.Is(err, core.ErrOnlyUpgradesAllowed):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Only upgrades are allowed", Details: err.Error()})
	case errors.Is(err, core.ErrSubscriptionBlocked):
		// 409: the subscription is in a state this workflow cannot safely
		// override; it needs external resolution first.
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Subscription requires external resolution", Details: err.Error()})
	default:
		h.logger.Error("Billing endpoint failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "An unexpected internal server error occurred."})
	}
}

// UpgradeSubscription handles POST /billing/upgrade. The artisan identity
// is resolved from the verified bearer token, never from the request body,
// so a caller cannot upgrade someone else's account.
func (h *BillingHandler) UpgradeSubscription(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}
	userEmail := c.GetString("userEmail")

	var req models.UpgradeSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	artisanID, err := h.assignmentService.ResolveArtisanID(c.Request.Context(), "", userEmail, userID.(string))
	if err != nil {
		h.mapBillingErrorToStatus(c, err)
		return
	}

	subscription, err := h.billingService.UpgradeSubscription(c.Request.Context(), artisanID, req)
	if err != nil {
		h.mapBillingErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, subscription)
}
