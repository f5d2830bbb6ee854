package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"renoleads-backend-go/internal/core"
	"renoleads-backend-go/internal/db"
	"renoleads-backend-go/internal/middleware"
)

// SetupRoutes configures all the application routes with their handlers and
// middleware. Global middleware (Logging, Recovery, CORS) are applied to
// the router instance before this function is called, in main.go.
func SetupRoutes(
	router *gin.Engine,
	logger *zap.Logger,
	userRepo db.UserRepository,
	artisanRepo db.ArtisanRepository,
	prospectService core.ProspectService,
	conversionService core.ConversionService,
	estimationService core.EstimationService,
	assignmentService core.AssignmentService,
	billingService core.BillingService,
	reviewService core.ReviewService,
) {
	firebaseAuthClient := db.GetFirebaseAuthClient()
	if firebaseAuthClient == nil {
		logger.Fatal("Firebase Auth client is not initialized; routes cannot be secured")
	}
	authMW := middleware.NewAuthMiddleware(firebaseAuthClient, userRepo, logger)

	prospectHandler := NewProspectHandler(prospectService, conversionService, logger)
	estimationHandler := NewEstimationHandler(estimationService, assignmentService, logger)
	billingHandler := NewBillingHandler(billingService, assignmentService, logger)
	reviewHandler := NewReviewHandler(reviewService, logger)
	artisanHandler := NewArtisanHandler(artisanRepo, assignmentService, logger)

	apiV1 := router.Group("/api/v1")
	{
		// --- Public endpoints: funnel intake, simulator, reviews ---
		apiV1.POST("/prospects", prospectHandler.CreateProspect)
		apiV1.PATCH("/prospects/:prospectId/step", prospectHandler.AdvanceFunnel)
		apiV1.POST("/estimations", estimationHandler.CreateEstimation)
		apiV1.POST("/artisans/:artisanId/reviews", reviewHandler.CreateReview)

		// --- Authenticated artisan self-service ---
		apiV1.GET("/artisans/me", authMW.VerifyToken(), artisanHandler.GetCurrentArtisan)
		apiV1.POST("/billing/upgrade", authMW.VerifyToken(), billingHandler.UpgradeSubscription)

		// --- Admin endpoints ---
		adminGroup := apiV1.Group("/admin", authMW.VerifyToken(), authMW.RequireAdmin())
		{
			adminGroup.POST("/prospects/:prospectId/convert", prospectHandler.ConvertProspect)

			estimationsGroup := adminGroup.Group("/estimations/:estimationId")
			{
				estimationsGroup.PUT("/status", estimationHandler.SetStatus)
				estimationsGroup.PUT("/published", estimationHandler.SetPublished)
				estimationsGroup.POST("/assignments", estimationHandler.AssignArtisan)
				estimationsGroup.DELETE("/assignments/:artisanId", estimationHandler.RemoveAssignment)
				estimationsGroup.PUT("/assignments/:artisanId/price", estimationHandler.UpdateAssignmentPrice)
			}

			reviewsGroup := adminGroup.Group("/artisans/:artisanId/reviews")
			{
				reviewsGroup.PUT("/:reviewId", reviewHandler.ModerateReview)
				reviewsGroup.DELETE("/:reviewId", reviewHandler.DeleteReview)
			}
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
