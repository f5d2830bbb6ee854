package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"renoleads-backend-go/internal/api"
	"renoleads-backend-go/internal/cache"
	"renoleads-backend-go/internal/config"
	"renoleads-backend-go/internal/core"
	"renoleads-backend-go/internal/db"
	"renoleads-backend-go/internal/events"
	"renoleads-backend-go/internal/identity"
	"renoleads-backend-go/internal/mailer"
	"renoleads-backend-go/internal/middleware"
	"renoleads-backend-go/internal/payments"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	// --- 1. Initialize Logger (Zap) ---
	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()

	// --- 2. Load Application Configuration ---
	appConfig, err := config.LoadConfig()
	if err != nil {
		zapLogger.Fatal("Failed to load application configuration", zap.Error(err))
	}
	zapLogger.Info("Application configuration loaded")

	// --- 3. Initialize Firebase Admin SDK (Firestore and Auth clients) ---
	initCtx, cancelInitCtx := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInitCtx()
	if err := db.InitFirestore(initCtx, appConfig); err != nil {
		zapLogger.Fatal("Failed to initialize Firebase Admin SDK", zap.Error(err))
	}

	firestoreClient := db.GetFirestoreClient()
	firebaseAuthClient := db.GetFirebaseAuthClient()
	if firestoreClient == nil || firebaseAuthClient == nil {
		zapLogger.Fatal("Firestore or Firebase Auth client is nil after initialization")
	}
	zapLogger.Info("Firebase Admin SDK initialized")

	// --- 4. Initialize Repositories ---
	userRepo := db.NewFirestoreUserRepository(firestoreClient)
	prospectRepo := db.NewFirestoreProspectRepository(firestoreClient)
	artisanRepo := db.NewFirestoreArtisanRepository(firestoreClient)
	estimationRepo := db.NewFirestoreEstimationRepository(firestoreClient)
	subscriptionRepo := db.NewFirestoreSubscriptionRepository(firestoreClient)
	reviewRepo := db.NewFirestoreReviewRepository(firestoreClient)

	// --- 5. Initialize External Clients ---
	stripeClient, err := payments.NewStripeClient(appConfig.StripeSecretKey, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize Stripe client", zap.Error(err))
	}

	identityClient, err := identity.NewFirebaseClient(firebaseAuthClient)
	if err != nil {
		zapLogger.Fatal("Failed to initialize identity client", zap.Error(err))
	}

	smtpMailer, err := mailer.NewSMTPMailer(appConfig.MailSender, appConfig.SMTPUser, appConfig.SMTPPassword)
	if err != nil {
		zapLogger.Fatal("Failed to initialize SMTP mailer", zap.Error(err))
	}

	// Simulator session cache is optional.
	var sessionCache cache.Cache
	if appConfig.RedisAddr != "" {
		sessionCache, err = cache.NewRedisCache(cache.NewRedisCacheConfig{
			Address:  appConfig.RedisAddr,
			Password: appConfig.RedisPassword,
		}, zapLogger)
		if err != nil {
			zapLogger.Warn("Redis unavailable, simulator session cache disabled", zap.Error(err))
			sessionCache = nil
		}
	}

	// Event publishing is optional; fall back to a no-op publisher.
	var publisher core.EventPublisher = events.NoopPublisher{}
	if appConfig.AMQPURL != "" {
		rabbit, err := events.NewRabbitMQPublisher(appConfig.AMQPURL, zapLogger)
		if err != nil {
			zapLogger.Warn("RabbitMQ unavailable, domain events disabled", zap.Error(err))
		} else {
			defer rabbit.Close()
			publisher = rabbit
		}
	}

	// --- 6. Initialize Core Services ---
	prospectService := core.NewProspectService(prospectRepo, zapLogger)
	conversionService := core.NewConversionService(
		prospectRepo, artisanRepo, userRepo, subscriptionRepo,
		identityClient, stripeClient, smtpMailer, publisher, zapLogger,
	)
	estimationService := core.NewEstimationService(estimationRepo, sessionCache, zapLogger)
	assignmentService := core.NewAssignmentService(estimationRepo, artisanRepo, publisher, zapLogger)
	billingService := core.NewBillingService(artisanRepo, subscriptionRepo, stripeClient, zapLogger)
	reviewService := core.NewReviewService(reviewRepo, artisanRepo, zapLogger)
	zapLogger.Info("Core services initialized")

	// --- 7. Setup Gin HTTP Engine ---
	if strings.ToLower(appConfig.GinMode) == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()

	// --- 8. Apply Global Middleware (Order is important) ---
	router.Use(middleware.RequestLogger(zapLogger))
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	router.Use(middleware.CORSMiddleware(appConfig))

	// --- 9. Setup API Routes ---
	api.SetupRoutes(
		router,
		zapLogger,
		userRepo,
		artisanRepo,
		prospectService,
		conversionService,
		estimationService,
		assignmentService,
		billingService,
		reviewService,
	)

	// --- 10. Configure and Start HTTP Server ---
	serverAddr := fmt.Sprintf(":%s", appConfig.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	zapLogger.Info("Starting HTTP server", zap.String("address", serverAddr), zap.String("ginMode", gin.Mode()))
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// --- 11. Graceful Shutdown Handling ---
	quitChannel := make(chan os.Signal, 1)
	signal.Notify(quitChannel, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quitChannel
	zapLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exiting gracefully")
}
