package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"salonepay/internal/adapter/api"
	"salonepay/internal/adapter/api/handler"
	apimiddleware "salonepay/internal/adapter/api/middleware"
	"salonepay/internal/adapter/api/router"
	"salonepay/internal/adapter/repository"
	"salonepay/internal/domain/service"
	"salonepay/internal/infrastructure/firebase"
	"salonepay/internal/infrastructure/notification"
	"salonepay/internal/infrastructure/storage"
	"salonepay/internal/infrastructure/websocket"
	"salonepay/internal/usecase"
	"salonepay/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var opt option.ClientOption

	// Try to get service account from environment variable (for production)
	serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON")
	if serviceAccountJSON != "" {
		log.Printf("Using Firebase service account from environment variable")
		opt = option.WithCredentialsJSON([]byte(serviceAccountJSON))
	} else {
		// Fallback to file path (for local development)
		serviceAccountPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH")
		if serviceAccountPath == "" {
			serviceAccountPath = "./serviceAccount.json"
		}

		if _, err := os.Stat(serviceAccountPath); os.IsNotExist(err) {
			log.Fatalf("Service account file does not exist: %s", serviceAccountPath)
		}

		log.Printf("Using Firebase service account from file: %s", serviceAccountPath)
		opt = option.WithCredentialsFile(serviceAccountPath)
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opt)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opt)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	serviceAccountPath := ""
	if serviceAccountJSON == "" {
		serviceAccountPath = os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH")
		if serviceAccountPath == "" {
			serviceAccountPath = "./serviceAccount.json"
		}
	}

	storageClient, err := storage.NewCloudStorageClient(
		ctx,
		cfg.StorageBucket,
		cfg.FirebaseProject,
		serviceAccountPath,
	)
	if err != nil {
		log.Fatalf("Failed to initialize Cloud Storage: %v", err)
	}
	defer storageClient.Close()

	userRepo := repository.NewFirestoreUserRepository(firestoreClient)
	disputeRepo := repository.NewFirestoreDisputeRepository(firestoreClient)

	firebaseAuthClient := firebase.NewFirebaseAuthClient(authClient, cfg.FirebaseApiKey)

	wsManager := websocket.NewManager()
	wsManager.Start(ctx)

	dispatcher := notification.NewWebSocketDispatcher(wsManager)
	riskService := service.NewHTTPRiskService(cfg.RiskServiceURL, cfg.RiskServiceAPIKey, cfg.RiskServiceTimeout)
	if cfg.RiskServiceAPIKey == "" && cfg.JWTSecret != "" {
		riskService.UseSignedTokens(cfg.JWTSecret, time.Duration(cfg.JWTExpiry)*time.Second)
	}

	disputeOpts := usecase.DisputeOptions{
		MerchantResponseDays: cfg.MerchantResponseDays,
		RiskTimeout:          cfg.RiskServiceTimeout,
		NotifyTimeout:        cfg.NotifyTimeout,
	}

	disputeUseCase := usecase.NewDisputeUseCase(disputeRepo, userRepo, riskService, dispatcher, storageClient, disputeOpts)
	messageUseCase := usecase.NewDisputeMessageUseCase(disputeRepo, disputeUseCase, dispatcher, disputeOpts)

	handler.Setup(disputeUseCase, messageUseCase, userRepo)
	handler.SetupHealthHandler(firebaseAuthClient, riskService)
	handler.SetupDevTokenHandler(firebaseAuthClient, userRepo)

	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(apimiddleware.GeneralRateLimit())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(authClient)
	adminMiddleware := apimiddleware.NewAdminMiddleware(userRepo)

	wsHandler := handler.NewWebSocketHandler(wsManager, authMiddleware)

	router.Setup(e, authMiddleware, adminMiddleware)
	router.SetupDevRouter(e, cfg.Environment)
	router.SetupWebSocketRouter(e, wsHandler)

	go func() {
		log.Printf("Starting server on port %s...", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Printf("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	// Let in-flight risk analyses and notifications land before exit
	disputeUseCase.WaitForBackgroundTasks()
	messageUseCase.WaitForBackgroundTasks()
}
