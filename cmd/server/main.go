package main

import (
	"context"
	"encoding/base64"
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
	"go.uber.org/zap"

	"spendbox-backend-go/internal/ai"
	"spendbox-backend-go/internal/api"
	"spendbox-backend-go/internal/config"
	"spendbox-backend-go/internal/core"
	"spendbox-backend-go/internal/db"
	"spendbox-backend-go/internal/middleware"
	"spendbox-backend-go/internal/plaid"
	"spendbox-backend-go/internal/realtime"
)

func main() {
	// --- 1. Load Application Configuration ---
	appConfig, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to load application configuration: %v", err)
	}

	// --- 2. Initialize Logger (Zap) ---
	var zapLogger *zap.Logger
	if strings.ToLower(appConfig.GinMode) == "release" {
		zapLogger, err = zap.NewProduction()
	} else {
		zapLogger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger.Info("Application configuration loaded successfully.")

	encryptionKey, err := base64.StdEncoding.DecodeString(appConfig.EncryptionKey)
	if err != nil || len(encryptionKey) != 32 {
		zapLogger.Fatal("CRITICAL_ERROR: ENCRYPTION_KEY must be 32 bytes, base64 encoded")
	}

	// --- 3. Initialize Firestore ---
	initCtx, cancelInitCtx := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInitCtx()
	if err := db.InitFirestore(initCtx, appConfig); err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize Firestore", zap.Error(err))
	}
	defer func() {
		if err := db.CloseFirestore(); err != nil {
			zapLogger.Warn("Failed to close Firestore client", zap.Error(err))
		}
	}()
	firestoreClient := db.GetFirestoreClient()
	zapLogger.Info("Firestore client initialized successfully.")

	// --- 4. Initialize Repositories ---
	userRepo := db.NewFirestoreUserRepository(firestoreClient)
	expenseRepo := db.NewFirestoreExpenseRepository(firestoreClient)

	// --- 5. Initialize Real-time Hub ---
	hub := realtime.NewHub(zapLogger)
	go hub.Run()
	defer hub.Shutdown()

	// --- 6. Initialize Services ---
	authService := core.NewAuthService(userRepo, appConfig.JWTSecret, appConfig.JWTExpire)
	userService := core.NewUserService(userRepo, expenseRepo)
	expenseService := core.NewExpenseService(expenseRepo, userRepo, hub)

	openAIClient := ai.NewOpenAIClient(appConfig.OpenAIAPIKey)
	ocrClient := ai.NewOCRClient(appConfig.OCRBaseURL)
	aiService := core.NewAIService(ocrClient, openAIClient, expenseRepo)

	plaidClient := plaid.NewClient(appConfig.PlaidClientID, appConfig.PlaidSecret, appConfig.PlaidEnv)
	plaidService := core.NewPlaidService(plaidClient, userRepo, encryptionKey)
	zapLogger.Info("Core services initialized successfully.")

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
		appConfig,
		zapLogger,
		hub,
		authService,
		userService,
		expenseService,
		aiService,
		plaidService,
	)

	// --- 10. Configure and Start HTTP Server ---
	serverAddr := fmt.Sprintf(":%s", appConfig.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	zapLogger.Info("Starting HTTP server...", zap.String("address", serverAddr), zap.String("ginMode", gin.Mode()))
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
		zapLogger.Fatal("Server forced to shutdown due to error during graceful shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exiting gracefully.")
}
