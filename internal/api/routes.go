package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"spendbox-backend-go/internal/config"
	"spendbox-backend-go/internal/core"
	"spendbox-backend-go/internal/middleware"
	"spendbox-backend-go/internal/realtime"
)

// SetupRoutes wires every endpoint to its handler. Global middleware
// (logging, recovery, CORS) is applied to the router in main before this
// runs.
func SetupRoutes(
	router *gin.Engine,
	appConfig *config.Config,
	logger *zap.Logger,
	hub *realtime.Hub,
	authService core.AuthService,
	userService core.UserService,
	expenseService core.ExpenseService,
	aiService core.AIService,
	plaidService core.PlaidService,
) {
	secret := []byte(appConfig.JWTSecret)
	protect := middleware.Protect(userService, secret)
	authLimit := middleware.RateLimit(appConfig.AuthRateLimit)
	uploadLimit := middleware.RateLimit(appConfig.UploadRateLimit)

	authHandler := NewAuthHandler(authService)
	userHandler := NewUserHandler(userService, authService)
	expenseHandler := NewExpenseHandler(expenseService, aiService)
	aiHandler := NewAIHandler(aiService)
	plaidHandler := NewPlaidHandler(plaidService)

	apiGroup := router.Group("/api")
	{
		authGroup := apiGroup.Group("/auth", authLimit)
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/forgot-password", authHandler.ForgotPassword)
			authGroup.POST("/reset-password", authHandler.ResetPassword)
			authGroup.POST("/verify-email", authHandler.VerifyEmail)
			authGroup.GET("/me", protect, authHandler.Me)
			authGroup.PUT("/profile", protect, authHandler.UpdateProfile)
			authGroup.PUT("/password", protect, authHandler.ChangePassword)
			authGroup.POST("/resend-verification", protect, authHandler.ResendVerification)
		}

		expenseGroup := apiGroup.Group("/expenses", protect)
		{
			expenseGroup.GET("", expenseHandler.List)
			expenseGroup.POST("", expenseHandler.Create)
			expenseGroup.GET("/analytics", expenseHandler.Analytics)
			expenseGroup.GET("/shared", expenseHandler.Shared)
			expenseGroup.POST("/process-receipt", uploadLimit, expenseHandler.ProcessReceipt)
			expenseGroup.GET("/:id", expenseHandler.Get)
			expenseGroup.PUT("/:id", expenseHandler.Update)
			expenseGroup.DELETE("/:id", expenseHandler.Delete)
			expenseGroup.POST("/:id/share", expenseHandler.Share)
		}

		userGroup := apiGroup.Group("/users", protect)
		{
			userGroup.GET("/profile", userHandler.Profile)
			userGroup.PUT("/profile", userHandler.UpdateProfile)
			userGroup.GET("/preferences", userHandler.Preferences)
			userGroup.PUT("/preferences", userHandler.UpdatePreferences)
			userGroup.GET("/subscription", userHandler.Subscription)
			userGroup.POST("/upgrade", userHandler.Upgrade)
			userGroup.GET("/stats", userHandler.Stats)
		}

		aiGroup := apiGroup.Group("/ai", protect)
		{
			aiGroup.POST("/categorize", aiHandler.Categorize)
			aiGroup.POST("/insights", aiHandler.Insights)
			aiGroup.POST("/predict", aiHandler.Predict)
			aiGroup.POST("/process-receipt", uploadLimit, aiHandler.ProcessReceipt)
			aiGroup.POST("/process-voice", uploadLimit, aiHandler.ProcessVoice)
			aiGroup.POST("/suggestions", aiHandler.Suggestions)
			aiGroup.GET("/patterns", aiHandler.Patterns)
		}

		plaidGroup := apiGroup.Group("/plaid", protect)
		{
			plaidGroup.POST("/create-link-token", plaidHandler.CreateLinkToken)
			plaidGroup.POST("/exchange-token", plaidHandler.ExchangeToken)
			plaidGroup.POST("/sync-transactions", plaidHandler.SyncTransactions)
			plaidGroup.GET("/accounts", plaidHandler.Accounts)
			plaidGroup.GET("/institutions", plaidHandler.Institutions)
			plaidGroup.DELETE("/accounts/:accountId", plaidHandler.RemoveAccount)
		}
	}

	// Websocket handshake. Browsers cannot set headers on websocket
	// connections, so the token travels as a query parameter. Clients are
	// bound to their own room; there is no join message to send.
	router.GET("/ws", func(c *gin.Context) {
		userID, err := middleware.ParseUserID(c.Query("token"), secret)
		if err != nil {
			respondError(c, http.StatusUnauthorized, err.Error())
			return
		}
		if err := realtime.ServeWS(hub, logger, c.Writer, c.Request, userID); err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
		}
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	})

	logger.Info("API routes configured under /api, /ws and /health")
}
