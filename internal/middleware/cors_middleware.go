package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"spendbox-backend-go/internal/config"
)

// CORSMiddleware allows cross-origin requests from the configured client
// application. ClientURL has a default at config load, so it is always set.
func CORSMiddleware(appConfig *config.Config) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     []string{appConfig.ClientURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		// Upgrade requests on /ws carry an Origin header too.
		AllowWebSockets: true,
		MaxAge:          12 * time.Hour,
	})
}
