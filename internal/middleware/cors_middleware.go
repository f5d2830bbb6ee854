package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"renoleads-backend-go/internal/config"
)

// CORSMiddleware configures Cross-Origin Resource Sharing (CORS) for the
// application. The public simulator and the admin dashboard are served from
// CLIENT_URL; when it is not configured, a localhost development origin is
// used so local frontend work is not blocked.
func CORSMiddleware(appConfig *config.Config) gin.HandlerFunc {
	allowedOrigins := []string{"http://localhost:3000"}
	if appConfig != nil && appConfig.ClientURL != "" {
		allowedOrigins = []string{appConfig.ClientURL}
	}

	return cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		// "Authorization" is crucial for token-based auth.
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,

		// MaxAge indicates how long the results of a preflight request can be cached.
		MaxAge: 12 * time.Hour,
	})
}
