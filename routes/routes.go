package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRoutes wires up the user, admin, and webhook route groups.
func SetupRoutes(r *gin.Engine, db *gorm.DB) {
	// User routes (JWT-protected)
	SetupUserRoutes(r, db)

	// Admin routes (API-key-protected)
	SetupAdminRoutes(r, db)

	// Webhook routes (unauthenticated transport, trusted payloads)
	SetupWebhookRoutes(r, db)
}
