package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	webhookControllers "github.com/coderking2705/storefront-api/controllers/webhook"
)

func SetupWebhookRoutes(r *gin.Engine, db *gorm.DB) {
	webhooks := r.Group("/webhooks")
	{
		// Carrier tracking callbacks
		webhooks.POST("/carrier", webhookControllers.CarrierWebhookHandler(db))

		// Payment authority callbacks
		webhooks.POST("/payment", webhookControllers.PaymentWebhookHandler(db))
	}
}
