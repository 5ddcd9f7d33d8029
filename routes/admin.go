package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	inventoryControllers "github.com/coderking2705/storefront-api/controllers/inventory"
	orderControllers "github.com/coderking2705/storefront-api/controllers/order"
	"github.com/coderking2705/storefront-api/middleware"
)

func SetupAdminRoutes(r *gin.Engine, db *gorm.DB) {
	admin := r.Group("/admin")
	admin.Use(middleware.ValidateAPIKey)
	{
		// Orders
		admin.GET("/orders", orderControllers.GetAllOrdersHandler(db))
		admin.GET("/orders/:orderID", orderControllers.GetOrderHandler(db))
		admin.GET("/orders/:orderID/tracking", orderControllers.GetOrderTrackingHandler(db))
		admin.PUT("/orders/:orderID/status", orderControllers.UpdateOrderStatusHandler(db))
		admin.PUT("/orders/:orderID/tracking", orderControllers.SetTrackingHandler(db))
		admin.POST("/orders/:orderID/cancel", orderControllers.CancelOrderHandler(db))
		admin.POST("/orders/:orderID/refund", orderControllers.ProcessRefundHandler(db))
		admin.POST("/orders/:orderID/delivery-attempts", orderControllers.RecordDeliveryAttemptHandler(db))
		admin.PUT("/orders/bulk-status", orderControllers.BulkUpdateOrdersHandler(db))

		// websocket endpoint for real-time order updates
		admin.GET("/orders/ws", orderControllers.OrderWebSocketHandler)

		// Inventory
		admin.GET("/inventory", inventoryControllers.ListInventoryHandler(db))
		admin.GET("/inventory/alerts", inventoryControllers.ListAlertsHandler(db))
		admin.GET("/inventory/movements/export", inventoryControllers.ExportMovementsToExcel(db))
		admin.GET("/inventory/:productID/movements", inventoryControllers.ListMovementsHandler(db))
		admin.POST("/inventory/:productID/adjust", inventoryControllers.AdjustStockHandler(db))
	}
}
