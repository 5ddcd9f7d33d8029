package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	addressControllers "github.com/coderking2705/storefront-api/controllers/address"
	cartControllers "github.com/coderking2705/storefront-api/controllers/cart"
	checkoutControllers "github.com/coderking2705/storefront-api/controllers/checkout"
	orderControllers "github.com/coderking2705/storefront-api/controllers/order"
	"github.com/coderking2705/storefront-api/middleware"
)

func SetupUserRoutes(r *gin.Engine, db *gorm.DB) {
	user := r.Group("/user")
	user.Use(middleware.ValidateToken)
	{
		// Cart
		user.GET("/cart", cartControllers.GetUserCart(db))
		user.POST("/cart", cartControllers.UpdateCartItem(db))
		user.DELETE("/cart", cartControllers.ClearUserCart(db))
		user.DELETE("/cart/:productID", cartControllers.DeleteCartItem(db))

		// Addresses
		user.GET("/addresses", addressControllers.ListAddresses(db))
		user.POST("/addresses", addressControllers.CreateAddress(db))
		user.DELETE("/addresses/:addressID", addressControllers.DeleteAddress(db))

		// Checkout
		user.POST("/checkout", checkoutControllers.CheckoutHandler(db))

		// Orders
		user.GET("/orders", orderControllers.GetUserOrdersHandler(db))
		user.GET("/orders/:orderID", orderControllers.GetOrderHandler(db))
		user.GET("/orders/:orderID/tracking", orderControllers.GetOrderTrackingHandler(db))
		user.POST("/orders/:orderID/cancel", orderControllers.CancelOrderHandler(db))
	}
}
