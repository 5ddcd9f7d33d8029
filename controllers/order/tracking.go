package orderControllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/coderking2705/storefront-api/apperrors"
	"github.com/coderking2705/storefront-api/middleware"
	"github.com/coderking2705/storefront-api/models"
)

type SetTrackingRequest struct {
	TrackingNumber    string `json:"tracking_number" binding:"required"`
	Carrier           string `json:"carrier" binding:"required"`
	EstimatedDelivery string `json:"estimated_delivery"`
}

// PUT /admin/orders/:orderID/tracking attaches carrier metadata.
func SetTrackingHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := parseOrderID(c)
		if !ok {
			return
		}
		var req SetTrackingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		updates := map[string]interface{}{
			"tracking_number": req.TrackingNumber,
			"carrier":         req.Carrier,
			"updated_at":      time.Now(),
		}
		if req.EstimatedDelivery != "" {
			est, err := time.Parse(time.RFC3339, req.EstimatedDelivery)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "estimated_delivery must be RFC3339"})
				return
			}
			updates["estimated_delivery"] = est
		}
		result := db.Model(&models.Order{}).Where("id = ?", orderID).Updates(updates)
		if result.Error != nil {
			apperrors.Respond(c, result.Error)
			return
		}
		if result.RowsAffected == 0 {
			apperrors.Respond(c, &apperrors.OrderNotFoundError{Ref: c.Param("orderID")})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "tracking info updated"})
	}
}

// GET /user/orders/:orderID/tracking returns the composite tracking view: order,
// shipping address, event history, delivery attempts, items and the derived
// six-stage timeline. Owner or admin only.
func GetOrderTrackingHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ref := c.Param("orderID")
		var order models.Order
		if err := db.Preload("Items").
			Where("id = ? OR order_number = ?", ref, ref).
			First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apperrors.Respond(c, &apperrors.OrderNotFoundError{Ref: ref})
				return
			}
			apperrors.Respond(c, err)
			return
		}
		if order.UserID != middleware.UserID(c) && middleware.Role(c) != models.RoleAdmin {
			apperrors.Respond(c, &apperrors.NotAuthorizedError{})
			return
		}

		var events []models.OrderTrackingEvent
		if err := db.Where("order_id = ?", order.ID).
			Order("event_time ASC, id ASC").
			Find(&events).Error; err != nil {
			apperrors.Respond(c, err)
			return
		}
		var attempts []models.DeliveryAttempt
		if err := db.Where("order_id = ?", order.ID).
			Order("attempted_at ASC").
			Find(&attempts).Error; err != nil {
			apperrors.Respond(c, err)
			return
		}
		var shippingAddress models.Address
		if order.ShippingAddressID != 0 {
			if err := db.First(&shippingAddress, "id = ?", order.ShippingAddressID).Error; err != nil &&
				!errors.Is(err, gorm.ErrRecordNotFound) {
				apperrors.Respond(c, err)
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"order":             order,
			"items":             order.Items,
			"shipping_address":  shippingAddress,
			"tracking_history":  events,
			"delivery_attempts": attempts,
			"timeline":          ProjectTimeline(&order, events, time.Now()),
			"tracking_url":      TrackingURL(order.Carrier, order.TrackingNumber),
		})
	}
}
