package webhookControllers

import (
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/coderking2705/storefront-api/apperrors"
	orderControllers "github.com/coderking2705/storefront-api/controllers/order"
	"github.com/coderking2705/storefront-api/models"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "webhook").Logger()

type CarrierEventRequest struct {
	TrackingNumber string    `json:"tracking_number" binding:"required"`
	Status         string    `json:"status" binding:"required"`
	Location       string    `json:"location"`
	Description    string    `json:"description"`
	Timestamp      time.Time `json:"timestamp" binding:"required"`
}

// HandleCarrierEvent ingests one carrier callback. Carriers deliver
// at-least-once, so the event is deduped on its natural
// (order, status, timestamp) tuple before anything is written; a replay is
// acknowledged without side effects. A delivered event also advances the
// order and stamps actual_delivery with the carrier's timestamp, exactly once.
func HandleCarrierEvent(db *gorm.DB, req CarrierEventRequest) (duplicate bool, err error) {
	err = db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		err := tx.Preload("Items").
			Where("tracking_number = ?", req.TrackingNumber).
			First(&order).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Never create a phantom order for an unknown tracking number.
			return &apperrors.OrderNotFoundError{Ref: req.TrackingNumber}
		}
		if err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.OrderTrackingEvent{}).
			Where("order_id = ? AND status = ? AND event_time = ?", order.ID, req.Status, req.Timestamp).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			duplicate = true
			return nil
		}

		if err := tx.Create(&models.OrderTrackingEvent{
			OrderID:     order.ID,
			Status:      req.Status,
			Location:    req.Location,
			Description: req.Description,
			EventTime:   req.Timestamp,
		}).Error; err != nil {
			return err
		}

		if req.Status == string(models.OrderStatusDelivered) &&
			order.Status != models.OrderStatusDelivered {
			if models.CanTransition(order.Status, models.OrderStatusDelivered) {
				// The webhook appended its own tracking event above.
				return orderControllers.ApplyTransition(tx, &order,
					models.OrderStatusDelivered, "carrier", "delivered by carrier",
					req.Timestamp, false)
			}
			// A terminal order (cancelled before the callback arrived)
			// keeps the event for the record but is not resurrected.
		}
		return nil
	})
	return duplicate, err
}

// POST /webhooks/carrier. Unauthenticated transport, trusted payload.
// Failures are reported back to the sender and never raise further.
func CarrierWebhookHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CarrierEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed payload: " + err.Error()})
			return
		}
		duplicate, err := HandleCarrierEvent(db, req)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		if duplicate {
			c.JSON(http.StatusOK, gin.H{"message": "event already recorded"})
			return
		}
		logger.Info().Str("tracking_number", req.TrackingNumber).
			Str("status", req.Status).Msg("carrier event recorded")
		c.JSON(http.StatusOK, gin.H{"message": "event recorded"})
	}
}
