package webhookControllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/coderking2705/storefront-api/apperrors"
	orderControllers "github.com/coderking2705/storefront-api/controllers/order"
	"github.com/coderking2705/storefront-api/models"
)

type PaymentWebhookRequest struct {
	SessionID       string `json:"session_id" binding:"required"`
	PaymentStatus   string `json:"payment_status" binding:"required,oneof=paid failed"`
	PaymentIntentID string `json:"payment_intent_id"`
}

// ConfirmPayment marks a deferred-payment order as paid and confirms it.
// Replaying the same session is a no-op returning the already-confirmed
// order: payment providers also deliver at-least-once.
func ConfirmPayment(db *gorm.DB, sessionID, paymentRef string) (*models.Order, error) {
	var order *models.Order
	err := db.Transaction(func(tx *gorm.DB) error {
		var found models.Order
		err := tx.Preload("Items").
			Where("payment_session_id = ?", sessionID).
			First(&found).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &apperrors.OrderNotFoundError{Ref: sessionID}
		}
		if err != nil {
			return err
		}
		order = &found

		if order.PaymentStatus == models.PaymentStatusPaid {
			return nil // already confirmed
		}

		if err := tx.Model(order).Updates(map[string]interface{}{
			"payment_status": models.PaymentStatusPaid,
			"payment_ref":    paymentRef,
			"updated_at":     time.Now(),
		}).Error; err != nil {
			return err
		}
		order.PaymentStatus = models.PaymentStatusPaid

		if order.Status == models.OrderStatusPending {
			return orderControllers.ApplyTransition(tx, order,
				models.OrderStatusConfirmed, "payment-provider", "payment confirmed",
				time.Now(), true)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// failPayment marks the payment failed and fails the pending order.
func failPayment(db *gorm.DB, sessionID string) (*models.Order, error) {
	var order *models.Order
	err := db.Transaction(func(tx *gorm.DB) error {
		var found models.Order
		err := tx.Preload("Items").
			Where("payment_session_id = ?", sessionID).
			First(&found).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &apperrors.OrderNotFoundError{Ref: sessionID}
		}
		if err != nil {
			return err
		}
		order = &found

		if order.PaymentStatus == models.PaymentStatusFailed {
			return nil
		}

		if err := tx.Model(order).Updates(map[string]interface{}{
			"payment_status": models.PaymentStatusFailed,
			"updated_at":     time.Now(),
		}).Error; err != nil {
			return err
		}
		order.PaymentStatus = models.PaymentStatusFailed

		if order.Status == models.OrderStatusPending {
			return orderControllers.ApplyTransition(tx, order,
				models.OrderStatusFailed, "payment-provider", "payment failed",
				time.Now(), false)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// POST /webhooks/payment
func PaymentWebhookHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PaymentWebhookRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed payload: " + err.Error()})
			return
		}

		var (
			order *models.Order
			err   error
		)
		if req.PaymentStatus == "paid" {
			order, err = ConfirmPayment(db, req.SessionID, req.PaymentIntentID)
		} else {
			order, err = failPayment(db, req.SessionID)
		}
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		logger.Info().Str("session_id", req.SessionID).
			Str("payment_status", req.PaymentStatus).
			Str("order_number", order.OrderNumber).Msg("payment webhook processed")
		c.JSON(http.StatusOK, gin.H{
			"order_number":   order.OrderNumber,
			"status":         order.Status,
			"payment_status": order.PaymentStatus,
		})
	}
}
