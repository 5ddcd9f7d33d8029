package orderControllers

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/coderking2705/storefront-api/apperrors"
	inventoryControllers "github.com/coderking2705/storefront-api/controllers/inventory"
	"github.com/coderking2705/storefront-api/models"
)

// Canned tracking descriptions for the carrier-visible stages. Any helper
// that writes one of these statuses must write both the status history and
// the tracking event in the same transaction.
var carrierStageDescriptions = map[models.OrderStatus]string{
	models.OrderStatusShipped:        "Package shipped and handed to carrier",
	models.OrderStatusOutForDelivery: "Package is out for delivery",
	models.OrderStatusDelivered:      "Package delivered",
}

func loadOrder(tx *gorm.DB, orderID uint) (*models.Order, error) {
	var order models.Order
	err := tx.Preload("Items").First(&order, "id = ?", orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &apperrors.OrderNotFoundError{Ref: fmt.Sprint(orderID)}
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ApplyTransition moves an order to a new status inside the caller's
// transaction. The UPDATE is a compare-and-swap on (id, status): when two
// writers race on the same order (a cancellation against a delivered
// webhook, say) only one statement matches the row and the loser rolls
// back. A delivered transition stamps actual_delivery exactly once, using
// the supplied event time. withTrackingEvent controls the canned tracking
// entry; callers that append their own event (the carrier webhook) pass
// false.
func ApplyTransition(tx *gorm.DB, order *models.Order, newStatus models.OrderStatus, actor, note string, at time.Time, withTrackingEvent bool) error {
	if !models.CanTransition(order.Status, newStatus) {
		return &apperrors.InvalidTransitionError{From: string(order.Status), To: string(newStatus)}
	}

	updates := map[string]interface{}{
		"status":     newStatus,
		"updated_at": time.Now(),
	}
	stampDelivery := newStatus == models.OrderStatusDelivered && order.ActualDelivery == nil
	if stampDelivery {
		updates["actual_delivery"] = at
	}

	result := tx.Model(&models.Order{}).
		Where("id = ? AND status = ?", order.ID, order.Status).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// A concurrent writer moved the order first.
		return &apperrors.InvalidTransitionError{From: string(order.Status), To: string(newStatus)}
	}

	if err := tx.Create(&models.OrderStatusHistory{
		OrderID: order.ID,
		Status:  newStatus,
		Note:    note,
		Actor:   actor,
	}).Error; err != nil {
		return err
	}

	if withTrackingEvent {
		if desc, ok := carrierStageDescriptions[newStatus]; ok {
			if err := tx.Create(&models.OrderTrackingEvent{
				OrderID:     order.ID,
				Status:      string(newStatus),
				Description: desc,
				EventTime:   at,
			}).Error; err != nil {
				return err
			}
		}
	}

	order.Status = newStatus
	if stampDelivery {
		t := at
		order.ActualDelivery = &t
	}
	return nil
}

// SetStatus is the generic transition used by admin tooling.
func SetStatus(db *gorm.DB, orderID uint, newStatus models.OrderStatus, actor, note string) (*models.Order, error) {
	var order *models.Order
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = loadOrder(tx, orderID)
		if err != nil {
			return err
		}
		return ApplyTransition(tx, order, newStatus, actor, note, time.Now(), true)
	})
	if err != nil {
		return nil, err
	}
	notifyStatusChange(order, actor)
	return order, nil
}

// Cancel restores the order's stock and marks it cancelled. The
// compare-and-swap on status makes the restore at-most-once: a second
// cancel finds a cancelled order and fails before touching stock, and a
// racing cancel loses the swap and rolls its restore back.
func Cancel(db *gorm.DB, orderID uint, actor, reason string) (*models.Order, error) {
	var order *models.Order
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = loadOrder(tx, orderID)
		if err != nil {
			return err
		}
		if !order.Status.IsCancellable() {
			return &apperrors.InvalidTransitionError{
				From: string(order.Status),
				To:   string(models.OrderStatusCancelled),
			}
		}

		if err := inventoryControllers.RestoreStock(tx, order, actor); err != nil {
			return err
		}

		now := time.Now()
		result := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, order.Status).
			Updates(map[string]interface{}{
				"status":              models.OrderStatusCancelled,
				"cancelled_at":        now,
				"cancellation_reason": reason,
				"updated_at":          now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return &apperrors.InvalidTransitionError{
				From: string(order.Status),
				To:   string(models.OrderStatusCancelled),
			}
		}

		note := reason
		if note == "" {
			note = "order cancelled"
		}
		if err := tx.Create(&models.OrderStatusHistory{
			OrderID: order.ID,
			Status:  models.OrderStatusCancelled,
			Note:    note,
			Actor:   actor,
		}).Error; err != nil {
			return err
		}

		order.Status = models.OrderStatusCancelled
		order.CancelledAt = &now
		order.CancellationReason = reason
		return nil
	})
	if err != nil {
		return nil, err
	}
	notifyStatusChange(order, actor)
	return order, nil
}

// Refund marks the refund axis of the order. It never changes the
// fulfilment status: refunds and fulfilment are orthogonal.
func Refund(db *gorm.DB, orderID uint, amount decimal.Decimal, actor, reason string) (*models.Order, error) {
	var order *models.Order
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = loadOrder(tx, orderID)
		if err != nil {
			return err
		}
		if amount.GreaterThan(order.TotalAmount) {
			return &apperrors.RefundExceedsTotalError{
				Amount: amount.StringFixed(2),
				Total:  order.TotalAmount.StringFixed(2),
			}
		}
		if err := tx.Model(order).Updates(map[string]interface{}{
			"refund_status":  models.RefundStatusProcessed,
			"refund_amount":  amount,
			"refund_reason":  reason,
			"payment_status": models.PaymentStatusRefunded,
			"updated_at":     time.Now(),
		}).Error; err != nil {
			return err
		}
		order.RefundStatus = models.RefundStatusProcessed
		order.RefundAmount = amount
		order.RefundReason = reason
		order.PaymentStatus = models.PaymentStatusRefunded
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info().Uint("order_id", orderID).Str("amount", amount.StringFixed(2)).
		Str("reason", reason).Msg("refund processed")
	return order, nil
}

// RecordDeliveryAttempt appends a carrier delivery attempt. A failed
// attempt forces the order into delivery_failed with a history entry
// citing the attempt; further failed attempts keep appending attempts and
// history without re-entering the state.
func RecordDeliveryAttempt(db *gorm.DB, orderID uint, attemptNumber int, outcome, notes, contact, actor string) (*models.DeliveryAttempt, error) {
	var attempt *models.DeliveryAttempt
	err := db.Transaction(func(tx *gorm.DB) error {
		order, err := loadOrder(tx, orderID)
		if err != nil {
			return err
		}

		attempt = &models.DeliveryAttempt{
			OrderID:               order.ID,
			AttemptNumber:         attemptNumber,
			Status:                outcome,
			Notes:                 notes,
			DeliveryPersonContact: contact,
			AttemptedAt:           time.Now(),
		}
		if err := tx.Create(attempt).Error; err != nil {
			return err
		}

		if outcome == models.DeliveryAttemptFailed {
			note := fmt.Sprintf("delivery attempt %d failed", attemptNumber)
			if notes != "" {
				note += ": " + notes
			}
			if order.Status == models.OrderStatusDeliveryFailed {
				// Already marked failed; record the repeat attempt without
				// re-entering the state.
				return tx.Create(&models.OrderStatusHistory{
					OrderID: order.ID,
					Status:  models.OrderStatusDeliveryFailed,
					Note:    note,
					Actor:   actor,
				}).Error
			}
			return ApplyTransition(tx, order, models.OrderStatusDeliveryFailed, actor, note, time.Now(), false)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return attempt, nil
}
