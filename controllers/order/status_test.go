package orderControllers

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/coderking2705/storefront-api/apperrors"
	"github.com/coderking2705/storefront-api/models"
	"github.com/coderking2705/storefront-api/testdb"
)

// seedOrder creates a confirmed order whose stock has already been sold
// down, the way checkout leaves it.
func seedOrder(t *testing.T, db *gorm.DB, status models.OrderStatus, qty int) (models.Order, models.Product) {
	t.Helper()
	product := testdb.CreateProduct(t, db, "Widget", "20.00", 5-qty, 0)
	order := models.Order{
		OrderNumber:   "ORD-20260101-0042",
		UserID:        "u1",
		Status:        status,
		PaymentMethod: "cod",
		TotalAmount:   decimal.RequireFromString("49.19"),
		ShippingFee:   decimal.RequireFromString("5.99"),
		TaxAmount:     decimal.RequireFromString("3.20"),
		Items: []models.OrderItem{{
			ProductID:   product.ID,
			ProductName: product.Name,
			UnitPrice:   product.Price,
			Quantity:    qty,
			LineTotal:   product.Price.Mul(decimal.NewFromInt(int64(qty))),
		}},
	}
	require.NoError(t, db.Create(&order).Error)
	return order, product
}

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		from, to models.OrderStatus
		allowed  bool
	}{
		{models.OrderStatusPending, models.OrderStatusConfirmed, true},
		{models.OrderStatusConfirmed, models.OrderStatusProcessing, true},
		{models.OrderStatusProcessing, models.OrderStatusShipped, true},
		{models.OrderStatusShipped, models.OrderStatusOutForDelivery, true},
		{models.OrderStatusOutForDelivery, models.OrderStatusDelivered, true},
		// Admins may record a skip-ahead status.
		{models.OrderStatusPending, models.OrderStatusShipped, true},
		{models.OrderStatusConfirmed, models.OrderStatusDelivered, true},
		// Terminal states stay terminal.
		{models.OrderStatusDelivered, models.OrderStatusShipped, false},
		{models.OrderStatusCancelled, models.OrderStatusConfirmed, false},
		{models.OrderStatusFailed, models.OrderStatusConfirmed, false},
		// No self-transition.
		{models.OrderStatusShipped, models.OrderStatusShipped, false},
		// Cancellation only before shipping.
		{models.OrderStatusPending, models.OrderStatusCancelled, true},
		{models.OrderStatusProcessing, models.OrderStatusCancelled, true},
		{models.OrderStatusShipped, models.OrderStatusCancelled, false},
		{models.OrderStatusOutForDelivery, models.OrderStatusCancelled, false},
		// Payment failure only from pending.
		{models.OrderStatusPending, models.OrderStatusFailed, true},
		{models.OrderStatusShipped, models.OrderStatusFailed, false},
		// Failed delivery may be retried.
		{models.OrderStatusDeliveryFailed, models.OrderStatusOutForDelivery, true},
		{models.OrderStatusDeliveryFailed, models.OrderStatusDelivered, true},
		// Unknown statuses never pass.
		{models.OrderStatus("unknown"), models.OrderStatusShipped, false},
		{models.OrderStatusPending, models.OrderStatus("unknown"), false},
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.allowed, models.CanTransition(tc.from, tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestSetStatusDualWrite(t *testing.T) {
	db := testdb.Open(t)
	order, _ := seedOrder(t, db, models.OrderStatusConfirmed, 2)

	updated, err := SetStatus(db, order.ID, models.OrderStatusShipped, "admin", "left warehouse")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, updated.Status)

	// Status history and tracking history move together.
	var history []models.OrderStatusHistory
	require.NoError(t, db.Where("order_id = ?", order.ID).Find(&history).Error)
	require.Len(t, history, 1)
	assert.Equal(t, models.OrderStatusShipped, history[0].Status)
	assert.Equal(t, "admin", history[0].Actor)

	var events []models.OrderTrackingEvent
	require.NoError(t, db.Where("order_id = ?", order.ID).Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, string(models.OrderStatusShipped), events[0].Status)
}

func TestSetStatusNonCarrierStageHasNoTrackingEvent(t *testing.T) {
	db := testdb.Open(t)
	order, _ := seedOrder(t, db, models.OrderStatusConfirmed, 2)

	_, err := SetStatus(db, order.ID, models.OrderStatusProcessing, "admin", "")
	require.NoError(t, err)

	var events int64
	require.NoError(t, db.Model(&models.OrderTrackingEvent{}).
		Where("order_id = ?", order.ID).Count(&events).Error)
	assert.Zero(t, events)
}

func TestSetStatusRejectsIllegalTransition(t *testing.T) {
	db := testdb.Open(t)
	order, _ := seedOrder(t, db, models.OrderStatusDelivered, 2)

	_, err := SetStatus(db, order.ID, models.OrderStatusShipped, "admin", "")
	var invalid *apperrors.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, string(models.OrderStatusDelivered), invalid.From)
}

func TestDeliveredStampsActualDeliveryOnce(t *testing.T) {
	db := testdb.Open(t)
	order, _ := seedOrder(t, db, models.OrderStatusOutForDelivery, 2)

	updated, err := SetStatus(db, order.ID, models.OrderStatusDelivered, "admin", "")
	require.NoError(t, err)
	require.NotNil(t, updated.ActualDelivery)
	first := *updated.ActualDelivery

	// Delivered is terminal: no further transition, no re-stamp.
	_, err = SetStatus(db, order.ID, models.OrderStatusDelivered, "admin", "")
	var invalid *apperrors.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)

	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, order.ID).Error)
	require.NotNil(t, reloaded.ActualDelivery)
	assert.True(t, reloaded.ActualDelivery.Equal(first))
}

func TestCancelRestoresStockExactlyOnce(t *testing.T) {
	db := testdb.Open(t)
	order, product := seedOrder(t, db, models.OrderStatusConfirmed, 2) // stock now 3

	cancelled, err := Cancel(db, order.ID, "u1", "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, "changed my mind", cancelled.CancellationReason)

	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, product.ID).Error)
	assert.Equal(t, 5, reloaded.StockQuantity, "stock restored by exactly the sold quantity")

	// Second cancel must fail and must not double-credit stock.
	_, err = Cancel(db, order.ID, "u1", "again")
	var invalid *apperrors.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)

	require.NoError(t, db.First(&reloaded, product.ID).Error)
	assert.Equal(t, 5, reloaded.StockQuantity)

	var returns int64
	require.NoError(t, db.Model(&models.StockMovement{}).
		Where("movement_type = ?", models.MovementReturn).Count(&returns).Error)
	assert.EqualValues(t, 1, returns)
}

func TestCancelShippedOrderFails(t *testing.T) {
	db := testdb.Open(t)
	order, product := seedOrder(t, db, models.OrderStatusShipped, 2)

	_, err := Cancel(db, order.ID, "u1", "")
	var invalid *apperrors.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)

	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, product.ID).Error)
	assert.Equal(t, 3, reloaded.StockQuantity, "no stock restored for a shipped order")
}

func TestRefundExceedingTotalFails(t *testing.T) {
	db := testdb.Open(t)
	order, _ := seedOrder(t, db, models.OrderStatusDelivered, 2) // total 49.19

	_, err := Refund(db, order.ID, decimal.RequireFromString("60.00"), "admin", "damaged")
	var exceeds *apperrors.RefundExceedsTotalError
	require.ErrorAs(t, err, &exceeds)
	assert.Equal(t, "60.00", exceeds.Amount)
	assert.Equal(t, "49.19", exceeds.Total)

	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, order.ID).Error)
	assert.Empty(t, reloaded.RefundStatus)
}

func TestRefundLeavesFulfilmentStatusAlone(t *testing.T) {
	db := testdb.Open(t)
	order, _ := seedOrder(t, db, models.OrderStatusShipped, 2)

	refunded, err := Refund(db, order.ID, decimal.RequireFromString("10.00"), "admin", "late")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, refunded.Status,
		"refund and fulfilment are orthogonal axes")
	assert.Equal(t, models.RefundStatusProcessed, refunded.RefundStatus)
	assert.Equal(t, "10.00", refunded.RefundAmount.StringFixed(2))
	assert.Equal(t, "late", refunded.RefundReason)
	assert.Equal(t, models.PaymentStatusRefunded, refunded.PaymentStatus)

	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, order.ID).Error)
	assert.Equal(t, "late", reloaded.RefundReason)
}

func TestFailedDeliveryAttemptForcesStatus(t *testing.T) {
	db := testdb.Open(t)
	order, _ := seedOrder(t, db, models.OrderStatusOutForDelivery, 2)

	attempt, err := RecordDeliveryAttempt(db, order.ID, 1,
		models.DeliveryAttemptFailed, "nobody home", "+1-555-0100", "carrier")
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryAttemptFailed, attempt.Status)

	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, order.ID).Error)
	assert.Equal(t, models.OrderStatusDeliveryFailed, reloaded.Status)

	var history []models.OrderStatusHistory
	require.NoError(t, db.Where("order_id = ?", order.ID).Find(&history).Error)
	require.Len(t, history, 1)
	assert.Contains(t, history[0].Note, "delivery attempt 1 failed")
}

func TestRepeatedFailedDeliveryAttemptsKeepAppending(t *testing.T) {
	db := testdb.Open(t)
	order, _ := seedOrder(t, db, models.OrderStatusOutForDelivery, 2)

	_, err := RecordDeliveryAttempt(db, order.ID, 1,
		models.DeliveryAttemptFailed, "nobody home", "", "carrier")
	require.NoError(t, err)

	// The order is already delivery_failed; the second attempt must still
	// be recorded.
	attempt, err := RecordDeliveryAttempt(db, order.ID, 2,
		models.DeliveryAttemptFailed, "still nobody home", "", "carrier")
	require.NoError(t, err)
	assert.Equal(t, 2, attempt.AttemptNumber)

	var attempts int64
	require.NoError(t, db.Model(&models.DeliveryAttempt{}).
		Where("order_id = ?", order.ID).Count(&attempts).Error)
	assert.EqualValues(t, 2, attempts)

	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, order.ID).Error)
	assert.Equal(t, models.OrderStatusDeliveryFailed, reloaded.Status)

	var history []models.OrderStatusHistory
	require.NoError(t, db.Where("order_id = ?", order.ID).
		Order("id ASC").Find(&history).Error)
	require.Len(t, history, 2)
	assert.Contains(t, history[1].Note, "delivery attempt 2 failed")
}

func TestSuccessfulDeliveryAttemptLeavesStatus(t *testing.T) {
	db := testdb.Open(t)
	order, _ := seedOrder(t, db, models.OrderStatusOutForDelivery, 2)

	_, err := RecordDeliveryAttempt(db, order.ID, 1,
		models.DeliveryAttemptSuccess, "", "", "carrier")
	require.NoError(t, err)

	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, order.ID).Error)
	assert.Equal(t, models.OrderStatusOutForDelivery, reloaded.Status)
}
