package webhookControllers

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

func seedPendingCardOrder(t *testing.T, db *gorm.DB, sessionID string) models.Order {
	t.Helper()
	order := models.Order{
		OrderNumber:      "ORD-20260101-0099",
		UserID:           "u1",
		Status:           models.OrderStatusPending,
		PaymentMethod:    "card",
		PaymentStatus:    models.PaymentStatusPending,
		PaymentSessionID: sessionID,
		TotalAmount:      decimal.RequireFromString("21.60"),
	}
	require.NoError(t, db.Create(&order).Error)
	return order
}

func TestConfirmPaymentConfirmsOrder(t *testing.T) {
	db := testdb.Open(t)
	order := seedPendingCardOrder(t, db, "sess-1")

	confirmed, err := ConfirmPayment(db, "sess-1", "pi_123")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, confirmed.Status)
	assert.Equal(t, models.PaymentStatusPaid, confirmed.PaymentStatus)

	var history []models.OrderStatusHistory
	require.NoError(t, db.Where("order_id = ?", order.ID).Find(&history).Error)
	require.Len(t, history, 1)
	assert.Equal(t, models.OrderStatusConfirmed, history[0].Status)
	assert.Equal(t, "payment-provider", history[0].Actor)
}

func TestConfirmPaymentReplayIsNoOp(t *testing.T) {
	db := testdb.Open(t)
	order := seedPendingCardOrder(t, db, "sess-2")

	_, err := ConfirmPayment(db, "sess-2", "pi_123")
	require.NoError(t, err)
	again, err := ConfirmPayment(db, "sess-2", "pi_123")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, again.Status)

	// Replay wrote no second history entry.
	var history int64
	require.NoError(t, db.Model(&models.OrderStatusHistory{}).
		Where("order_id = ?", order.ID).Count(&history).Error)
	assert.EqualValues(t, 1, history)
}

func TestConfirmPaymentUnknownSession(t *testing.T) {
	db := testdb.Open(t)

	_, err := ConfirmPayment(db, "missing", "pi_123")
	var notFound *apperrors.OrderNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestFailedPaymentFailsPendingOrder(t *testing.T) {
	db := testdb.Open(t)
	order := seedPendingCardOrder(t, db, "sess-3")

	failed, err := failPayment(db, "sess-3")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusFailed, failed.Status)
	assert.Equal(t, models.PaymentStatusFailed, failed.PaymentStatus)

	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, order.ID).Error)
	assert.Equal(t, models.OrderStatusFailed, reloaded.Status)
}
