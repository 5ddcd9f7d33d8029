package webhookControllers

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/coderking2705/storefront-api/apperrors"
	"github.com/coderking2705/storefront-api/models"
	"github.com/coderking2705/storefront-api/testdb"
)

func seedShippedOrder(t *testing.T, db *gorm.DB, trackingNumber string) models.Order {
	t.Helper()
	product := testdb.CreateProduct(t, db, "Widget", "20.00", 3, 0)
	order := models.Order{
		OrderNumber:    "ORD-20260101-0077",
		UserID:         "u1",
		Status:         models.OrderStatusShipped,
		TrackingNumber: trackingNumber,
		Carrier:        "ups",
		TotalAmount:    decimal.RequireFromString("49.19"),
		Items: []models.OrderItem{{
			ProductID: product.ID, ProductName: product.Name, Quantity: 2,
		}},
	}
	require.NoError(t, db.Create(&order).Error)
	return order
}

func TestCarrierDeliveredEventIsIdempotent(t *testing.T) {
	db := testdb.Open(t)
	order := seedShippedOrder(t, db, "T1")
	deliveredAt := time.Date(2026, 3, 18, 14, 30, 0, 0, time.UTC)

	req := CarrierEventRequest{
		TrackingNumber: "T1",
		Status:         string(models.OrderStatusDelivered),
		Location:       "Front porch",
		Timestamp:      deliveredAt,
	}

	duplicate, err := HandleCarrierEvent(db, req)
	require.NoError(t, err)
	assert.False(t, duplicate)

	// Same carrier event again: acknowledged, nothing re-applied.
	duplicate, err = HandleCarrierEvent(db, req)
	require.NoError(t, err)
	assert.True(t, duplicate)

	var events int64
	require.NoError(t, db.Model(&models.OrderTrackingEvent{}).
		Where("order_id = ?", order.ID).Count(&events).Error)
	assert.EqualValues(t, 1, events)

	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, order.ID).Error)
	assert.Equal(t, models.OrderStatusDelivered, reloaded.Status)
	require.NotNil(t, reloaded.ActualDelivery)
	assert.True(t, reloaded.ActualDelivery.Equal(deliveredAt),
		"actual_delivery carries the carrier's timestamp and is stamped once")
}

func TestCarrierUnknownTrackingNumber(t *testing.T) {
	db := testdb.Open(t)

	_, err := HandleCarrierEvent(db, CarrierEventRequest{
		TrackingNumber: "NOPE",
		Status:         "in_transit",
		Timestamp:      time.Now(),
	})
	var notFound *apperrors.OrderNotFoundError
	require.ErrorAs(t, err, &notFound)

	// Never creates a phantom order or event.
	var orders, events int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orders).Error)
	require.NoError(t, db.Model(&models.OrderTrackingEvent{}).Count(&events).Error)
	assert.Zero(t, orders)
	assert.Zero(t, events)
}

func TestCarrierIntermediateEventKeepsStatus(t *testing.T) {
	db := testdb.Open(t)
	order := seedShippedOrder(t, db, "T2")

	duplicate, err := HandleCarrierEvent(db, CarrierEventRequest{
		TrackingNumber: "T2",
		Status:         "out_for_delivery",
		Location:       "Local depot",
		Timestamp:      time.Now().UTC().Truncate(time.Second),
	})
	require.NoError(t, err)
	assert.False(t, duplicate)

	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, order.ID).Error)
	assert.Equal(t, models.OrderStatusShipped, reloaded.Status,
		"only delivered advances the state machine")
	assert.Nil(t, reloaded.ActualDelivery)
}

func TestCarrierDeliveredKeepsCancelledOrderTerminal(t *testing.T) {
	db := testdb.Open(t)
	order := seedShippedOrder(t, db, "T3")
	require.NoError(t, db.Model(&order).
		Update("status", models.OrderStatusCancelled).Error)

	duplicate, err := HandleCarrierEvent(db, CarrierEventRequest{
		TrackingNumber: "T3",
		Status:         string(models.OrderStatusDelivered),
		Timestamp:      time.Now().UTC().Truncate(time.Second),
	})
	require.NoError(t, err)
	assert.False(t, duplicate)

	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, order.ID).Error)
	assert.Equal(t, models.OrderStatusCancelled, reloaded.Status)
	assert.Nil(t, reloaded.ActualDelivery)
}
