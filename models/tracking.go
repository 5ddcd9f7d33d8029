package models

import "time"

// OrderStatusHistory records every status the order has been through,
// including who triggered the change.
type OrderStatusHistory struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	OrderID   uint        `gorm:"index;not null" json:"order_id"`
	Status    OrderStatus `gorm:"type:VARCHAR(20)" json:"status"`
	Note      string      `json:"note"`
	Actor     string      `json:"actor"`
	CreatedAt time.Time   `json:"created_at"`
}

// OrderTrackingEvent is the append-only carrier-facing timeline. The unique
// index on (order, status, event time) backs webhook deduplication: real
// carriers deliver at-least-once.
type OrderTrackingEvent struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OrderID     uint      `gorm:"uniqueIndex:idx_tracking_event_nat" json:"order_id"`
	Status      string    `gorm:"uniqueIndex:idx_tracking_event_nat;size:30" json:"status"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	EventTime   time.Time `gorm:"uniqueIndex:idx_tracking_event_nat" json:"event_time"`
	CreatedAt   time.Time `json:"created_at"`
}

const (
	DeliveryAttemptSuccess     = "success"
	DeliveryAttemptFailed      = "failed"
	DeliveryAttemptRescheduled = "rescheduled"
)

type DeliveryAttempt struct {
	ID                    uint      `gorm:"primaryKey" json:"id"`
	OrderID               uint      `gorm:"index;not null" json:"order_id"`
	AttemptNumber         int       `json:"attempt_number"`
	Status                string    `gorm:"size:20" json:"status"`
	Notes                 string    `json:"notes"`
	DeliveryPersonContact string    `json:"delivery_person_contact"`
	AttemptedAt           time.Time `json:"attempted_at"`
}
