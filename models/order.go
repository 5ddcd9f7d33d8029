package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string
type PaymentStatus string

const (
	// Order statuses (fulfilment flow)
	OrderStatusPending        OrderStatus = "pending"          // Order placed, awaiting payment confirmation
	OrderStatusConfirmed      OrderStatus = "confirmed"        // Payment confirmed (or COD accepted)
	OrderStatusProcessing     OrderStatus = "processing"       // Being picked and packed
	OrderStatusShipped        OrderStatus = "shipped"          // Handed to the carrier
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery" // On the last-mile vehicle
	OrderStatusDelivered      OrderStatus = "delivered"        // Customer received the item
	OrderStatusCancelled      OrderStatus = "cancelled"        // Cancelled before shipping
	OrderStatusDeliveryFailed OrderStatus = "delivery_failed"  // Carrier could not deliver
	OrderStatusFailed         OrderStatus = "failed"           // Payment failed

	// Payment statuses
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"

	// Refund status is an axis of its own, not part of the fulfilment flow
	RefundStatusNone      = ""
	RefundStatusProcessed = "processed"
)

type Order struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	OrderNumber        string          `gorm:"uniqueIndex;size:20;not null" json:"order_number"`
	UserID             string          `gorm:"index;not null" json:"user_id"`
	Items              []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Status             OrderStatus     `gorm:"type:VARCHAR(20);default:'pending'" json:"status"`
	PaymentMethod      string          `json:"payment_method"` // "cod" or "card"
	PaymentStatus      PaymentStatus   `gorm:"type:VARCHAR(20);default:'pending'" json:"payment_status"`
	PaymentSessionID   string          `gorm:"index" json:"-"`
	PaymentRef         string          `json:"-"`
	TotalAmount        decimal.Decimal `gorm:"type:decimal(10,2)" json:"total_amount"`
	ShippingFee        decimal.Decimal `gorm:"type:decimal(10,2)" json:"shipping_fee"`
	TaxAmount          decimal.Decimal `gorm:"type:decimal(10,2)" json:"tax_amount"`
	ShippingAddressID  uint            `json:"shipping_address_id"`
	BillingAddressID   uint            `json:"billing_address_id"`
	TrackingNumber     string          `gorm:"index" json:"tracking_number"`
	Carrier            string          `json:"carrier"`
	EstimatedDelivery  *time.Time      `json:"estimated_delivery,omitempty"`
	ActualDelivery     *time.Time      `json:"actual_delivery,omitempty"`
	CancelledAt        *time.Time      `json:"cancelled_at,omitempty"`
	CancellationReason string          `json:"cancellation_reason,omitempty"`
	RefundStatus       string          `json:"refund_status,omitempty"`
	RefundAmount       decimal.Decimal `gorm:"type:decimal(10,2)" json:"refund_amount"`
	RefundReason       string          `json:"refund_reason,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// OrderItem is a snapshot of the product at checkout time. Name and price
// stay frozen even if the live product record changes later.
type OrderItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	OrderID     uint            `gorm:"index" json:"order_id"`
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(10,2)" json:"unit_price"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(10,2)" json:"line_total"`
}

var orderStatuses = map[OrderStatus]bool{
	OrderStatusPending:        true,
	OrderStatusConfirmed:      true,
	OrderStatusProcessing:     true,
	OrderStatusShipped:        true,
	OrderStatusOutForDelivery: true,
	OrderStatusDelivered:      true,
	OrderStatusCancelled:      true,
	OrderStatusDeliveryFailed: true,
	OrderStatusFailed:         true,
}

var terminalStatuses = map[OrderStatus]bool{
	OrderStatusDelivered: true,
	OrderStatusCancelled: true,
	OrderStatusFailed:    true,
}

// An order that has shipped can no longer be cancelled.
var cancellableStatuses = map[OrderStatus]bool{
	OrderStatusPending:    true,
	OrderStatusConfirmed:  true,
	OrderStatusProcessing: true,
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	status := OrderStatus(s)
	return status, orderStatuses[status]
}

func (s OrderStatus) IsTerminal() bool { return terminalStatuses[s] }

func (s OrderStatus) IsCancellable() bool { return cancellableStatuses[s] }

// CanTransition reports whether an order may move from one status to
// another. The flow is event-driven rather than strictly sequential, so
// forward skips recorded by an admin are allowed; what is never allowed is
// leaving a terminal state, re-entering the same state, cancelling an order
// that has already shipped, or failing anything but a pending payment.
func CanTransition(from, to OrderStatus) bool {
	if !orderStatuses[from] || !orderStatuses[to] {
		return false
	}
	if from.IsTerminal() {
		return false
	}
	if from == to {
		return false
	}
	if to == OrderStatusCancelled {
		return from.IsCancellable()
	}
	if to == OrderStatusFailed {
		return from == OrderStatusPending
	}
	return true
}
