package models

import "time"

type MovementType string

const (
	MovementPurchase   MovementType = "purchase"
	MovementSale       MovementType = "sale"
	MovementReturn     MovementType = "return"
	MovementDamage     MovementType = "damage"
	MovementAdjustment MovementType = "adjustment"
)

var movementTypes = map[MovementType]bool{
	MovementPurchase:   true,
	MovementSale:       true,
	MovementReturn:     true,
	MovementDamage:     true,
	MovementAdjustment: true,
}

func ParseMovementType(s string) (MovementType, bool) {
	mt := MovementType(s)
	return mt, movementTypes[mt]
}

// StockMovement is the append-only audit trail of every stock change.
// Rows are write-once: current stock is always reconstructible as the
// initial stock plus the signed sum of all movement deltas.
type StockMovement struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	ProductID     uint         `gorm:"index;not null" json:"product_id"`
	MovementType  MovementType `gorm:"type:VARCHAR(20);not null" json:"movement_type"`
	QuantityDelta int          `gorm:"not null" json:"quantity_delta"`
	PreviousStock int          `json:"previous_stock"`
	NewStock      int          `json:"new_stock"`
	Reason        string       `json:"reason"`
	Actor         string       `json:"actor"`
	CreatedAt     time.Time    `json:"created_at"`
}

const AlertTypeLowStock = "low_stock"

const (
	AlertStatusActive   = "active"
	AlertStatusResolved = "resolved"
)

// StockAlert is upserted per (product, alert type) so repeated low-stock
// adjustments update one row instead of piling up duplicates.
type StockAlert struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ProductID     uint      `gorm:"uniqueIndex:idx_alert_product_type" json:"product_id"`
	AlertType     string    `gorm:"uniqueIndex:idx_alert_product_type;size:30" json:"alert_type"`
	Status        string    `gorm:"size:20" json:"status"`
	StockQuantity int       `json:"stock_quantity"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

const (
	StockStatusOut = "out_of_stock"
	StockStatusLow = "low_stock"
	StockStatusIn  = "in_stock"
)

// ComputeStockStatus derives the display status from the canonical stored
// fields; it is never duplicated in SQL.
func ComputeStockStatus(stock, minimumLevel int) string {
	switch {
	case stock <= 0:
		return StockStatusOut
	case stock <= minimumLevel:
		return StockStatusLow
	default:
		return StockStatusIn
	}
}
