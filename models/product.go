package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID                uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	Name              string          `gorm:"not null" json:"name"`
	Description       string          `json:"description"`
	Price             decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	StockQuantity     int             `gorm:"not null;default:0" json:"stock_quantity"`
	MinimumStockLevel int             `gorm:"not null;default:0" json:"minimum_stock_level"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	DeletedAt         gorm.DeletedAt  `gorm:"index" json:"-"`
}
