// Package testdb provides an in-memory database and seed helpers for tests.
package testdb

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/coderking2705/storefront-api/models"
)

// Open returns a fresh in-memory database with all tables migrated.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Cart{},
		&models.CartItem{},
		&models.Address{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusHistory{},
		&models.OrderTrackingEvent{},
		&models.DeliveryAttempt{},
		&models.StockMovement{},
		&models.StockAlert{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func CreateProduct(t *testing.T, db *gorm.DB, name, price string, stock, minimumLevel int) models.Product {
	t.Helper()
	product := models.Product{
		Name:              name,
		Price:             decimal.RequireFromString(price),
		StockQuantity:     stock,
		MinimumStockLevel: minimumLevel,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

func CreateAddress(t *testing.T, db *gorm.DB, userID string, isDefault bool) models.Address {
	t.Helper()
	address := models.Address{
		UserID:    userID,
		Line1:     "1 Main St",
		City:      "Springfield",
		Country:   "US",
		IsDefault: isDefault,
	}
	if err := db.Create(&address).Error; err != nil {
		t.Fatalf("create address: %v", err)
	}
	return address
}

// FillCart seeds the user's cart with the given quantity of each product.
func FillCart(t *testing.T, db *gorm.DB, userID string, lines map[uint]int) models.Cart {
	t.Helper()
	cart := models.Cart{UserID: userID}
	if err := db.Where(models.Cart{UserID: userID}).FirstOrCreate(&cart).Error; err != nil {
		t.Fatalf("create cart: %v", err)
	}
	for productID, qty := range lines {
		var product models.Product
		if err := db.First(&product, "id = ?", productID).Error; err != nil {
			t.Fatalf("load product %d: %v", productID, err)
		}
		item := models.CartItem{
			CartID:      cart.CartID,
			ProductID:   product.ID,
			ProductName: product.Name,
			UnitPrice:   product.Price,
			Quantity:    qty,
		}
		if err := db.Create(&item).Error; err != nil {
			t.Fatalf("create cart item: %v", err)
		}
	}
	return cart
}
