package inventoryControllers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/coderking2705/storefront-api/apperrors"
	"github.com/coderking2705/storefront-api/middleware"
	"github.com/coderking2705/storefront-api/models"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "inventory").Logger()

type Adjustment struct {
	PreviousStock int `json:"previous_stock"`
	NewStock      int `json:"new_stock"`
}

// AdjustStock applies a signed stock delta inside the caller's transaction.
// The decrement is a single conditional UPDATE, so two concurrent checkouts
// cannot both pass a stale stock check: the row either absorbs the delta or
// the statement matches nothing and the adjustment fails. On success it
// appends an immutable StockMovement and re-evaluates the low-stock alert.
func AdjustStock(tx *gorm.DB, productID uint, delta int, reason string, movementType models.MovementType, actor string) (*Adjustment, error) {
	result := tx.Model(&models.Product{}).
		Where("id = ? AND stock_quantity + ? >= 0", productID, delta).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", delta))
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		var product models.Product
		if err := tx.First(&product, "id = ?", productID).Error; err != nil {
			return nil, err
		}
		return nil, &apperrors.InsufficientStockError{
			Product:   product.Name,
			Available: product.StockQuantity,
		}
	}

	var product models.Product
	if err := tx.First(&product, "id = ?", productID).Error; err != nil {
		return nil, err
	}
	adj := &Adjustment{
		PreviousStock: product.StockQuantity - delta,
		NewStock:      product.StockQuantity,
	}

	movement := models.StockMovement{
		ProductID:     productID,
		MovementType:  movementType,
		QuantityDelta: delta,
		PreviousStock: adj.PreviousStock,
		NewStock:      adj.NewStock,
		Reason:        reason,
		Actor:         actor,
	}
	if err := tx.Create(&movement).Error; err != nil {
		return nil, err
	}

	if err := evaluateLowStock(tx, &product); err != nil {
		return nil, err
	}
	return adj, nil
}

// evaluateLowStock upserts the per-product low-stock alert so repeated
// adjustments never create duplicates.
func evaluateLowStock(tx *gorm.DB, product *models.Product) error {
	var alert models.StockAlert
	err := tx.Where("product_id = ? AND alert_type = ?", product.ID, models.AlertTypeLowStock).
		First(&alert).Error
	low := product.StockQuantity <= product.MinimumStockLevel

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if !low {
			return nil
		}
		return tx.Create(&models.StockAlert{
			ProductID:     product.ID,
			AlertType:     models.AlertTypeLowStock,
			Status:        models.AlertStatusActive,
			StockQuantity: product.StockQuantity,
		}).Error
	case err != nil:
		return err
	}

	status := models.AlertStatusResolved
	if low {
		status = models.AlertStatusActive
	}
	return tx.Model(&alert).Updates(map[string]interface{}{
		"status":         status,
		"stock_quantity": product.StockQuantity,
		"updated_at":     time.Now(),
	}).Error
}

// RestoreStock re-credits every item of an order as return movements.
// Callers guard at-most-once execution through the order's own status
// transition; this function itself does not re-derive from movements.
func RestoreStock(tx *gorm.DB, order *models.Order, actor string) error {
	for _, item := range order.Items {
		reason := fmt.Sprintf("order %s cancelled", order.OrderNumber)
		if _, err := AdjustStock(tx, item.ProductID, item.Quantity, reason, models.MovementReturn, actor); err != nil {
			return err
		}
	}
	return nil
}

// -------- Handlers --------

type AdjustStockRequest struct {
	Delta        int    `json:"delta" binding:"required"`
	Reason       string `json:"reason" binding:"required"`
	MovementType string `json:"movement_type" binding:"required"`
}

// POST /admin/inventory/:productID/adjust
func AdjustStockHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, err := strconv.ParseUint(c.Param("productID"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
			return
		}
		var req AdjustStockRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		movementType, ok := models.ParseMovementType(req.MovementType)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid movement type"})
			return
		}

		var adj *Adjustment
		err = db.Transaction(func(tx *gorm.DB) error {
			var err error
			adj, err = AdjustStock(tx, uint(productID), req.Delta, req.Reason, movementType, middleware.UserID(c))
			return err
		})
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		logger.Info().Uint64("product_id", productID).Int("delta", req.Delta).
			Str("type", string(movementType)).Msg("stock adjusted")
		c.JSON(http.StatusOK, adj)
	}
}

// GET /admin/inventory/:productID/movements
func ListMovementsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var movements []models.StockMovement
		if err := db.Where("product_id = ?", c.Param("productID")).
			Order("created_at ASC, id ASC").
			Find(&movements).Error; err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, movements)
	}
}

// GET /admin/inventory
func ListInventoryHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var products []models.Product
		if err := db.Order("id ASC").Find(&products).Error; err != nil {
			apperrors.Respond(c, err)
			return
		}
		type row struct {
			models.Product
			StockStatus string `json:"stock_status"`
		}
		rows := make([]row, 0, len(products))
		for _, p := range products {
			rows = append(rows, row{
				Product:     p,
				StockStatus: models.ComputeStockStatus(p.StockQuantity, p.MinimumStockLevel),
			})
		}
		c.JSON(http.StatusOK, rows)
	}
}

// GET /admin/inventory/alerts
func ListAlertsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var alerts []models.StockAlert
		query := db.Order("updated_at DESC")
		if c.Query("status") != "" {
			query = query.Where("status = ?", c.Query("status"))
		}
		if err := query.Find(&alerts).Error; err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, alerts)
	}
}
