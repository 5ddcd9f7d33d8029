package checkoutControllers

import (
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/coderking2705/storefront-api/apperrors"
	addressControllers "github.com/coderking2705/storefront-api/controllers/address"
	inventoryControllers "github.com/coderking2705/storefront-api/controllers/inventory"
	orderControllers "github.com/coderking2705/storefront-api/controllers/order"
	"github.com/coderking2705/storefront-api/middleware"
	"github.com/coderking2705/storefront-api/models"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "checkout").Logger()

// Monetary math stays in decimal end to end; results are rounded half away
// from zero at two places (shopspring Round semantics).
var (
	taxRate               = decimal.RequireFromString("0.08")
	flatShippingFee       = decimal.RequireFromString("5.99")
	freeShippingThreshold = decimal.NewFromInt(50)
)

const orderNumberAttempts = 5

type CheckoutRequest struct {
	ShippingAddress       addressControllers.Selection `json:"shipping_address" binding:"required"`
	BillingAddress        addressControllers.Selection `json:"billing_address"`
	BillingSameAsShipping bool                         `json:"billing_same_as_shipping"`
	PaymentMethod         string                       `json:"payment_method" binding:"required,oneof=cod card"`
}

// Checkout converts the user's cart into exactly one order. Stock
// validation, address resolution, totals, order rows, stock decrement and
// the cart clear all happen in one transaction; any failure rolls all of
// it back.
func Checkout(db *gorm.DB, userID string, req CheckoutRequest) (*models.Order, error) {
	var order *models.Order
	err := db.Transaction(func(tx *gorm.DB) error {
		var cart models.Cart
		err := tx.Preload("Items").Where("user_id = ?", userID).First(&cart).Error
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && len(cart.Items) == 0) {
			return &apperrors.EmptyCartError{}
		}
		if err != nil {
			return err
		}

		shipping, err := addressControllers.Resolve(tx, userID, req.ShippingAddress)
		if err != nil {
			return err
		}
		billing := shipping
		if !req.BillingSameAsShipping {
			billing, err = addressControllers.Resolve(tx, userID, req.BillingAddress)
			if err != nil {
				return err
			}
		}

		subtotal := decimal.Zero
		items := make([]models.OrderItem, 0, len(cart.Items))
		for _, line := range cart.Items {
			var product models.Product
			if err := tx.First(&product, "id = ?", line.ProductID).Error; err != nil {
				return err
			}
			if product.StockQuantity < line.Quantity {
				return &apperrors.InsufficientStockError{
					Product:   product.Name,
					Available: product.StockQuantity,
				}
			}
			lineTotal := product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
			subtotal = subtotal.Add(lineTotal)
			items = append(items, models.OrderItem{
				ProductID:   product.ID,
				ProductName: product.Name,
				UnitPrice:   product.Price,
				Quantity:    line.Quantity,
				LineTotal:   lineTotal,
			})
		}

		shippingFee := flatShippingFee
		if subtotal.GreaterThan(freeShippingThreshold) {
			shippingFee = decimal.Zero
		}
		tax := subtotal.Mul(taxRate).Round(2)
		total := subtotal.Add(shippingFee).Add(tax).Round(2)

		orderNumber, err := generateOrderNumber(tx)
		if err != nil {
			return err
		}

		status := models.OrderStatusPending
		if req.PaymentMethod == "cod" {
			status = models.OrderStatusConfirmed
		}
		order = &models.Order{
			OrderNumber:       orderNumber,
			UserID:            userID,
			Items:             items,
			Status:            status,
			PaymentMethod:     req.PaymentMethod,
			PaymentStatus:     models.PaymentStatusPending,
			TotalAmount:       total,
			ShippingFee:       shippingFee,
			TaxAmount:         tax,
			ShippingAddressID: shipping.ID,
			BillingAddressID:  billing.ID,
		}
		if req.PaymentMethod == "card" {
			// Session the payment authority will confirm asynchronously.
			order.PaymentSessionID = uuid.NewString()
		}
		if err := tx.Create(order).Error; err != nil {
			return err
		}

		for _, item := range order.Items {
			reason := fmt.Sprintf("order %s", order.OrderNumber)
			if _, err := inventoryControllers.AdjustStock(tx, item.ProductID, -item.Quantity,
				reason, models.MovementSale, userID); err != nil {
				return err
			}
		}

		if err := tx.Create(&models.OrderStatusHistory{
			OrderID: order.ID,
			Status:  order.Status,
			Note:    "order placed",
			Actor:   userID,
		}).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.OrderTrackingEvent{
			OrderID:     order.ID,
			Status:      orderControllers.StagePlaced,
			Description: "Order placed",
			EventTime:   time.Now(),
		}).Error; err != nil {
			return err
		}

		return tx.Where("cart_id = ?", cart.CartID).Delete(&models.CartItem{}).Error
	})
	if err != nil {
		return nil, err
	}
	logger.Info().Str("order_number", order.OrderNumber).Str("user_id", userID).
		Str("total", order.TotalAmount.StringFixed(2)).Msg("order placed")
	orderControllers.NotifyOrderPlaced(order, userID)
	return order, nil
}

// generateOrderNumber produces the human-facing ORD-YYYYMMDD-NNNN id.
// Collisions on the random suffix are rare but expected; regenerate a few
// times before giving up.
func generateOrderNumber(tx *gorm.DB) (string, error) {
	var candidate string
	for i := 0; i < orderNumberAttempts; i++ {
		candidate = fmt.Sprintf("ORD-%s-%04d", time.Now().Format("20060102"), rand.Intn(10000))
		var count int64
		if err := tx.Model(&models.Order{}).Where("order_number = ?", candidate).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
	}
	return "", &apperrors.DuplicateOrderNumberError{OrderNumber: candidate}
}

// -------- Handlers --------

// POST /user/checkout
func CheckoutHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		order, err := Checkout(db, middleware.UserID(c), req)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"order_id":     order.ID,
			"order_number": order.OrderNumber,
			"status":       order.Status,
			"total_amount": order.TotalAmount,
			"order":        order,
		})
	}
}
