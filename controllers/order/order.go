package orderControllers

import (
	"errors"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/coderking2705/storefront-api/apperrors"
	"github.com/coderking2705/storefront-api/middleware"
	"github.com/coderking2705/storefront-api/models"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "orders").Logger()

// -------- Request Structs --------

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

type RefundRequest struct {
	Amount string `json:"amount" binding:"required"`
	Reason string `json:"reason"`
}

type DeliveryAttemptRequest struct {
	AttemptNumber         int    `json:"attempt_number" binding:"required,min=1"`
	Status                string `json:"status" binding:"required,oneof=success failed rescheduled"`
	Notes                 string `json:"notes"`
	DeliveryPersonContact string `json:"delivery_person_contact"`
}

type BulkUpdateRequest struct {
	OrderIDs []uint `json:"order_ids" binding:"required,min=1"`
	Status   string `json:"status" binding:"required"`
	Note     string `json:"note"`
}

func parseOrderID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("orderID"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return 0, false
	}
	return uint(id), true
}

// -------- Handlers --------

// GET /orders (admin)
func GetAllOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := db.Preload("Items").Order("created_at DESC")
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}
		var orders []models.Order
		if err := query.Find(&orders).Error; err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

// GET /user/orders
func GetUserOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var orders []models.Order
		if err := db.Where("user_id = ?", middleware.UserID(c)).
			Preload("Items").
			Order("created_at DESC").
			Find(&orders).Error; err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

// GET /user/orders/:orderID accepts a numeric id or an order number; owner or admin only.
func GetOrderHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ref := c.Param("orderID")
		var order models.Order
		if err := db.Preload("Items").
			Where("id = ? OR order_number = ?", ref, ref).
			First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apperrors.Respond(c, &apperrors.OrderNotFoundError{Ref: ref})
				return
			}
			apperrors.Respond(c, err)
			return
		}
		if order.UserID != middleware.UserID(c) && middleware.Role(c) != models.RoleAdmin {
			apperrors.Respond(c, &apperrors.NotAuthorizedError{})
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// PUT /admin/orders/:orderID/status
func UpdateOrderStatusHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := parseOrderID(c)
		if !ok {
			return
		}
		var req UpdateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		newStatus, ok := models.ParseOrderStatus(req.Status)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order status"})
			return
		}
		order, err := SetStatus(db, orderID, newStatus, middleware.UserID(c), req.Note)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// POST /user/orders/:orderID/cancel lets the owner cancel their own order.
func CancelOrderHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := parseOrderID(c)
		if !ok {
			return
		}
		var req CancelOrderRequest
		_ = c.ShouldBindJSON(&req)

		userID := middleware.UserID(c)
		if middleware.Role(c) != models.RoleAdmin {
			var order models.Order
			if err := db.Select("user_id").First(&order, "id = ?", orderID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					apperrors.Respond(c, &apperrors.OrderNotFoundError{Ref: c.Param("orderID")})
					return
				}
				apperrors.Respond(c, err)
				return
			}
			if order.UserID != userID {
				apperrors.Respond(c, &apperrors.NotAuthorizedError{})
				return
			}
		}

		order, err := Cancel(db, orderID, userID, req.Reason)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// POST /admin/orders/:orderID/refund
func ProcessRefundHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := parseOrderID(c)
		if !ok {
			return
		}
		var req RefundRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		amount, err := decimal.NewFromString(req.Amount)
		if err != nil || amount.LessThanOrEqual(decimal.Zero) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid refund amount"})
			return
		}
		order, err := Refund(db, orderID, amount, middleware.UserID(c), req.Reason)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// POST /admin/orders/:orderID/delivery-attempts
func RecordDeliveryAttemptHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := parseOrderID(c)
		if !ok {
			return
		}
		var req DeliveryAttemptRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		attempt, err := RecordDeliveryAttempt(db, orderID, req.AttemptNumber, req.Status,
			req.Notes, req.DeliveryPersonContact, middleware.UserID(c))
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusCreated, attempt)
	}
}

// PUT /admin/orders/bulk-status. Each order succeeds or fails on its own.
func BulkUpdateOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req BulkUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		newStatus, ok := models.ParseOrderStatus(req.Status)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order status"})
			return
		}

		type result struct {
			OrderID uint   `json:"order_id"`
			OK      bool   `json:"ok"`
			Error   string `json:"error,omitempty"`
		}
		results := make([]result, 0, len(req.OrderIDs))
		for _, id := range req.OrderIDs {
			if _, err := SetStatus(db, id, newStatus, middleware.UserID(c), req.Note); err != nil {
				results = append(results, result{OrderID: id, Error: err.Error()})
				continue
			}
			results = append(results, result{OrderID: id, OK: true})
		}
		c.JSON(http.StatusOK, gin.H{"results": results})
	}
}
