package checkoutControllers

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coderking2705/storefront-api/apperrors"
	addressControllers "github.com/coderking2705/storefront-api/controllers/address"
	orderControllers "github.com/coderking2705/storefront-api/controllers/order"
	"github.com/coderking2705/storefront-api/models"
	"github.com/coderking2705/storefront-api/testdb"
)

func inlineAddress() addressControllers.Selection {
	return addressControllers.Selection{
		Inline: &addressControllers.AddressInput{
			Line1:   "1 Main St",
			City:    "Springfield",
			Country: "US",
		},
	}
}

func codRequest() CheckoutRequest {
	return CheckoutRequest{
		ShippingAddress:       inlineAddress(),
		BillingSameAsShipping: true,
		PaymentMethod:         "cod",
	}
}

func TestCheckoutCashOnDelivery(t *testing.T) {
	db := testdb.Open(t)
	product := testdb.CreateProduct(t, db, "Widget", "20.00", 5, 0)
	testdb.FillCart(t, db, "u1", map[uint]int{product.ID: 2})

	order, err := Checkout(db, "u1", codRequest())
	require.NoError(t, err)

	// subtotal 40.00, flat shipping 5.99, 8% tax 3.20
	assert.Equal(t, "5.99", order.ShippingFee.StringFixed(2))
	assert.Equal(t, "3.20", order.TaxAmount.StringFixed(2))
	assert.Equal(t, "49.19", order.TotalAmount.StringFixed(2))
	assert.Equal(t, models.OrderStatusConfirmed, order.Status)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	assert.Regexp(t, regexp.MustCompile(`^ORD-\d{8}-\d{4}$`), order.OrderNumber)

	require.Len(t, order.Items, 1)
	assert.Equal(t, "Widget", order.Items[0].ProductName)
	assert.Equal(t, "20.00", order.Items[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "40.00", order.Items[0].LineTotal.StringFixed(2))

	// Stock decremented through the ledger.
	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, product.ID).Error)
	assert.Equal(t, 3, reloaded.StockQuantity)

	var movements []models.StockMovement
	require.NoError(t, db.Find(&movements).Error)
	require.Len(t, movements, 1)
	assert.Equal(t, models.MovementSale, movements[0].MovementType)
	assert.Equal(t, -2, movements[0].QuantityDelta)

	// Cart emptied.
	var cartItems int64
	require.NoError(t, db.Model(&models.CartItem{}).Count(&cartItems).Error)
	assert.Zero(t, cartItems)

	// First history row and placed tracking event written.
	var history []models.OrderStatusHistory
	require.NoError(t, db.Where("order_id = ?", order.ID).Find(&history).Error)
	require.Len(t, history, 1)
	assert.Equal(t, models.OrderStatusConfirmed, history[0].Status)

	var events []models.OrderTrackingEvent
	require.NoError(t, db.Where("order_id = ?", order.ID).Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, orderControllers.StagePlaced, events[0].Status)
}

func TestCheckoutInsufficientStock(t *testing.T) {
	db := testdb.Open(t)
	product := testdb.CreateProduct(t, db, "Widget", "20.00", 4, 0)
	testdb.FillCart(t, db, "u1", map[uint]int{product.ID: 5})

	_, err := Checkout(db, "u1", codRequest())
	var insufficient *apperrors.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "Widget", insufficient.Product)
	assert.Equal(t, 4, insufficient.Available)

	// Transaction rolled back in full: no order, no stock change, cart intact.
	var orders int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orders).Error)
	assert.Zero(t, orders)

	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, product.ID).Error)
	assert.Equal(t, 4, reloaded.StockQuantity)

	var cartItems int64
	require.NoError(t, db.Model(&models.CartItem{}).Count(&cartItems).Error)
	assert.EqualValues(t, 1, cartItems)
}

func TestCheckoutRollsBackPartialAdjustments(t *testing.T) {
	db := testdb.Open(t)
	plenty := testdb.CreateProduct(t, db, "Plenty", "10.00", 50, 0)
	scarce := testdb.CreateProduct(t, db, "Scarce", "10.00", 1, 0)
	testdb.FillCart(t, db, "u1", map[uint]int{plenty.ID: 2, scarce.ID: 3})

	_, err := Checkout(db, "u1", codRequest())
	var insufficient *apperrors.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)

	// Nothing from the failed checkout survives, whichever line tripped it.
	var p models.Product
	require.NoError(t, db.First(&p, plenty.ID).Error)
	assert.Equal(t, 50, p.StockQuantity)

	var movements int64
	require.NoError(t, db.Model(&models.StockMovement{}).Count(&movements).Error)
	assert.Zero(t, movements)
}

func TestCheckoutEmptyCart(t *testing.T) {
	db := testdb.Open(t)

	_, err := Checkout(db, "u1", codRequest())
	var empty *apperrors.EmptyCartError
	require.ErrorAs(t, err, &empty)
}

func TestCheckoutFreeShippingOverThreshold(t *testing.T) {
	db := testdb.Open(t)
	product := testdb.CreateProduct(t, db, "Widget", "30.00", 10, 0)
	testdb.FillCart(t, db, "u1", map[uint]int{product.ID: 2})

	order, err := Checkout(db, "u1", codRequest())
	require.NoError(t, err)
	// subtotal 60.00 > 50: no shipping fee; tax 4.80
	assert.Equal(t, "0.00", order.ShippingFee.StringFixed(2))
	assert.Equal(t, "64.80", order.TotalAmount.StringFixed(2))
}

func TestCheckoutCardPaymentStaysPending(t *testing.T) {
	db := testdb.Open(t)
	product := testdb.CreateProduct(t, db, "Widget", "20.00", 5, 0)
	testdb.FillCart(t, db, "u1", map[uint]int{product.ID: 1})

	req := codRequest()
	req.PaymentMethod = "card"
	order, err := Checkout(db, "u1", req)
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	assert.NotEmpty(t, order.PaymentSessionID)
}

func TestCheckoutRejectsForeignAddress(t *testing.T) {
	db := testdb.Open(t)
	product := testdb.CreateProduct(t, db, "Widget", "20.00", 5, 0)
	testdb.FillCart(t, db, "u1", map[uint]int{product.ID: 1})
	other := testdb.CreateAddress(t, db, "someone-else", false)

	req := codRequest()
	req.ShippingAddress = addressControllers.Selection{AddressID: other.ID}
	_, err := Checkout(db, "u1", req)

	var invalid *apperrors.InvalidAddressError
	require.ErrorAs(t, err, &invalid)

	var orders int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orders).Error)
	assert.Zero(t, orders)
}

func TestCheckoutIsAtMostOncePerCart(t *testing.T) {
	db := testdb.Open(t)
	product := testdb.CreateProduct(t, db, "Widget", "20.00", 2, 0)
	testdb.FillCart(t, db, "u1", map[uint]int{product.ID: 2})

	_, err := Checkout(db, "u1", codRequest())
	require.NoError(t, err)

	// The cart was consumed by the first call.
	_, err = Checkout(db, "u1", codRequest())
	var empty *apperrors.EmptyCartError
	require.ErrorAs(t, err, &empty)

	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, product.ID).Error)
	assert.Equal(t, 0, reloaded.StockQuantity)
}
