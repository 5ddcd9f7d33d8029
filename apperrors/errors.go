package apperrors

import "fmt"

// Domain errors carry a stable machine code and the HTTP status they map
// to, so handlers never leak internals to the caller.

type EmptyCartError struct{}

func (e *EmptyCartError) Error() string   { return "cart is empty" }
func (e *EmptyCartError) Code() string    { return "EMPTY_CART" }
func (e *EmptyCartError) HTTPStatus() int { return 400 }

type InsufficientStockError struct {
	Product   string
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %q: %d available", e.Product, e.Available)
}
func (e *InsufficientStockError) Code() string    { return "INSUFFICIENT_STOCK" }
func (e *InsufficientStockError) HTTPStatus() int { return 409 }

type InvalidAddressError struct {
	AddressID uint
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("address %d does not exist or does not belong to the user", e.AddressID)
}
func (e *InvalidAddressError) Code() string    { return "INVALID_ADDRESS" }
func (e *InvalidAddressError) HTTPStatus() int { return 400 }

type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %q to %q", e.From, e.To)
}
func (e *InvalidTransitionError) Code() string    { return "INVALID_TRANSITION" }
func (e *InvalidTransitionError) HTTPStatus() int { return 409 }

type RefundExceedsTotalError struct {
	Amount string
	Total  string
}

func (e *RefundExceedsTotalError) Error() string {
	return fmt.Sprintf("refund amount %s exceeds order total %s", e.Amount, e.Total)
}
func (e *RefundExceedsTotalError) Code() string    { return "REFUND_EXCEEDS_TOTAL" }
func (e *RefundExceedsTotalError) HTTPStatus() int { return 400 }

type OrderNotFoundError struct {
	Ref string
}

func (e *OrderNotFoundError) Error() string   { return fmt.Sprintf("order %q not found", e.Ref) }
func (e *OrderNotFoundError) Code() string    { return "ORDER_NOT_FOUND" }
func (e *OrderNotFoundError) HTTPStatus() int { return 404 }

type NotAuthorizedError struct{}

func (e *NotAuthorizedError) Error() string   { return "not authorized" }
func (e *NotAuthorizedError) Code() string    { return "NOT_AUTHORIZED" }
func (e *NotAuthorizedError) HTTPStatus() int { return 403 }

// DuplicateOrderNumberError is internal: checkout retries generation and
// only surfaces this after exhausting its attempts.
type DuplicateOrderNumberError struct {
	OrderNumber string
}

func (e *DuplicateOrderNumberError) Error() string {
	return fmt.Sprintf("order number %q already exists", e.OrderNumber)
}
func (e *DuplicateOrderNumberError) Code() string    { return "DUPLICATE_ORDER_NUMBER" }
func (e *DuplicateOrderNumberError) HTTPStatus() int { return 500 }
