package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order. The row in storage is the
// state machine; there is no in-process actor behind it.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// PaymentMethod is the closed set of accepted payment methods.
type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentCreditCard     PaymentMethod = "credit_card"
	PaymentWallet         PaymentMethod = "wallet"
)

var (
	// ErrInvalidOrderStatus is returned when a status string does not name a
	// known order status.
	ErrInvalidOrderStatus = errors.New("invalid status")
	// ErrInvalidPaymentMethod is returned when a payment method string does
	// not name a known method.
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	// ErrIllegalTransition is returned for a status change the lifecycle
	// does not allow.
	ErrIllegalTransition = errors.New("illegal status transition")
)

// ParseOrderStatus parses a status string case-insensitively. Both the
// storage form ("cash_on_delivery" style snake case) and the API form
// ("Cancelled" style) are accepted.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return OrderPending, nil
	case "processing":
		return OrderProcessing, nil
	case "shipped":
		return OrderShipped, nil
	case "delivered":
		return OrderDelivered, nil
	case "cancelled":
		return OrderCancelled, nil
	default:
		return "", ErrInvalidOrderStatus
	}
}

// ParsePaymentMethod parses a payment method string. The API accepts the
// PascalCase names used by the storefront ("CashOnDelivery", "CreditCard",
// "Wallet") as well as the snake_case storage form.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cashondelivery", "cash_on_delivery":
		return PaymentCashOnDelivery, nil
	case "creditcard", "credit_card":
		return PaymentCreditCard, nil
	case "wallet":
		return PaymentWallet, nil
	default:
		return "", ErrInvalidPaymentMethod
	}
}

// orderTransitions is the explicit forward-only lifecycle. Delivered and
// Cancelled are terminal. User-initiated cancellation is additionally
// restricted to Pending by the order service.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled},
	OrderProcessing: {OrderShipped, OrderDelivered, OrderCancelled},
	OrderShipped:    {OrderDelivered},
	OrderDelivered:  {},
	OrderCancelled:  {},
}

// CanTransition reports whether the lifecycle allows moving from s to next.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are allowed from s.
func (s OrderStatus) Terminal() bool {
	return len(orderTransitions[s]) == 0
}

// NewOrderNumber produces a short human-readable order reference.
func NewOrderNumber() string {
	return strings.ToUpper(uuid.New().String()[:10])
}

// Order is the immutable record of a completed checkout. Only Status,
// ShippedDate and DeliveredDate mutate after creation; every monetary field
// is frozen at checkout time. The coupon fields are present as a set iff a
// coupon was applied.
type Order struct {
	ID                       uuid.UUID        `json:"id" db:"id"`
	UserID                   uuid.UUID        `json:"user_id" db:"user_id"`
	AddressID                uuid.UUID        `json:"address_id" db:"address_id"`
	OrderNumber              string           `json:"order_number" db:"order_number"`
	OrderTotal               decimal.Decimal  `json:"order_total" db:"order_total"`
	ProductDiscountAmount    decimal.Decimal  `json:"product_discount_amount" db:"product_discount_amount"`
	CouponCode               *string          `json:"coupon_code,omitempty" db:"coupon_code"`
	CouponDiscountPercentage *decimal.Decimal `json:"coupon_discount_percentage,omitempty" db:"coupon_discount_percentage"`
	CouponDiscountAmount     *decimal.Decimal `json:"coupon_discount_amount,omitempty" db:"coupon_discount_amount"`
	FinalAmount              decimal.Decimal  `json:"final_amount" db:"final_amount"`
	Status                   OrderStatus      `json:"status" db:"status"`
	PaymentMethod            PaymentMethod    `json:"payment_method" db:"payment_method"`
	ShippingNotes            *string          `json:"shipping_notes,omitempty" db:"shipping_notes"`
	OrderDate                time.Time        `json:"order_date" db:"order_date"`
	ShippedDate              *time.Time       `json:"shipped_date,omitempty" db:"shipped_date"`
	DeliveredDate            *time.Time       `json:"delivered_date,omitempty" db:"delivered_date"`
}

// OrderItem is the immutable per-product snapshot taken at order time.
// UnitPrice is the list price at that instant; DiscountedUnitPrice is set
// only when a product or category discount applied. Never recomputed.
type OrderItem struct {
	ID                  uuid.UUID        `json:"id" db:"id"`
	OrderID             uuid.UUID        `json:"order_id" db:"order_id"`
	ProductID           uuid.UUID        `json:"product_id" db:"product_id"`
	Quantity            int              `json:"quantity" db:"quantity"`
	UnitPrice           decimal.Decimal  `json:"unit_price" db:"unit_price"`
	DiscountedUnitPrice *decimal.Decimal `json:"discounted_unit_price,omitempty" db:"discounted_unit_price"`
}

// EffectiveUnitPrice returns the price the line was actually charged at.
func (i *OrderItem) EffectiveUnitPrice() decimal.Decimal {
	if i.DiscountedUnitPrice != nil {
		return *i.DiscountedUnitPrice
	}
	return i.UnitPrice
}

// LineTotal returns quantity times the effective unit price.
func (i *OrderItem) LineTotal() decimal.Decimal {
	return i.EffectiveUnitPrice().Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderItemDetail pairs an order item with current product display data.
// ProductName is empty when the product has since been removed; the
// projection substitutes a placeholder rather than failing.
type OrderItemDetail struct {
	OrderItem
	ProductName string
	ImageURL    string
}

// OrderDetail is the joined read model behind the external order
// representation: the order row plus its address, the owner's display name
// and the detailed items.
type OrderDetail struct {
	Order    Order
	UserName string
	Address  Address
	Items    []OrderItemDetail
}
