package models

import (
	"net/mail"
	"time"

	"github.com/google/uuid"
)

type OrderType string

const (
	OrderTypePickup   OrderType = "pickup"
	OrderTypeDelivery OrderType = "delivery"
	OrderTypeDineIn   OrderType = "dine-in"
)

func (t OrderType) IsValid() bool {
	return t == OrderTypePickup || t == OrderTypeDelivery || t == OrderTypeDineIn
}

type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentCard         PaymentMethod = "card"
	PaymentOnline       PaymentMethod = "online"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
)

func (m PaymentMethod) IsValid() bool {
	return m == PaymentCash || m == PaymentCard || m == PaymentOnline || m == PaymentBankTransfer
}

// OrderStatus is a plain enum with no enforced transition graph: any status
// may move to any other. Reaching delivered stamps the actual delivery time.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusPreparing, StatusReady, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
	PaymentStatusFailed   PaymentStatus = "failed"
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusRefunded, PaymentStatusFailed:
		return true
	}
	return false
}

const (
	// TaxRate is applied to the order subtotal.
	TaxRate = 0.08
	// DeliveryFee is the flat charge for delivery orders.
	DeliveryFee = 5.00
)

type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type DeliveryAddress struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zipCode,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

// OrderItem carries snapshots of the product name, unit price and category
// taken at order time, so later catalog edits do not alter historical orders.
// ProductID goes nil when the product is hard-deleted from the catalog; the
// snapshot fields keep the line meaningful.
type OrderItem struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	OrderID   uuid.UUID  `db:"order_id" json:"-"`
	ProductID *uuid.UUID `db:"product_id" json:"product,omitempty"`
	Name      string     `db:"name" json:"name"`
	Price     float64    `db:"price" json:"price"`
	Category  Category   `db:"category" json:"category"`
	Quantity  int        `db:"quantity" json:"quantity"`
	Subtotal  float64    `db:"subtotal" json:"subtotal"`
}

type Order struct {
	ID                    uuid.UUID        `db:"id" json:"id"`
	OrderNumber           string           `db:"order_number" json:"orderNumber"`
	Customer              Customer         `db:"-" json:"customer"`
	Items                 []OrderItem      `db:"-" json:"items"`
	Subtotal              float64          `db:"subtotal" json:"subtotal"`
	Tax                   float64          `db:"tax" json:"tax"`
	DeliveryFee           float64          `db:"delivery_fee" json:"deliveryFee"`
	Total                 float64          `db:"total" json:"total"`
	OrderType             OrderType        `db:"order_type" json:"orderType"`
	PaymentMethod         PaymentMethod    `db:"payment_method" json:"paymentMethod"`
	Status                OrderStatus      `db:"status" json:"status"`
	PaymentStatus         PaymentStatus    `db:"payment_status" json:"paymentStatus"`
	DeliveryAddress       *DeliveryAddress `db:"-" json:"deliveryAddress,omitempty"`
	SpecialInstructions   string           `db:"special_instructions" json:"specialInstructions,omitempty"`
	RequestedDeliveryTime *time.Time       `db:"requested_delivery_time" json:"requestedDeliveryTime,omitempty"`
	ActualDeliveryTime    *time.Time       `db:"actual_delivery_time" json:"actualDeliveryTime,omitempty"`
	CreatedBy             *uuid.UUID       `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt             time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt             time.Time        `db:"updated_at" json:"updatedAt"`
}

type Totals struct {
	Subtotal    float64
	Tax         float64
	DeliveryFee float64
	Total       float64
}

// CalculateTotals recomputes the order totals from the line items. Totals
// are always derived here at creation time, never trusted from the client.
func CalculateTotals(items []OrderItem, orderType OrderType) Totals {
	var t Totals
	for _, item := range items {
		t.Subtotal += item.Subtotal
	}
	t.Tax = t.Subtotal * TaxRate
	if orderType == OrderTypeDelivery {
		t.DeliveryFee = DeliveryFee
	}
	t.Total = t.Subtotal + t.Tax + t.DeliveryFee
	return t
}

// OrderItemInput is one requested line: the unit price is caller-supplied and
// only the product's existence, activity and stock are checked against the
// catalog before it is accepted.
type OrderItemInput struct {
	Product  uuid.UUID `json:"product"`
	Quantity int       `json:"quantity"`
	Price    float64   `json:"price"`
}

type OrderInput struct {
	Customer              Customer         `json:"customer"`
	Items                 []OrderItemInput `json:"items"`
	OrderType             OrderType        `json:"orderType"`
	PaymentMethod         PaymentMethod    `json:"paymentMethod"`
	DeliveryAddress       *DeliveryAddress `json:"deliveryAddress"`
	SpecialInstructions   string           `json:"specialInstructions"`
	RequestedDeliveryTime *time.Time       `json:"requestedDeliveryTime"`
}

func (in *OrderInput) Validate() []FieldError {
	var errs []FieldError
	if in.Customer.Name == "" {
		errs = append(errs, FieldError{"customer.name", "Customer name is required"})
	}
	if _, err := mail.ParseAddress(in.Customer.Email); err != nil {
		errs = append(errs, FieldError{"customer.email", "Valid customer email is required"})
	}
	if in.Customer.Phone == "" {
		errs = append(errs, FieldError{"customer.phone", "Customer phone is required"})
	}
	if len(in.Items) == 0 {
		errs = append(errs, FieldError{"items", "At least one item is required"})
	}
	for _, item := range in.Items {
		if item.Product == uuid.Nil {
			errs = append(errs, FieldError{"items.product", "Product ID is required for each item"})
		}
		if item.Quantity < 1 {
			errs = append(errs, FieldError{"items.quantity", "Quantity must be at least 1"})
		}
		if item.Price < 0 {
			errs = append(errs, FieldError{"items.price", "Price must be positive"})
		}
	}
	if !in.OrderType.IsValid() {
		errs = append(errs, FieldError{"orderType", "Invalid order type"})
	}
	if !in.PaymentMethod.IsValid() {
		errs = append(errs, FieldError{"paymentMethod", "Invalid payment method"})
	}
	if in.OrderType == OrderTypeDelivery && (in.DeliveryAddress == nil || in.DeliveryAddress.Street == "" || in.DeliveryAddress.City == "") {
		errs = append(errs, FieldError{"deliveryAddress", "Delivery address is required for delivery orders"})
	}
	return errs
}
