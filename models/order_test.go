package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateTotalsPickup(t *testing.T) {
	items := []OrderItem{
		{Price: 25.00, Quantity: 2, Subtotal: 50.00},
		{Price: 50.00, Quantity: 1, Subtotal: 50.00},
	}

	totals := CalculateTotals(items, OrderTypePickup)

	assert.InDelta(t, 100.00, totals.Subtotal, 1e-9)
	assert.InDelta(t, 8.00, totals.Tax, 1e-9)
	assert.InDelta(t, 0.0, totals.DeliveryFee, 1e-9)
	assert.InDelta(t, 108.00, totals.Total, 1e-9)
}

func TestCalculateTotalsDelivery(t *testing.T) {
	items := []OrderItem{
		{Price: 10.00, Quantity: 3, Subtotal: 30.00},
	}

	totals := CalculateTotals(items, OrderTypeDelivery)

	assert.InDelta(t, 30.00, totals.Subtotal, 1e-9)
	assert.InDelta(t, 2.40, totals.Tax, 1e-9)
	assert.InDelta(t, 5.00, totals.DeliveryFee, 1e-9)
	assert.InDelta(t, 37.40, totals.Total, 1e-9)
}

func TestCalculateTotalsIdentity(t *testing.T) {
	items := []OrderItem{
		{Price: 3.50, Quantity: 4, Subtotal: 14.00},
		{Price: 6.99, Quantity: 1, Subtotal: 6.99},
	}

	for _, orderType := range []OrderType{OrderTypePickup, OrderTypeDelivery, OrderTypeDineIn} {
		totals := CalculateTotals(items, orderType)
		assert.InDelta(t, totals.Subtotal+totals.Subtotal*TaxRate+totals.DeliveryFee, totals.Total, 1e-9)
	}
}

func TestCalculateTotalsNoItems(t *testing.T) {
	totals := CalculateTotals(nil, OrderTypePickup)
	assert.Zero(t, totals.Subtotal)
	assert.Zero(t, totals.Total)
}

func validOrderInput() OrderInput {
	return OrderInput{
		Customer: Customer{Name: "Jane Doe", Email: "jane@example.com", Phone: "555-0100"},
		Items: []OrderItemInput{
			{Product: uuid.New(), Quantity: 2, Price: 12.50},
		},
		OrderType:     OrderTypePickup,
		PaymentMethod: PaymentCash,
	}
}

func TestOrderInputValidateOK(t *testing.T) {
	in := validOrderInput()
	require.Empty(t, in.Validate())
}

func TestOrderInputValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*OrderInput)
		field  string
	}{
		{"missing name", func(in *OrderInput) { in.Customer.Name = "" }, "customer.name"},
		{"bad email", func(in *OrderInput) { in.Customer.Email = "not-an-email" }, "customer.email"},
		{"missing phone", func(in *OrderInput) { in.Customer.Phone = "" }, "customer.phone"},
		{"no items", func(in *OrderInput) { in.Items = nil }, "items"},
		{"nil product", func(in *OrderInput) { in.Items[0].Product = uuid.Nil }, "items.product"},
		{"zero quantity", func(in *OrderInput) { in.Items[0].Quantity = 0 }, "items.quantity"},
		{"negative price", func(in *OrderInput) { in.Items[0].Price = -1 }, "items.price"},
		{"bad order type", func(in *OrderInput) { in.OrderType = "shipping" }, "orderType"},
		{"bad payment method", func(in *OrderInput) { in.PaymentMethod = "cheque" }, "paymentMethod"},
		{"delivery without address", func(in *OrderInput) { in.OrderType = OrderTypeDelivery }, "deliveryAddress"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := validOrderInput()
			tc.mutate(&in)
			errs := in.Validate()
			require.NotEmpty(t, errs)

			fields := make([]string, 0, len(errs))
			for _, e := range errs {
				fields = append(fields, e.Field)
			}
			assert.Contains(t, fields, tc.field)
		})
	}
}

func TestOrderInputValidateDeliveryWithAddress(t *testing.T) {
	in := validOrderInput()
	in.OrderType = OrderTypeDelivery
	in.DeliveryAddress = &DeliveryAddress{Street: "1 Main St", City: "Springfield"}
	assert.Empty(t, in.Validate())
}

func TestOrderStatusIsValid(t *testing.T) {
	for _, s := range []OrderStatus{StatusPending, StatusConfirmed, StatusPreparing, StatusReady, StatusDelivered, StatusCancelled} {
		assert.True(t, s.IsValid(), string(s))
	}
	assert.False(t, OrderStatus("shipped").IsValid())
	assert.False(t, OrderStatus("").IsValid())
}

func TestPaymentStatusIsValid(t *testing.T) {
	assert.True(t, PaymentStatusPaid.IsValid())
	assert.False(t, PaymentStatus("declined").IsValid())
}
