package service

import (
	"context"
	"errors"
	"meal-storefront/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receiptOrder() *model.Order {
	return &model.Order{
		ID:            "3f2a9c1e-0000-4000-8000-000000000000",
		CustomerEmail: "jane@example.com",
		CustomerPhone: "555-0100",
		TotalAmount:   2499,
		Currency:      "usd",
		Items: []model.OrderItem{
			{MealID: "A", MealTitle: "Beef <Lasagna>", Quantity: 2, UnitPrice: 1000, PickupDate: "2024-06-01", PickupTime: "18:00"},
			{MealID: "B", Quantity: 1, UnitPrice: 499},
		},
	}
}

func TestFormatReceipt(t *testing.T) {
	r := FormatReceipt(receiptOrder())

	assert.Equal(t, "jane@example.com", r.To)
	assert.Equal(t, "Your order 3F2A9C1E is confirmed", r.Subject)
	assert.Contains(t, r.Text, "2 x Beef <Lasagna> @ $10.00, pickup 2024-06-01 18:00")
	assert.Contains(t, r.Text, "1 x B @ $4.99")
	assert.Contains(t, r.Text, "Total paid: $24.99")
	assert.Contains(t, r.Text, "555-0100")
	assert.Contains(t, r.HTML, "Beef &lt;Lasagna&gt;")
}

func TestSendReceipt(t *testing.T) {
	mailer := &fakeMailer{}
	require.NoError(t, NewReceiptNotifier(mailer).SendReceipt(context.Background(), receiptOrder()))
	require.Equal(t, 1, mailer.count())
	assert.Equal(t, "Your order 3F2A9C1E is confirmed", mailer.sent[0].subject)

	mailer.err = errors.New("quota exceeded")
	err := NewReceiptNotifier(mailer).SendReceipt(context.Background(), receiptOrder())
	assert.ErrorIs(t, err, mailer.err)
}
