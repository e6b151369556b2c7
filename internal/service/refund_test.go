package service

import (
	"context"
	"errors"
	"meal-storefront/internal/apperr"
	"meal-storefront/internal/model"
	"meal-storefront/internal/repository"
	"meal-storefront/internal/testutil"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func storeOrder(t *testing.T, db *gorm.DB, id, sessionID string, payment model.PaymentStatus) {
	t.Helper()
	order := &model.Order{
		ID:            id,
		CustomerEmail: "jane@example.com",
		TotalAmount:   2000,
		Currency:      "usd",
		Status:        model.OrderStatusProcessing,
		PaymentStatus: payment,
	}
	if sessionID != "" {
		order.CheckoutSessionID = &sessionID
	}
	require.NoError(t, db.Omit("Items").Create(order).Error)
}

func TestRefund(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	orderRepo := repository.NewOrderRepository(db)
	gw := newFakeGateway()
	gw.sessions["cs_1"] = &model.CheckoutSession{ID: "cs_1", PaymentStatus: "paid", PaymentIntentID: "pi_1"}
	storeOrder(t, db, "o1", "cs_1", model.PaymentStatusPaid)

	svc := NewRefundService(gw, orderRepo, discardLogger())

	refund, err := svc.Refund(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, "re_1", refund.ID)
	assert.Equal(t, "pi_1", refund.PaymentIntentID)
	assert.Equal(t, []string{"refund-o1"}, gw.refundKeys)

	order, err := orderRepo.FindByID(ctx, nil, "o1")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusRefunded, order.PaymentStatus)
	assert.Equal(t, model.OrderStatusCancelled, order.Status)

	_, err = svc.Refund(ctx, "o1")
	assert.True(t, apperr.Is(err, apperr.CodeInvalidStatus))
	assert.Len(t, gw.refundKeys, 1)
}

func TestRefund_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		orderID string
		code    string
	}{
		{"blank id", "", apperr.CodeInvalidRequest},
		{"unknown order", "nope", apperr.CodeOrderNotFound},
		{"no session", "o_nosession", apperr.CodeNoSession},
		{"no payment intent", "o_nopayment", apperr.CodeNoPayment},
		{"session lookup fails", "o_lost", apperr.CodeGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			db := testutil.NewDB(t)
			orderRepo := repository.NewOrderRepository(db)
			gw := newFakeGateway()
			gw.sessions["cs_nopayment"] = &model.CheckoutSession{ID: "cs_nopayment", PaymentStatus: "unpaid"}
			storeOrder(t, db, "o_nosession", "", model.PaymentStatusPaid)
			storeOrder(t, db, "o_nopayment", "cs_nopayment", model.PaymentStatusPaid)
			storeOrder(t, db, "o_lost", "cs_lost", model.PaymentStatusPaid)

			_, err := NewRefundService(gw, orderRepo, discardLogger()).Refund(ctx, tt.orderID)
			assert.True(t, apperr.Is(err, tt.code), "got %v", err)
			assert.Empty(t, gw.refundKeys)

			if tt.orderID != "" && tt.orderID != "nope" {
				order, err := orderRepo.FindByID(ctx, nil, tt.orderID)
				require.NoError(t, err)
				assert.Equal(t, model.PaymentStatusPaid, order.PaymentStatus)
				assert.Equal(t, model.OrderStatusProcessing, order.Status)
			}
		})
	}
}

func TestRefund_GatewayRefusal(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	orderRepo := repository.NewOrderRepository(db)
	gw := newFakeGateway()
	gw.sessions["cs_1"] = &model.CheckoutSession{ID: "cs_1", PaymentIntentID: "pi_1"}
	gw.refundErr = errors.New("charge already refunded")
	storeOrder(t, db, "o1", "cs_1", model.PaymentStatusPaid)

	_, err := NewRefundService(gw, orderRepo, discardLogger()).Refund(ctx, "o1")
	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))

	order, err := orderRepo.FindByID(ctx, nil, "o1")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, order.PaymentStatus)
}

// failingMarkRefunded lets the gateway refund succeed and the local update fail.
type failingMarkRefunded struct {
	repository.OrderRepository
}

func (failingMarkRefunded) MarkRefunded(context.Context, string) error {
	return errors.New("database is locked")
}

func TestRefund_PartialFailure(t *testing.T) {
	db := testutil.NewDB(t)
	gw := newFakeGateway()
	gw.sessions["cs_1"] = &model.CheckoutSession{ID: "cs_1", PaymentIntentID: "pi_1"}
	storeOrder(t, db, "o1", "cs_1", model.PaymentStatusPaid)

	svc := NewRefundService(gw, failingMarkRefunded{repository.NewOrderRepository(db)}, discardLogger())
	_, err := svc.Refund(context.Background(), "o1")

	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindPartialFailure, appErr.Kind)
	assert.Contains(t, appErr.Message, "re_1")
	assert.Len(t, gw.refundKeys, 1)
}
