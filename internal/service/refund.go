package service

import (
	"context"
	"errors"
	"log/slog"
	"meal-storefront/internal/apperr"
	"meal-storefront/internal/client"
	"meal-storefront/internal/model"
	"meal-storefront/internal/repository"

	"gorm.io/gorm"
)

type RefundService interface {
	Refund(ctx context.Context, orderID string) (*model.Refund, error)
}

type refundServiceImpl struct {
	gateway   client.PaymentGateway
	orderRepo repository.OrderRepository
	log       *slog.Logger
}

func NewRefundService(gateway client.PaymentGateway, orderRepo repository.OrderRepository, log *slog.Logger) RefundService {
	return &refundServiceImpl{
		gateway:   gateway,
		orderRepo: orderRepo,
		log:       log,
	}
}

func (s *refundServiceImpl) Refund(ctx context.Context, orderID string) (*model.Refund, error) {
	if orderID == "" {
		return nil, apperr.Validation(apperr.CodeInvalidRequest, "orderId is required")
	}

	order, err := s.orderRepo.FindByID(ctx, nil, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.OrderNotFoundError(orderID)
	}
	if err != nil {
		return nil, apperr.Upstream(apperr.CodeStore, "load order", err)
	}

	if order.PaymentStatus == model.PaymentStatusRefunded {
		return nil, apperr.Validation(apperr.CodeInvalidStatus, "order "+orderID+" is already refunded")
	}
	if order.CheckoutSessionID == nil || *order.CheckoutSessionID == "" {
		return nil, apperr.NoSessionError(orderID)
	}
	sessionID := *order.CheckoutSessionID

	session, err := s.gateway.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		s.log.ErrorContext(ctx, "retrieve session for refund", "order_id", orderID, "session_id", sessionID, "error", err)
		return nil, apperr.Upstream(apperr.CodeGateway, "retrieve checkout session", err)
	}
	if session.PaymentIntentID == "" {
		return nil, apperr.NoPaymentError(sessionID)
	}

	// same key for every attempt on this order, so a retried request cannot refund twice
	refund, err := s.gateway.RefundPayment(ctx, session.PaymentIntentID, "refund-"+orderID)
	if err != nil {
		s.log.ErrorContext(ctx, "refund payment", "order_id", orderID, "session_id", sessionID,
			"payment_intent", session.PaymentIntentID, "error", err)
		return nil, apperr.Upstream(apperr.CodeGateway, "refund payment", err)
	}

	if err := s.orderRepo.MarkRefunded(ctx, orderID); err != nil {
		s.log.ErrorContext(ctx, "refund issued but order not updated, reconcile manually",
			"order_id", orderID, "session_id", sessionID, "refund_id", refund.ID, "error", err)
		return nil, apperr.PartialFailureError(orderID, refund.ID, err)
	}

	s.log.InfoContext(ctx, "order refunded", "order_id", orderID, "session_id", sessionID,
		"refund_id", refund.ID, "amount", refund.Amount)

	return refund, nil
}
