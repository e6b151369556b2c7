package service

import (
	"context"
	"errors"
	"fmt"
	"meal-storefront/internal/apperr"
	"meal-storefront/internal/model"
	"meal-storefront/internal/repository"

	"gorm.io/gorm"
)

type OrderService interface {
	List(ctx context.Context, status string) ([]*model.Order, error)
	UpdateStatus(ctx context.Context, orderID, status string) error
	Revenue(ctx context.Context) (*repository.Revenue, error)
}

type orderServiceImpl struct {
	orderRepo repository.OrderRepository
}

func NewOrderService(orderRepo repository.OrderRepository) OrderService {
	return &orderServiceImpl{
		orderRepo: orderRepo,
	}
}

func (s *orderServiceImpl) List(ctx context.Context, status string) ([]*model.Order, error) {
	st := model.OrderStatus(status)
	if status != "" && !st.Valid() {
		return nil, apperr.Validation(apperr.CodeInvalidStatus, "unknown order status "+status)
	}

	orders, err := s.orderRepo.List(ctx, st)
	if err != nil {
		return nil, apperr.Upstream(apperr.CodeStore, "list orders", err)
	}
	return orders, nil
}

func (s *orderServiceImpl) UpdateStatus(ctx context.Context, orderID, status string) error {
	st := model.OrderStatus(status)
	if !st.Valid() {
		return apperr.Validation(apperr.CodeInvalidStatus, "unknown order status "+status)
	}

	order, err := s.orderRepo.FindByID(ctx, nil, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.OrderNotFoundError(orderID)
	}
	if err != nil {
		return apperr.Upstream(apperr.CodeStore, "load order", err)
	}
	// refunded money does not come back with a status change
	if order.PaymentStatus == model.PaymentStatusRefunded && st != model.OrderStatusCancelled {
		return apperr.Validation(apperr.CodeInvalidStatus,
			fmt.Sprintf("order %s is refunded and must stay %s", orderID, model.OrderStatusCancelled))
	}

	err = s.orderRepo.UpdateStatus(ctx, orderID, st)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.OrderNotFoundError(orderID)
	}
	if err != nil {
		return apperr.Upstream(apperr.CodeStore, "update order status", err)
	}
	return nil
}

func (s *orderServiceImpl) Revenue(ctx context.Context) (*repository.Revenue, error) {
	rev, err := s.orderRepo.Revenue(ctx)
	if err != nil {
		return nil, apperr.Upstream(apperr.CodeStore, "sum revenue", err)
	}
	return rev, nil
}
