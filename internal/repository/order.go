package repository

import (
	"context"
	"meal-storefront/internal/model"
	"time"

	"gorm.io/gorm"
)

// OrderRepository is the order store. Orders are never deleted, only moved
// between statuses.
type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	CreateOrderItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error
	FindByID(ctx context.Context, tx *gorm.DB, orderID string) (*model.Order, error)
	FindByCheckoutSessionID(ctx context.Context, tx *gorm.DB, sessionID string) (*model.Order, error)
	MarkPaid(ctx context.Context, tx *gorm.DB, orderID, sessionID string, amount int64) error
	MarkRefunded(ctx context.Context, orderID string) error
	UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus) error
	List(ctx context.Context, status model.OrderStatus) ([]*model.Order, error)
	Revenue(ctx context.Context) (*Revenue, error)
}

type Revenue struct {
	TotalPaid  int64
	OrderCount int64
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return tx.WithContext(ctx).Omit("Items").Create(order).Error
}

func (r *orderRepoImpl) CreateOrderItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Create(&items).Error
}

func (r *orderRepoImpl) FindByID(ctx context.Context, tx *gorm.DB, orderID string) (*model.Order, error) {
	if tx == nil {
		tx = r.db
	}

	var order model.Order
	err := tx.WithContext(ctx).
		Preload("Items").
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) FindByCheckoutSessionID(ctx context.Context, tx *gorm.DB, sessionID string) (*model.Order, error) {
	if tx == nil {
		tx = r.db
	}

	var order model.Order
	err := tx.WithContext(ctx).
		Preload("Items").
		Where("checkout_session_id = ?", sessionID).
		First(&order).Error
	if err != nil {
		return nil, err
	}

	return &order, nil
}

// MarkPaid settles a pending booking. An order that is already paid or refunded
// is left untouched and reported as gorm.ErrRecordNotFound.
func (r *orderRepoImpl) MarkPaid(ctx context.Context, tx *gorm.DB, orderID, sessionID string, amount int64) error {
	result := tx.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND payment_status = ?", orderID, model.PaymentStatusPending).
		Updates(map[string]interface{}{
			"status":              model.OrderStatusProcessing,
			"payment_status":      model.PaymentStatusPaid,
			"checkout_session_id": sessionID,
			"total_amount":        amount,
			"updated_at":          time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *orderRepoImpl) MarkRefunded(ctx context.Context, orderID string) error {
	result := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"status":         model.OrderStatusCancelled,
			"payment_status": model.PaymentStatusRefunded,
			"updated_at":     time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *orderRepoImpl) UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus) error {
	result := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *orderRepoImpl) List(ctx context.Context, status model.OrderStatus) ([]*model.Order, error) {
	q := r.db.WithContext(ctx).Preload("Items").Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var orders []*model.Order
	if err := q.Find(&orders).Error; err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *orderRepoImpl) Revenue(ctx context.Context) (*Revenue, error) {
	var rev Revenue
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Select("COALESCE(SUM(total_amount), 0) AS total_paid, COUNT(*) AS order_count").
		Where("payment_status = ?", model.PaymentStatusPaid).
		Scan(&rev).Error
	if err != nil {
		return nil, err
	}

	return &rev, nil
}
