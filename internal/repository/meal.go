package repository

import (
	"context"
	"meal-storefront/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MealRepository is the inventory store.
type MealRepository interface {
	Seed(ctx context.Context) error
	List(ctx context.Context) ([]*model.Meal, error)
	FindByID(ctx context.Context, tx *gorm.DB, mealID string) (*model.Meal, error)
	FindMany(ctx context.Context, mealIDs []string) ([]*model.Meal, error)
	DecrementClamped(ctx context.Context, tx *gorm.DB, mealID string, quantity int) (*model.Meal, error)
}

type mealRepoImpl struct {
	db *gorm.DB
}

func NewMealRepository(db *gorm.DB) MealRepository {
	return &mealRepoImpl{
		db: db,
	}
}

func (r *mealRepoImpl) Seed(ctx context.Context) error {
	meals := []model.Meal{
		{ID: "lasagna", Title: "Beef Lasagna", Description: "Family tray, serves 4", Price: 10.00, AvailableQuantity: 20, PickupLocation: "Main St kitchen", PickupDate: "2024-06-01", PickupTime: "18:00"},
		{ID: "curry", Title: "Chicken Curry", Description: "With basmati rice", Price: 8.50, AvailableQuantity: 30, PickupLocation: "Main St kitchen", PickupDate: "2024-06-01", PickupTime: "18:30"},
		{ID: "salad", Title: "Garden Salad", Description: "Seasonal greens", Price: 4.99, AvailableQuantity: 15, PickupLocation: "Main St kitchen", PickupDate: "2024-06-02", PickupTime: "12:00"},
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&meals).Error
}

func (r *mealRepoImpl) List(ctx context.Context) ([]*model.Meal, error) {
	var meals []*model.Meal
	err := r.db.WithContext(ctx).
		Order("pickup_date, pickup_time, title").
		Find(&meals).Error
	if err != nil {
		return nil, err
	}

	return meals, nil
}

func (r *mealRepoImpl) FindByID(ctx context.Context, tx *gorm.DB, mealID string) (*model.Meal, error) {
	if tx == nil {
		tx = r.db
	}

	var meal model.Meal
	err := tx.WithContext(ctx).
		Where("id = ?", mealID).
		First(&meal).Error
	if err != nil {
		return nil, err
	}

	return &meal, nil
}

func (r *mealRepoImpl) FindMany(ctx context.Context, mealIDs []string) ([]*model.Meal, error) {
	var meals []*model.Meal
	err := r.db.WithContext(ctx).
		Where("id IN ?", mealIDs).
		Find(&meals).Error
	if err != nil {
		return nil, err
	}

	return meals, nil
}

// DecrementClamped subtracts quantity from the meal's counter in a single
// statement, flooring at zero, then reads the row back.
func (r *mealRepoImpl) DecrementClamped(ctx context.Context, tx *gorm.DB, mealID string, quantity int) (*model.Meal, error) {
	result := tx.WithContext(ctx).
		Model(&model.Meal{}).
		Where("id = ?", mealID).
		Update("available_quantity", gorm.Expr(
			"CASE WHEN available_quantity >= ? THEN available_quantity - ? ELSE 0 END",
			quantity, quantity,
		))
	if result.Error != nil {
		return nil, result.Error
	}

	return r.FindByID(ctx, tx, mealID)
}
