package service

import (
	"context"
	"meal-storefront/internal/apperr"
	"meal-storefront/internal/model"
	"meal-storefront/internal/repository"
)

type MealService interface {
	List(ctx context.Context) ([]*model.Meal, error)
}

type mealServiceImpl struct {
	mealRepo repository.MealRepository
}

func NewMealService(
	mealRepo repository.MealRepository,
) MealService {
	return &mealServiceImpl{
		mealRepo: mealRepo,
	}
}

func (s *mealServiceImpl) List(ctx context.Context) ([]*model.Meal, error) {
	meals, err := s.mealRepo.List(ctx)
	if err != nil {
		return nil, apperr.Upstream(apperr.CodeStore, "list meals", err)
	}
	return meals, nil
}
