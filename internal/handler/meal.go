package handler

import (
	"meal-storefront/internal/service"
	"net/http"

	"github.com/labstack/echo/v4"
)

type MealHandler struct {
	mealService service.MealService
}

func NewMealHandler(mealService service.MealService) *MealHandler {
	return &MealHandler{
		mealService: mealService,
	}
}

func (h *MealHandler) ListMeals(c echo.Context) error {
	ctx := c.Request().Context()

	meals, err := h.mealService.List(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, meals)
}
