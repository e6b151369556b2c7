package handler

import (
	"meal-storefront/internal/apperr"
	"meal-storefront/internal/dto"
	"meal-storefront/internal/service"
	"net/http"

	"github.com/labstack/echo/v4"
)

type AdminHandler struct {
	refundService service.RefundService
	orderService  service.OrderService
}

func NewAdminHandler(refundService service.RefundService, orderService service.OrderService) *AdminHandler {
	return &AdminHandler{
		refundService: refundService,
		orderService:  orderService,
	}
}

func (h *AdminHandler) RefundOrder(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.RefundRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation(apperr.CodeInvalidRequest, "invalid request body")
	}

	refund, err := h.refundService.Refund(ctx, req.OrderID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.RefundResponse{Success: true, Refund: refund})
}

func (h *AdminHandler) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()

	orders, err := h.orderService.List(ctx, c.QueryParam("status"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, orders)
}

func (h *AdminHandler) UpdateOrderStatus(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation(apperr.CodeInvalidRequest, "invalid request body")
	}

	if err := h.orderService.UpdateStatus(ctx, c.Param("id"), req.Status); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHandler) Revenue(c echo.Context) error {
	ctx := c.Request().Context()

	rev, err := h.orderService.Revenue(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.RevenueResponse{TotalPaid: rev.TotalPaid, OrderCount: rev.OrderCount})
}
