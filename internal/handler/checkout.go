package handler

import (
	"meal-storefront/internal/apperr"
	"meal-storefront/internal/dto"
	"meal-storefront/internal/service"
	"net/http"

	"github.com/labstack/echo/v4"
)

const checkoutUnavailable = "Unable to start checkout, please try again."

type CheckoutHandler struct {
	checkoutService service.CheckoutService
}

func NewCheckoutHandler(checkoutService service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
	}
}

func (h *CheckoutHandler) CreateCheckoutSession(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation(apperr.CodeInvalidRequest, "invalid request body")
	}

	result, err := h.checkoutService.CreateSession(ctx, &req, c.Request().Header.Get(echo.HeaderOrigin))
	if err != nil {
		// gateway and store details stay in the logs
		if apperr.KindOf(err) == apperr.KindUpstream {
			return apperr.Upstream(apperr.CodeGateway, checkoutUnavailable, err)
		}
		return err
	}

	return c.JSON(http.StatusOK, result)
}

func (h *CheckoutHandler) GetCheckoutSession(c echo.Context) error {
	ctx := c.Request().Context()

	sessionID := c.QueryParam("session_id")
	if sessionID == "" {
		return apperr.Validation(apperr.CodeInvalidRequest, "session_id is required")
	}

	session, err := h.checkoutService.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.SessionResponse{Session: session})
}

func (h *CheckoutHandler) CreateBooking(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation(apperr.CodeInvalidRequest, "invalid request body")
	}

	result, err := h.checkoutService.Book(ctx, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, result)
}
