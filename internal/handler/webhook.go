package handler

import (
	"io"
	"meal-storefront/internal/apperr"
	"meal-storefront/internal/dto"
	"meal-storefront/internal/service"
	"net/http"

	"github.com/labstack/echo/v4"
)

const signatureHeader = "Stripe-Signature"

type WebhookHandler struct {
	webhookService service.WebhookService
}

func NewWebhookHandler(webhookService service.WebhookService) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
	}
}

// PaymentWebhook must see the body byte for byte, so it never goes through Bind.
func (h *WebhookHandler) PaymentWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return apperr.Validation(apperr.CodeInvalidRequest, "read webhook body")
	}

	err = h.webhookService.HandleWebhook(ctx, body, c.Request().Header.Get(signatureHeader))
	if err != nil {
		if apperr.KindOf(err) == apperr.KindAuthentication {
			return err
		}
		// anything past verification is retried by the gateway on 5xx
		return apperr.Upstream(apperr.CodeWebhookProcessing, "webhook processing failed", err)
	}

	return c.JSON(http.StatusOK, dto.WebhookResponse{Received: true})
}
