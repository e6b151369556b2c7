package service

import (
	"context"
	"log/slog"
	"meal-storefront/internal/apperr"
	"meal-storefront/internal/client"
	"meal-storefront/internal/model"
)

type WebhookService interface {
	// HandleWebhook authenticates payload against signature and dispatches the
	// event. A nil error means the event may be acknowledged.
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type webhookServiceImpl struct {
	gateway     client.PaymentGateway
	fulfillment FulfillmentService
	log         *slog.Logger
}

func NewWebhookService(gateway client.PaymentGateway, fulfillment FulfillmentService, log *slog.Logger) WebhookService {
	return &webhookServiceImpl{
		gateway:     gateway,
		fulfillment: fulfillment,
		log:         log,
	}
}

func (s *webhookServiceImpl) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if signature == "" {
		s.log.WarnContext(ctx, "webhook rejected: no signature header")
		return apperr.MissingSignatureError()
	}

	event, err := s.gateway.ConstructEvent(payload, signature)
	if err != nil {
		s.log.WarnContext(ctx, "webhook rejected: signature verification failed", "error", err)
		return apperr.InvalidSignatureError(err)
	}

	s.log.InfoContext(ctx, "webhook received", "event_id", event.ID, "event_type", event.Type)

	switch event.Type {
	case model.EventCheckoutSessionCompleted:
		if event.Session != nil && event.Session.PaymentStatus != model.SessionPaymentStatusPaid {
			// delayed payment methods confirm later with async_payment_succeeded
			s.log.InfoContext(ctx, "checkout completed without payment yet",
				"event_id", event.ID, "session_id", event.Session.ID, "payment_status", event.Session.PaymentStatus)
			return nil
		}
		return s.fulfillment.Fulfill(ctx, event)
	case model.EventCheckoutSessionAsyncPaymentSucceeded:
		return s.fulfillment.Fulfill(ctx, event)
	default:
		s.log.DebugContext(ctx, "webhook event ignored", "event_id", event.ID, "event_type", event.Type)
		return nil
	}
}
