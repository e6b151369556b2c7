package client

import (
	"context"
	"encoding/json"
	"fmt"
	"meal-storefront/internal/config"
	"meal-storefront/internal/model"
	"strings"

	"github.com/stripe/stripe-go/v76"
	stripeclient "github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// PaymentGateway is the hosted-checkout provider.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, params *model.CheckoutSessionParams) (*model.CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*model.CheckoutSession, error)
	RefundPayment(ctx context.Context, paymentIntentID, idempotencyKey string) (*model.Refund, error)
	// ConstructEvent verifies signature against the exact payload bytes and only
	// then decodes the event.
	ConstructEvent(payload []byte, signature string) (*model.GatewayEvent, error)
}

type stripeGatewayImpl struct {
	api           *stripeclient.API
	webhookSecret string
}

func NewStripeGateway(cfg *config.Stripe) PaymentGateway {
	return &stripeGatewayImpl{
		api:           stripeclient.New(cfg.SecretKey, nil),
		webhookSecret: cfg.WebhookSecret,
	}
}

func (g *stripeGatewayImpl) CreateCheckoutSession(ctx context.Context, in *model.CheckoutSessionParams) (*model.CheckoutSession, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, len(in.LineItems))
	for i, item := range in.LineItems {
		lineItems[i] = &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(in.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
				UnitAmount: stripe.Int64(item.UnitAmount),
			},
			Quantity: stripe.Int64(item.Quantity),
		}
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:          lineItems,
		CustomerEmail:      stripe.String(in.CustomerEmail),
		SuccessURL:         stripe.String(in.SuccessURL),
		CancelURL:          stripe.String(in.CancelURL),
	}
	params.Context = ctx
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create checkout session: %w", err)
	}

	return toCheckoutSession(s), nil
}

func (g *stripeGatewayImpl) GetCheckoutSession(ctx context.Context, sessionID string) (*model.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := g.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe get checkout session %s: %w", sessionID, err)
	}

	return toCheckoutSession(s), nil
}

func (g *stripeGatewayImpl) RefundPayment(ctx context.Context, paymentIntentID, idempotencyKey string) (*model.Refund, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
	}
	params.Context = ctx
	if idempotencyKey != "" {
		params.SetIdempotencyKey(idempotencyKey)
	}

	r, err := g.api.Refunds.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe refund payment intent %s: %w", paymentIntentID, err)
	}

	refund := &model.Refund{
		ID:     r.ID,
		Status: string(r.Status),
		Amount: r.Amount,
	}
	if r.PaymentIntent != nil {
		refund.PaymentIntentID = r.PaymentIntent.ID
	}
	return refund, nil
}

func (g *stripeGatewayImpl) ConstructEvent(payload []byte, signature string) (*model.GatewayEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, err
	}

	out := &model.GatewayEvent{
		ID:   event.ID,
		Type: string(event.Type),
	}

	if strings.HasPrefix(out.Type, "checkout.session.") && event.Data != nil {
		var s stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		out.Session = toCheckoutSession(&s)
	}

	return out, nil
}

func toCheckoutSession(s *stripe.CheckoutSession) *model.CheckoutSession {
	out := &model.CheckoutSession{
		ID:            s.ID,
		URL:           s.URL,
		Status:        string(s.Status),
		PaymentStatus: string(s.PaymentStatus),
		AmountTotal:   s.AmountTotal,
		Currency:      string(s.Currency),
		CustomerEmail: s.CustomerEmail,
		Metadata:      s.Metadata,
	}
	if out.CustomerEmail == "" && s.CustomerDetails != nil {
		out.CustomerEmail = s.CustomerDetails.Email
	}
	if s.PaymentIntent != nil {
		out.PaymentIntentID = s.PaymentIntent.ID
	}
	return out
}
