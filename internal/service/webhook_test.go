package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"meal-storefront/internal/apperr"
	"meal-storefront/internal/client"
	"meal-storefront/internal/config"
	"meal-storefront/internal/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const webhookSecret = "whsec_service_test"

func signPayload(payload []byte, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func eventPayload(t *testing.T, id, eventType, paymentStatus string, metadata map[string]string) []byte {
	t.Helper()
	payload, err := json.Marshal(map[string]interface{}{
		"id":     id,
		"object": "event",
		"type":   eventType,
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"id":               "cs_" + id,
				"object":           "checkout.session",
				"status":           "complete",
				"payment_status":   paymentStatus,
				"amount_total":     2000,
				"currency":         "usd",
				"customer_details": map[string]string{"email": "jane@example.com"},
				"payment_intent":   "pi_" + id,
				"metadata":         metadata,
			},
		},
	})
	require.NoError(t, err)
	return payload
}

func newWebhookFixture(t *testing.T) (*fulfillmentFixture, WebhookService) {
	t.Helper()
	f := newFulfillmentFixture(t)
	gw := client.NewStripeGateway(&config.Stripe{SecretKey: "sk_test_dummy", WebhookSecret: webhookSecret})
	return f, NewWebhookService(gw, f.svc, discardLogger())
}

func twoOfA(t *testing.T) map[string]string {
	t.Helper()
	md, err := EncodeMetadata(lines(FulfillmentLine{MealID: "A", Quantity: 2, UnitAmount: 1000}))
	require.NoError(t, err)
	return md
}

func TestHandleWebhook_Fulfills(t *testing.T) {
	f, svc := newWebhookFixture(t)

	payload := eventPayload(t, "evt_1", model.EventCheckoutSessionCompleted, "paid", twoOfA(t))
	require.NoError(t, svc.HandleWebhook(context.Background(), payload, signPayload(payload, webhookSecret)))

	assert.Equal(t, 3, availableOf(t, f.db, "A"))
	assert.Equal(t, 1, f.mailer.count())

	// redelivery acknowledged without effects
	require.NoError(t, svc.HandleWebhook(context.Background(), payload, signPayload(payload, webhookSecret)))
	assert.Equal(t, 3, availableOf(t, f.db, "A"))
	assert.Equal(t, 1, f.mailer.count())
}

func TestHandleWebhook_RejectsUnsigned(t *testing.T) {
	payload := eventPayload(t, "evt_1", model.EventCheckoutSessionCompleted, "paid", nil)

	tests := []struct {
		name      string
		payload   []byte
		signature string
		code      string
	}{
		{"missing header", payload, "", apperr.CodeMissingSignature},
		{"wrong secret", payload, signPayload(payload, "whsec_other"), apperr.CodeInvalidSignature},
		{"tampered body", append([]byte(" "), payload...), signPayload(payload, webhookSecret), apperr.CodeInvalidSignature},
		{"garbage header", payload, "nonsense", apperr.CodeInvalidSignature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, svc := newWebhookFixture(t)
			err := svc.HandleWebhook(context.Background(), tt.payload, tt.signature)
			assert.True(t, apperr.Is(err, tt.code), "got %v", err)
			assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))

			assert.Equal(t, 5, availableOf(t, f.db, "A"))
			assert.Equal(t, int64(0), countRows(t, f.db, &model.Order{}))
			assert.Equal(t, int64(0), countRows(t, f.db, &model.WebhookEvent{}))
		})
	}
}

func TestHandleWebhook_Dispatch(t *testing.T) {
	tests := []struct {
		name          string
		eventType     string
		paymentStatus string
		wantAvailable int
	}{
		{"completed and paid", model.EventCheckoutSessionCompleted, "paid", 3},
		{"completed but unpaid", model.EventCheckoutSessionCompleted, "unpaid", 5},
		{"async payment succeeded", model.EventCheckoutSessionAsyncPaymentSucceeded, "paid", 3},
		{"expired", "checkout.session.expired", "unpaid", 5},
		{"unrelated", "payment_intent.created", "paid", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, svc := newWebhookFixture(t)
			payload := eventPayload(t, "evt_1", tt.eventType, tt.paymentStatus, twoOfA(t))

			require.NoError(t, svc.HandleWebhook(context.Background(), payload, signPayload(payload, webhookSecret)))
			assert.Equal(t, tt.wantAvailable, availableOf(t, f.db, "A"))
		})
	}
}

func TestHandleWebhook_FulfillmentErrorPropagates(t *testing.T) {
	f, svc := newWebhookFixture(t)

	md, err := EncodeMetadata(lines(FulfillmentLine{MealID: "missing", Quantity: 1, UnitAmount: 2000}))
	require.NoError(t, err)
	payload := eventPayload(t, "evt_1", model.EventCheckoutSessionCompleted, "paid", md)

	err = svc.HandleWebhook(context.Background(), payload, signPayload(payload, webhookSecret))
	assert.True(t, apperr.Is(err, apperr.CodeMealNotFound))
	assert.Equal(t, int64(0), countRows(t, f.db, &model.WebhookEvent{}))
}
