package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"meal-storefront/internal/model"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var errGatewayDown = errors.New("gateway unavailable")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeGateway records calls and serves canned sessions.
type fakeGateway struct {
	mu sync.Mutex

	created   []*model.CheckoutSessionParams
	createErr error

	sessions map[string]*model.CheckoutSession
	getErr   error
	getCalls int

	refundKeys []string
	refundErr  error

	event    *model.GatewayEvent
	eventErr error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{sessions: make(map[string]*model.CheckoutSession)}
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, params *model.CheckoutSessionParams) (*model.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.createErr != nil {
		return nil, g.createErr
	}
	g.created = append(g.created, params)
	return &model.CheckoutSession{ID: "cs_test_new", URL: "https://checkout.example/cs_test_new", Metadata: params.Metadata}, nil
}

func (g *fakeGateway) GetCheckoutSession(ctx context.Context, sessionID string) (*model.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.getCalls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if g.getErr != nil {
		return nil, g.getErr
	}
	s, ok := g.sessions[sessionID]
	if !ok {
		return nil, errors.New("no such checkout session")
	}
	return s, nil
}

func (g *fakeGateway) RefundPayment(_ context.Context, paymentIntentID, idempotencyKey string) (*model.Refund, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.refundErr != nil {
		return nil, g.refundErr
	}
	g.refundKeys = append(g.refundKeys, idempotencyKey)
	return &model.Refund{ID: "re_1", Status: "succeeded", Amount: 2000, PaymentIntentID: paymentIntentID}, nil
}

func (g *fakeGateway) ConstructEvent(_ []byte, _ string) (*model.GatewayEvent, error) {
	return g.event, g.eventErr
}

type sentMail struct {
	to, subject, text, html string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(_ context.Context, to, subject, plainText, html string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to, subject, plainText, html})
	return nil
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func seedMeal(t *testing.T, db *gorm.DB, id string, price float64, available int) {
	t.Helper()
	require.NoError(t, db.Create(&model.Meal{
		ID:                id,
		Title:             "Meal " + id,
		Price:             price,
		AvailableQuantity: available,
		PickupDate:        "2024-06-01",
		PickupTime:        "18:00",
	}).Error)
}

func availableOf(t *testing.T, db *gorm.DB, id string) int {
	t.Helper()
	var m model.Meal
	require.NoError(t, db.First(&m, "id = ?", id).Error)
	return m.AvailableQuantity
}

func countRows(t *testing.T, db *gorm.DB, value interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(value).Count(&n).Error)
	return n
}
