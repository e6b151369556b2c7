package service

import (
	"context"
	"errors"
	"log/slog"
	"meal-storefront/internal/apperr"
	"meal-storefront/internal/lock"
	"meal-storefront/internal/model"
	"meal-storefront/internal/repository"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const eventClaimTTL = 2 * time.Minute

type FulfillmentService interface {
	// Fulfill applies a payment-confirmed event: inventory decrements, the
	// order record and the event record commit together, then the receipt is
	// sent. Redelivering an applied event is a no-op.
	Fulfill(ctx context.Context, event *model.GatewayEvent) error
}

type fulfillmentServiceImpl struct {
	db               *gorm.DB
	mealRepo         repository.MealRepository
	orderRepo        repository.OrderRepository
	webhookEventRepo repository.WebhookEventRepository
	locker           lock.Locker
	receipts         ReceiptNotifier
	policy           apperr.Policy
	currency         string
	log              *slog.Logger
}

func NewFulfillmentService(
	db *gorm.DB,
	mealRepo repository.MealRepository,
	orderRepo repository.OrderRepository,
	webhookEventRepo repository.WebhookEventRepository,
	locker lock.Locker,
	receipts ReceiptNotifier,
	currency string,
	log *slog.Logger,
) FulfillmentService {
	return &fulfillmentServiceImpl{
		db:               db,
		mealRepo:         mealRepo,
		orderRepo:        orderRepo,
		webhookEventRepo: webhookEventRepo,
		locker:           locker,
		receipts:         receipts,
		policy:           apperr.FulfillmentPolicy,
		currency:         currency,
		log:              log,
	}
}

// stageError tags an error raised inside the transaction with its pipeline stage.
type stageError struct {
	stage apperr.Stage
	err   error
}

func (e *stageError) Error() string { return string(e.stage) + ": " + e.err.Error() }
func (e *stageError) Unwrap() error { return e.err }

func (s *fulfillmentServiceImpl) Fulfill(ctx context.Context, event *model.GatewayEvent) error {
	session := event.Session
	attrs := []any{"event_id", event.ID, "event_type", event.Type}
	if session == nil {
		return s.policy.Handle(ctx, s.log, apperr.StageDecode, invalidMetadata("event carries no checkout session"), attrs...)
	}
	attrs = append(attrs, "session_id", session.ID)

	release, ok, err := s.locker.TryAcquire(ctx, event.ID, eventClaimTTL)
	if err != nil {
		return s.policy.Handle(ctx, s.log, apperr.StageClaim, apperr.Upstream(apperr.CodeStore, "claim webhook event", err), attrs...)
	}
	if !ok {
		return s.policy.Handle(ctx, s.log, apperr.StageClaim, apperr.EventInFlightError(event.ID), attrs...)
	}
	defer release()

	meta, err := DecodeMetadata(session.Metadata)
	if err != nil {
		return s.policy.Handle(ctx, s.log, apperr.StageDecode, err, attrs...)
	}

	if expected, ok := meta.ExpectedTotal(); ok && expected != session.AmountTotal {
		s.log.ErrorContext(ctx, "charged amount differs from line items",
			append(attrs, "expected", expected, "charged", session.AmountTotal)...)
	}

	var (
		order     *model.Order
		duplicate bool
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seen, err := s.alreadyApplied(ctx, tx, event.ID, session.ID)
		if err != nil {
			return &stageError{apperr.StageEventRecord, apperr.Upstream(apperr.CodeStore, "check webhook event", err)}
		}
		if seen {
			duplicate = true
			return nil
		}

		titles := make(map[string]string, len(meta.Lines))
		for _, line := range meta.Lines {
			title, err := s.decrement(ctx, tx, line, attrs)
			if err != nil {
				return &stageError{apperr.StageInventory, err}
			}
			titles[line.MealID] = title
		}

		order, err = s.recordOrder(ctx, tx, session, meta, titles)
		if err != nil {
			return &stageError{apperr.StageOrderStore, apperr.Upstream(apperr.CodeStore, "record order", err)}
		}

		if err := s.webhookEventRepo.MarkProcessed(ctx, tx, event.ID, event.Type, session.ID); err != nil {
			return &stageError{apperr.StageEventRecord, apperr.Upstream(apperr.CodeStore, "record webhook event", err)}
		}
		return nil
	})
	if err != nil {
		var se *stageError
		if errors.As(err, &se) {
			return s.policy.Handle(ctx, s.log, se.stage, se.err, attrs...)
		}
		return s.policy.Handle(ctx, s.log, apperr.StageOrderStore, apperr.Upstream(apperr.CodeStore, "commit fulfillment", err), attrs...)
	}

	if duplicate {
		s.log.InfoContext(ctx, "webhook event already applied", attrs...)
		return nil
	}

	attrs = append(attrs, "order_id", order.ID)
	s.log.InfoContext(ctx, "order fulfilled", append(attrs, "total_amount", order.TotalAmount)...)

	return s.policy.Handle(ctx, s.log, apperr.StageReceipt, s.receipts.SendReceipt(ctx, order), attrs...)
}

// alreadyApplied covers redelivery of the same event and a second event type
// for the same session.
func (s *fulfillmentServiceImpl) alreadyApplied(ctx context.Context, tx *gorm.DB, eventID, sessionID string) (bool, error) {
	seen, err := s.webhookEventRepo.Exists(ctx, tx, eventID)
	if err != nil || seen {
		return seen, err
	}

	order, err := s.orderRepo.FindByCheckoutSessionID(ctx, tx, sessionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return order.PaymentStatus != model.PaymentStatusPending, nil
}

func (s *fulfillmentServiceImpl) decrement(ctx context.Context, tx *gorm.DB, line FulfillmentLine, attrs []any) (string, error) {
	before, err := s.mealRepo.FindByID(ctx, tx, line.MealID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", apperr.MealNotFoundError(line.MealID)
	}
	if err != nil {
		return "", apperr.Upstream(apperr.CodeStore, "read meal "+line.MealID, err)
	}

	after, err := s.mealRepo.DecrementClamped(ctx, tx, line.MealID, line.Quantity)
	if err != nil {
		return "", apperr.Upstream(apperr.CodeStore, "decrement meal "+line.MealID, err)
	}

	want := max(0, before.AvailableQuantity-line.Quantity)
	if after.AvailableQuantity != want {
		s.log.WarnContext(ctx, "inventory moved during decrement",
			append(attrs, "meal_id", line.MealID, "want", want, "got", after.AvailableQuantity)...)
	}
	if before.AvailableQuantity < line.Quantity {
		s.log.WarnContext(ctx, "meal oversold, clamped at zero",
			append(attrs, "meal_id", line.MealID, "available", before.AvailableQuantity, "ordered", line.Quantity)...)
	}

	s.log.DebugContext(ctx, "inventory decremented",
		append(attrs, "meal_id", line.MealID, "before", before.AvailableQuantity, "after", after.AvailableQuantity)...)

	return before.Title, nil
}

// recordOrder settles the booking named in the metadata, or creates the order
// when checkout went straight to payment. A booking that is gone or already
// settled by another session gets a new order keyed by this session, so every
// captured payment keeps its own record.
func (s *fulfillmentServiceImpl) recordOrder(ctx context.Context, tx *gorm.DB, session *model.CheckoutSession, meta *FulfillmentMetadata, titles map[string]string) (*model.Order, error) {
	if meta.OrderID != "" {
		err := s.orderRepo.MarkPaid(ctx, tx, meta.OrderID, session.ID, session.AmountTotal)
		if err == nil {
			return s.orderRepo.FindByID(ctx, tx, meta.OrderID)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		s.log.WarnContext(ctx, "booking missing or already settled, creating order",
			"order_id", meta.OrderID, "session_id", session.ID)
	}

	currency := session.Currency
	if currency == "" {
		currency = s.currency
	}
	sessionID := session.ID
	order := &model.Order{
		ID:                uuid.NewString(),
		CustomerEmail:     session.CustomerEmail,
		CustomerPhone:     meta.CustomerPhone,
		TotalAmount:       session.AmountTotal,
		Currency:          currency,
		Status:            model.OrderStatusProcessing,
		PaymentStatus:     model.PaymentStatusPaid,
		CheckoutSessionID: &sessionID,
	}

	items := make([]*model.OrderItem, len(meta.Lines))
	for i, l := range meta.Lines {
		items[i] = &model.OrderItem{
			OrderID:    order.ID,
			MealID:     l.MealID,
			MealTitle:  titles[l.MealID],
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitAmount,
			PickupDate: l.PickupDate,
			PickupTime: l.PickupTime,
		}
	}

	if err := s.orderRepo.Create(ctx, tx, order); err != nil {
		return nil, err
	}
	if err := s.orderRepo.CreateOrderItems(ctx, tx, items); err != nil {
		return nil, err
	}

	return s.orderRepo.FindByID(ctx, tx, order.ID)
}
