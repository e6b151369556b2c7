package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"meal-storefront/internal/apperr"
	"meal-storefront/internal/client"
	"meal-storefront/internal/dto"
	"meal-storefront/internal/model"
	"meal-storefront/internal/repository"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const sessionLookupTimeout = 15 * time.Second

type CheckoutService interface {
	CreateSession(ctx context.Context, req *dto.CheckoutRequest, origin string) (*dto.CheckoutResponse, error)
	GetSession(ctx context.Context, sessionID string) (*model.CheckoutSession, error)
	Book(ctx context.Context, req *dto.CheckoutRequest) (*dto.BookingResponse, error)
}

type checkoutServiceImpl struct {
	db        *gorm.DB
	gateway   client.PaymentGateway
	mealRepo  repository.MealRepository
	orderRepo repository.OrderRepository
	baseURL   string
	currency  string
	log       *slog.Logger
	sessions  singleflight.Group
}

func NewCheckoutService(
	db *gorm.DB,
	gateway client.PaymentGateway,
	mealRepo repository.MealRepository,
	orderRepo repository.OrderRepository,
	baseURL string,
	currency string,
	log *slog.Logger,
) CheckoutService {
	return &checkoutServiceImpl{
		db:        db,
		gateway:   gateway,
		mealRepo:  mealRepo,
		orderRepo: orderRepo,
		baseURL:   strings.TrimRight(baseURL, "/"),
		currency:  currency,
		log:       log,
	}
}

type pricedLine struct {
	meal       *model.Meal
	quantity   int
	unitAmount int64
	pickupTime string
	pickupDate string
}

// priceCart validates the cart against the catalog. Nothing is reserved: stock
// only moves on confirmed payment.
func (s *checkoutServiceImpl) priceCart(ctx context.Context, req *dto.CheckoutRequest) ([]pricedLine, int64, error) {
	if len(req.Items) == 0 {
		return nil, 0, apperr.EmptyCartError()
	}
	if strings.TrimSpace(req.CustomerEmail) == "" {
		return nil, 0, apperr.Validation(apperr.CodeInvalidRequest, "customer email is required")
	}

	mealIDs := make([]string, 0, len(req.Items))
	requested := make(map[string]int)
	for _, item := range req.Items {
		if item == nil || item.MealID == "" {
			return nil, 0, apperr.Validation(apperr.CodeInvalidRequest, "cart line has no meal id")
		}
		if item.Quantity <= 0 {
			return nil, 0, apperr.Validation(apperr.CodeInvalidRequest, fmt.Sprintf("quantity for meal %s must be positive", item.MealID))
		}
		if _, seen := requested[item.MealID]; !seen {
			mealIDs = append(mealIDs, item.MealID)
		}
		requested[item.MealID] += item.Quantity
	}

	meals, err := s.mealRepo.FindMany(ctx, mealIDs)
	if err != nil {
		return nil, 0, apperr.Upstream(apperr.CodeStore, "load meals", err)
	}
	byID := make(map[string]*model.Meal, len(meals))
	for _, m := range meals {
		byID[m.ID] = m
	}

	for _, id := range mealIDs {
		meal, ok := byID[id]
		if !ok {
			return nil, 0, apperr.MealNotFoundError(id)
		}
		if requested[id] > meal.AvailableQuantity {
			return nil, 0, apperr.InsufficientQuantityError(id, meal.AvailableQuantity, requested[id])
		}
	}

	lines := make([]pricedLine, len(req.Items))
	var total int64
	for i, item := range req.Items {
		meal := byID[item.MealID]
		line := pricedLine{
			meal:       meal,
			quantity:   item.Quantity,
			unitAmount: ToMinorUnits(meal.Price),
			pickupTime: firstNonEmpty(meal.PickupTime, item.PickupTime),
			pickupDate: firstNonEmpty(meal.PickupDate, item.PickupDate),
		}
		total += line.unitAmount * int64(line.quantity)
		lines[i] = line
	}

	return lines, total, nil
}

func (s *checkoutServiceImpl) CreateSession(ctx context.Context, req *dto.CheckoutRequest, origin string) (*dto.CheckoutResponse, error) {
	lines, total, err := s.priceCart(ctx, req)
	if err != nil {
		return nil, err
	}

	if req.OrderID != "" {
		order, err := s.orderRepo.FindByID(ctx, nil, req.OrderID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.OrderNotFoundError(req.OrderID)
		}
		if err != nil {
			return nil, apperr.Upstream(apperr.CodeStore, "load booking", err)
		}
		if order.PaymentStatus != model.PaymentStatusPending {
			return nil, apperr.Validation(apperr.CodeInvalidStatus, fmt.Sprintf("order %s is already %s", order.ID, order.PaymentStatus))
		}
		if !matchesBooking(req.Items, order.Items) {
			return nil, apperr.Validation(apperr.CodeBookingMismatch, fmt.Sprintf("cart does not match the items booked on order %s", order.ID))
		}
	}

	meta := &FulfillmentMetadata{
		CustomerPhone: req.CustomerPhone,
		OrderID:       req.OrderID,
		Lines:         make([]FulfillmentLine, len(lines)),
	}
	items := make([]model.LineItem, len(lines))
	for i, l := range lines {
		meta.Lines[i] = FulfillmentLine{
			MealID:     l.meal.ID,
			Quantity:   l.quantity,
			UnitAmount: l.unitAmount,
			PickupTime: l.pickupTime,
			PickupDate: l.pickupDate,
		}
		items[i] = model.LineItem{
			Name:       l.meal.Title,
			UnitAmount: l.unitAmount,
			Quantity:   int64(l.quantity),
		}
	}

	metadata, err := EncodeMetadata(meta)
	if err != nil {
		return nil, err
	}

	redirectBase := s.redirectBase(origin)
	session, err := s.gateway.CreateCheckoutSession(ctx, &model.CheckoutSessionParams{
		LineItems:     items,
		Currency:      s.currency,
		CustomerEmail: req.CustomerEmail,
		SuccessURL:    redirectBase + "/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     redirectBase + "/cart",
		Metadata:      metadata,
	})
	if err != nil {
		s.log.ErrorContext(ctx, "create checkout session", "customer_email", req.CustomerEmail, "error", err)
		return nil, apperr.Upstream(apperr.CodeGateway, "create checkout session", err)
	}

	s.log.InfoContext(ctx, "checkout session created",
		"session_id", session.ID,
		"amount_total", total,
		"lines", len(lines),
	)

	return &dto.CheckoutResponse{
		SessionID:   session.ID,
		URL:         session.URL,
		AmountTotal: total,
	}, nil
}

// redirectBase prefers the caller's origin and falls back to the configured site URL.
func (s *checkoutServiceImpl) redirectBase(origin string) string {
	u, err := url.Parse(origin)
	if origin == "" || err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return s.baseURL
	}
	return u.Scheme + "://" + u.Host
}

func (s *checkoutServiceImpl) GetSession(ctx context.Context, sessionID string) (*model.CheckoutSession, error) {
	if sessionID == "" {
		return nil, apperr.Validation(apperr.CodeInvalidRequest, "session_id is required")
	}

	v, err, _ := s.sessions.Do(sessionID, func() (interface{}, error) {
		// shared by every caller in the flight, so one cancelled request cannot fail the rest
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sessionLookupTimeout)
		defer cancel()
		return s.gateway.GetCheckoutSession(callCtx, sessionID)
	})
	if err != nil {
		s.log.ErrorContext(ctx, "retrieve checkout session", "session_id", sessionID, "error", err)
		return nil, apperr.Upstream(apperr.CodeGateway, "retrieve checkout session", err)
	}

	session := v.(*model.CheckoutSession)
	if session.PaymentStatus != model.SessionPaymentStatusPaid {
		return nil, apperr.IncompletePaymentError(sessionID)
	}

	return session, nil
}

func (s *checkoutServiceImpl) Book(ctx context.Context, req *dto.CheckoutRequest) (*dto.BookingResponse, error) {
	lines, total, err := s.priceCart(ctx, req)
	if err != nil {
		return nil, err
	}

	order := &model.Order{
		ID:            uuid.NewString(),
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		TotalAmount:   total,
		Currency:      s.currency,
		Status:        model.OrderStatusPending,
		PaymentStatus: model.PaymentStatusPending,
	}
	items := make([]*model.OrderItem, len(lines))
	for i, l := range lines {
		items[i] = &model.OrderItem{
			OrderID:    order.ID,
			MealID:     l.meal.ID,
			MealTitle:  l.meal.Title,
			Quantity:   l.quantity,
			UnitPrice:  l.unitAmount,
			PickupDate: l.pickupDate,
			PickupTime: l.pickupTime,
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("store order in db: %w", err)
		}
		if err := s.orderRepo.CreateOrderItems(ctx, tx, items); err != nil {
			return fmt.Errorf("store order items in db: %w", err)
		}
		return nil
	})
	if err != nil {
		s.log.ErrorContext(ctx, "create booking", "order_id", order.ID, "error", err)
		return nil, apperr.Upstream(apperr.CodeStore, "create booking", err)
	}

	s.log.InfoContext(ctx, "booking created", "order_id", order.ID, "total_amount", total)

	return &dto.BookingResponse{
		OrderID:     order.ID,
		TotalAmount: total,
	}, nil
}

// matchesBooking reports whether the cart asks for exactly the booked meals and quantities.
func matchesBooking(cart []*dto.CartItem, booked []model.OrderItem) bool {
	diff := make(map[string]int, len(booked))
	for _, item := range booked {
		diff[item.MealID] += item.Quantity
	}
	for _, item := range cart {
		diff[item.MealID] -= item.Quantity
	}
	for _, n := range diff {
		if n != 0 {
			return false
		}
	}
	return true
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
