package dto

import "meal-storefront/internal/model"

// CartItem mirrors the client-side cart line. Price, Title and the pickup
// fields are the snapshot taken at add-to-cart time.
type CartItem struct {
	MealID     string  `json:"mealId"`
	Quantity   int     `json:"quantity"`
	Price      float64 `json:"price"`
	Title      string  `json:"title"`
	PickupTime string  `json:"pickupTime"`
	PickupDate string  `json:"pickupDate"`
}

type CheckoutRequest struct {
	Items         []*CartItem `json:"items"`
	CustomerEmail string      `json:"customerEmail"`
	CustomerPhone string      `json:"customerPhone"`
	OrderID       string      `json:"orderId,omitempty"` // pending booking to settle
}

type CheckoutResponse struct {
	SessionID   string `json:"sessionId"`
	URL         string `json:"url"`
	AmountTotal int64  `json:"amountTotal"`
}

type BookingResponse struct {
	OrderID     string `json:"orderId"`
	TotalAmount int64  `json:"totalAmount"`
}

type SessionResponse struct {
	Session *model.CheckoutSession `json:"session"`
}

type WebhookResponse struct {
	Received bool `json:"received"`
}

type RefundRequest struct {
	OrderID string `json:"orderId"`
}

type RefundResponse struct {
	Success bool          `json:"success"`
	Refund  *model.Refund `json:"refund"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

type RevenueResponse struct {
	TotalPaid  int64 `json:"totalPaid"`
	OrderCount int64 `json:"orderCount"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
