package model

const (
	EventCheckoutSessionCompleted             = "checkout.session.completed"
	EventCheckoutSessionAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"

	SessionPaymentStatusPaid = "paid"
)

type LineItem struct {
	Name       string
	UnitAmount int64 // minor units
	Quantity   int64
}

type CheckoutSessionParams struct {
	LineItems     []LineItem
	Currency      string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

type CheckoutSession struct {
	ID              string            `json:"id"`
	URL             string            `json:"url,omitempty"`
	Status          string            `json:"status"`
	PaymentStatus   string            `json:"payment_status"`
	AmountTotal     int64             `json:"amount_total"`
	Currency        string            `json:"currency"`
	CustomerEmail   string            `json:"customer_email"`
	PaymentIntentID string            `json:"payment_intent,omitempty"`
	Metadata        map[string]string `json:"metadata"`
}

type Refund struct {
	ID              string `json:"id"`
	Status          string `json:"status"`
	Amount          int64  `json:"amount"`
	PaymentIntentID string `json:"payment_intent"`
}

// GatewayEvent is a verified webhook event. Session is set for checkout.session.* events.
type GatewayEvent struct {
	ID      string
	Type    string
	Session *CheckoutSession
}
