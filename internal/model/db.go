package model

import "time"

type Meal struct {
	ID                string    `gorm:"primaryKey;size:64;not null" json:"id"`
	Title             string    `gorm:"size:255;not null" json:"title"`
	Description       string    `gorm:"type:text" json:"description"`
	Price             float64   `gorm:"not null" json:"price"` // major units, e.g. 10.00
	AvailableQuantity int       `gorm:"not null;default:0;check:available_quantity >= 0" json:"availableQuantity"`
	PickupLocation    string    `gorm:"size:255" json:"pickupLocation"`
	PickupDate        string    `gorm:"size:16" json:"pickupDate"` // 2024-06-01
	PickupTime        string    `gorm:"size:16" json:"pickupTime"` // 18:00
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

type Order struct {
	ID                string        `gorm:"primaryKey;size:64;not null" json:"id"`
	CustomerEmail     string        `gorm:"size:255;index;not null" json:"customerEmail"`
	CustomerPhone     string        `gorm:"size:32" json:"customerPhone"`
	TotalAmount       int64         `gorm:"not null" json:"totalAmount"` // minor units
	Currency          string        `gorm:"size:8;not null" json:"currency"`
	Status            OrderStatus   `gorm:"size:32;index;not null" json:"status"`
	PaymentStatus     PaymentStatus `gorm:"size:32;index;not null" json:"paymentStatus"`
	CheckoutSessionID *string       `gorm:"size:255;uniqueIndex" json:"checkoutSessionId,omitempty"`
	Items             []OrderItem   `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	CreatedAt         time.Time     `json:"createdAt"`
	UpdatedAt         time.Time     `json:"updatedAt"`
}

type OrderItem struct {
	ID uint `gorm:"primaryKey" json:"id"`
	// FK → orders.id
	OrderID string `gorm:"size:64;index;not null" json:"orderId"`
	// FK → meals.id
	MealID     string `gorm:"size:64;index;not null" json:"mealId"`
	MealTitle  string `gorm:"size:255" json:"mealTitle"`
	Quantity   int    `gorm:"not null" json:"quantity"`
	UnitPrice  int64  `gorm:"not null" json:"unitPrice"` // minor units
	PickupDate string `gorm:"size:16" json:"pickupDate"`
	PickupTime string `gorm:"size:16" json:"pickupTime"`

	CreatedAt time.Time `json:"createdAt"`
}

type WebhookEvent struct {
	EventID     string    `gorm:"primaryKey;size:128;uniqueIndex;not null" json:"eventId"`
	EventType   string    `gorm:"size:64;index" json:"eventType"`
	SessionID   string    `gorm:"size:255;index" json:"sessionId"`
	ProcessedAt time.Time `json:"processedAt"`
	CreatedAt   time.Time `json:"createdAt"`
}
