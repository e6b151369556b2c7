package service

import (
	"context"
	"fmt"
	"html"
	"meal-storefront/internal/client"
	"meal-storefront/internal/model"
	"strings"
)

type Receipt struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

func FormatReceipt(order *model.Order) *Receipt {
	var b strings.Builder
	fmt.Fprintf(&b, "Thanks for your order!\n\nOrder: %s\n\n", order.ID)
	for _, item := range order.Items {
		title := item.MealTitle
		if title == "" {
			title = item.MealID
		}
		fmt.Fprintf(&b, "%d x %s @ %s, pickup %s %s\n",
			item.Quantity, title, FormatMinor(item.UnitPrice, order.Currency),
			item.PickupDate, item.PickupTime)
	}
	fmt.Fprintf(&b, "\nTotal paid: %s\n", FormatMinor(order.TotalAmount, order.Currency))
	if order.CustomerPhone != "" {
		fmt.Fprintf(&b, "We will text %s if anything changes.\n", order.CustomerPhone)
	}

	text := b.String()
	return &Receipt{
		To:      order.CustomerEmail,
		Subject: fmt.Sprintf("Your order %s is confirmed", shortID(order.ID)),
		Text:    text,
		HTML:    "<pre>" + html.EscapeString(text) + "</pre>",
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return strings.ToUpper(id[:8])
	}
	return strings.ToUpper(id)
}

type ReceiptNotifier interface {
	SendReceipt(ctx context.Context, order *model.Order) error
}

type receiptNotifierImpl struct {
	mailer client.Mailer
}

func NewReceiptNotifier(mailer client.Mailer) ReceiptNotifier {
	return &receiptNotifierImpl{mailer: mailer}
}

func (n *receiptNotifierImpl) SendReceipt(ctx context.Context, order *model.Order) error {
	r := FormatReceipt(order)
	if err := n.mailer.Send(ctx, r.To, r.Subject, r.Text, r.HTML); err != nil {
		return fmt.Errorf("send receipt for order %s: %w", order.ID, err)
	}
	return nil
}
