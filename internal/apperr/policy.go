package apperr

import (
	"context"
	"log/slog"
)

type Stage string

const (
	StageClaim       Stage = "claim"
	StageDecode      Stage = "decode"
	StageInventory   Stage = "inventory"
	StageOrderStore  Stage = "order_store"
	StageEventRecord Stage = "event_record"
	StageReceipt     Stage = "receipt"
)

type Action int

const (
	// Fatal failures are returned to the webhook layer, which answers 5xx so the
	// gateway redelivers the event.
	Fatal Action = iota
	// LogOnly failures are logged and dropped.
	LogOnly
)

type Policy map[Stage]Action

// FulfillmentPolicy is the retry contract of the payment-confirmed pipeline.
var FulfillmentPolicy = Policy{
	StageClaim:       Fatal,
	StageDecode:      Fatal,
	StageInventory:   Fatal,
	StageOrderStore:  Fatal,
	StageEventRecord: Fatal,
	StageReceipt:     LogOnly,
}

func (p Policy) Action(stage Stage) Action {
	if a, ok := p[stage]; ok {
		return a
	}
	return Fatal
}

// Handle logs err with attrs and returns it if the stage is fatal, nil otherwise.
func (p Policy) Handle(ctx context.Context, log *slog.Logger, stage Stage, err error, attrs ...any) error {
	if err == nil {
		return nil
	}

	attrs = append(attrs[:len(attrs):len(attrs)], "stage", string(stage), "error", err)
	if p.Action(stage) == LogOnly {
		log.WarnContext(ctx, "fulfillment step failed, continuing", attrs...)
		return nil
	}

	log.ErrorContext(ctx, "fulfillment step failed", attrs...)
	return err
}
