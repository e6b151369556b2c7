package apperr

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFulfillmentPolicy_Handle(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := context.Background()
	boom := errors.New("boom")

	assert.NoError(t, FulfillmentPolicy.Handle(ctx, log, StageReceipt, boom, "event_id", "evt_1"))
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "stage=receipt")

	buf.Reset()
	for _, stage := range []Stage{StageClaim, StageDecode, StageInventory, StageOrderStore, StageEventRecord, Stage("unknown")} {
		assert.ErrorIs(t, FulfillmentPolicy.Handle(ctx, log, stage, boom), boom, stage)
	}
	assert.Contains(t, buf.String(), "level=ERROR")

	assert.NoError(t, FulfillmentPolicy.Handle(ctx, log, StageInventory, nil))
}
