package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Status(t *testing.T) {
	tests := []struct {
		err  *Error
		want int
	}{
		{EmptyCartError(), http.StatusBadRequest},
		{InsufficientQuantityError("A", 1, 2), http.StatusBadRequest},
		{MissingSignatureError(), http.StatusBadRequest},
		{InvalidSignatureError(errors.New("bad mac")), http.StatusBadRequest},
		{MealNotFoundError("A"), http.StatusNotFound},
		{OrderNotFoundError("o1"), http.StatusNotFound},
		{Upstream(CodeGateway, "create session", errors.New("timeout")), http.StatusInternalServerError},
		{EventInFlightError("evt_1"), http.StatusInternalServerError},
		{PartialFailureError("o1", "re_1", errors.New("locked")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Code, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Status())
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("refund order: %w", Upstream(CodeGateway, "refund payment", cause))

	assert.ErrorIs(t, err, cause)
	assert.True(t, Is(err, CodeGateway))
	assert.False(t, Is(err, CodeStore))
	assert.Equal(t, KindUpstream, KindOf(err))
	assert.Equal(t, Kind(""), KindOf(cause))
	assert.Equal(t, "gateway_error: refund payment: connection reset", Upstream(CodeGateway, "refund payment", cause).Error())
}
