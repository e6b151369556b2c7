package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation     Kind = "validation"
	KindAuthentication Kind = "authentication"
	KindNotFound       Kind = "not_found"
	KindUpstream       Kind = "upstream"
	KindPartialFailure Kind = "partial_failure"
)

const (
	CodeEmptyCart            = "empty_cart"
	CodeInvalidRequest       = "invalid_request"
	CodeInsufficientQuantity = "insufficient_quantity"
	CodeInvalidMetadata      = "invalid_metadata"
	CodeMetadataTooLarge     = "metadata_too_large"
	CodeInvalidStatus        = "invalid_status"
	CodeBookingMismatch      = "booking_mismatch"
	CodeMissingSignature     = "missing_signature"
	CodeInvalidSignature     = "invalid_signature"
	CodeUnauthorized         = "unauthorized"
	CodeMealNotFound         = "meal_not_found"
	CodeOrderNotFound        = "order_not_found"
	CodeNoSession            = "no_session"
	CodeNoPayment            = "no_payment"
	CodePaymentIncomplete    = "payment_incomplete"
	CodeGateway              = "gateway_error"
	CodeStore                = "store_error"
	CodeEventInFlight        = "event_in_flight"
	CodePartialFailure       = "partial_failure"
	CodeWebhookProcessing    = "webhook_processing_failed"
)

// Error is the single error type crossing service boundaries. Handlers turn it
// into a status code and a {"error","message"} body.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status maps the error kind to an HTTP status.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation, KindAuthentication:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Wrap(kind Kind, code, message string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

func Validation(code, message string) *Error {
	return New(KindValidation, code, message)
}

func Upstream(code, message string, err error) *Error {
	return Wrap(KindUpstream, code, message, err)
}

func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return ""
}

func Is(err error, code string) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

func EmptyCartError() *Error {
	return Validation(CodeEmptyCart, "cart has no items")
}

func InsufficientQuantityError(mealID string, available, requested int) *Error {
	return Validation(CodeInsufficientQuantity,
		fmt.Sprintf("meal %s has %d left, %d requested", mealID, available, requested))
}

func MealNotFoundError(mealID string) *Error {
	return New(KindNotFound, CodeMealNotFound, fmt.Sprintf("meal %s not found", mealID))
}

func OrderNotFoundError(orderID string) *Error {
	return New(KindNotFound, CodeOrderNotFound, fmt.Sprintf("order %s not found", orderID))
}

func NoSessionError(orderID string) *Error {
	return Validation(CodeNoSession, fmt.Sprintf("order %s has no checkout session", orderID))
}

func NoPaymentError(sessionID string) *Error {
	return Validation(CodeNoPayment, fmt.Sprintf("checkout session %s has no captured payment", sessionID))
}

func IncompletePaymentError(sessionID string) *Error {
	return Validation(CodePaymentIncomplete, fmt.Sprintf("payment for session %s is not complete", sessionID))
}

func MissingSignatureError() *Error {
	return New(KindAuthentication, CodeMissingSignature, "missing webhook signature header")
}

func InvalidSignatureError(err error) *Error {
	return Wrap(KindAuthentication, CodeInvalidSignature, "webhook signature verification failed", err)
}

func EventInFlightError(eventID string) *Error {
	return New(KindUpstream, CodeEventInFlight, fmt.Sprintf("event %s is being processed elsewhere", eventID))
}

// PartialFailureError marks a refund that went through at the gateway while the
// local order record could not be updated. It needs manual reconciliation.
func PartialFailureError(orderID, refundID string, err error) *Error {
	return Wrap(KindPartialFailure, CodePartialFailure,
		fmt.Sprintf("refund %s succeeded but order %s was not updated", refundID, orderID), err)
}
