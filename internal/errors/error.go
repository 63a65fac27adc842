package errors

import (
	"errors"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrStoreCorrupt  = errors.New("store document is corrupt")
	ErrCartNotFound  = errors.New("cart not found")
	ErrItemNotFound  = errors.New("item not found in cart")
	ErrEmptyCart     = errors.New("cart is empty, nothing to checkout")
	ErrEmptyPurchase = errors.New("purchase has no line items")

	ErrProductNotFound   = errors.New("product not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrPasswordMismatch  = errors.New("invalid email or password")

	ErrBadRequest      = errors.New("bad request")
	ErrBodyTooLarge    = errors.New("request body too large")
	ErrEmptyAuth       = errors.New("missing authorization")
	ErrEmptySubject    = errors.New("missing subject")
	ErrTokenInvalid    = errors.New("invalid token")
	ErrForbidden       = errors.New("forbidden")
	ErrFailedHashToken = errors.New("failed hashing token")
)

func HandleError(err error, span trace.Span) {
	if err == nil {
		return
	}
	span.AddEvent(err.Error())
	span.SetStatus(codes.Error, err.Error())
	span.RecordError(err)
}
