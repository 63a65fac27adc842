package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/otel"
)

const (
	KeyHeaderContentType       = "Content-Type"
	KeyHeaderRequestID         = "X-Request-Id"
	KeyHeaderAuthorization     = "Authorization"
	ValueHeaderApplicationJson = "application/json"

	StatusSuccess = "success"
	StatusFailed  = "failed"

	MessageInternalServerError = "Internal Server Error"
)

func WriteJsonResponse(
	c context.Context,
	w http.ResponseWriter,
	header map[string]string,
	body map[string]interface{},
) {
	c, span := otel.Tracer.Start(c, "WriteJsonResponse")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str("tag", "WriteJsonResponse").Logger()

	w.Header().Set(KeyHeaderContentType, ValueHeaderApplicationJson)
	for k, v := range header {
		w.Header().Add(k, v)
	}

	if v, ok := body["statusCode"].(int); ok {
		w.WriteHeader(v)
	}

	if err := json.NewEncoder(w).Encode(body); err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
	}
}

// WriteError maps err to a status code and writes the failure envelope. Only the message of the
// matched public error reaches the client; everything else is reported as a generic internal error.
func WriteError(c context.Context, w http.ResponseWriter, err error) {
	statusCode, message := classifyError(err)
	WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     StatusFailed,
		"statusCode": statusCode,
		"message":    message,
	})
}

func StatusFromError(err error) int {
	statusCode, _ := classifyError(err)
	return statusCode
}

var publicErrors = []struct {
	err        error
	statusCode int
}{
	{err: inErrors.ErrCartNotFound, statusCode: http.StatusNotFound},
	{err: inErrors.ErrItemNotFound, statusCode: http.StatusNotFound},
	{err: inErrors.ErrProductNotFound, statusCode: http.StatusNotFound},
	{err: inErrors.ErrUserNotFound, statusCode: http.StatusNotFound},
	{err: inErrors.ErrEmptyCart, statusCode: http.StatusBadRequest},
	{err: inErrors.ErrEmptyPurchase, statusCode: http.StatusBadRequest},
	{err: inErrors.ErrBodyTooLarge, statusCode: http.StatusRequestEntityTooLarge},
	{err: inErrors.ErrEmptyAuth, statusCode: http.StatusUnauthorized},
	{err: inErrors.ErrEmptySubject, statusCode: http.StatusUnauthorized},
	{err: inErrors.ErrTokenInvalid, statusCode: http.StatusUnauthorized},
	{err: inErrors.ErrPasswordMismatch, statusCode: http.StatusUnauthorized},
	{err: inErrors.ErrForbidden, statusCode: http.StatusForbidden},
	{err: inErrors.ErrUserAlreadyExists, statusCode: http.StatusConflict},
}

// classifyError returns the status code for err and the message that is safe to send back.
func classifyError(err error) (int, string) {
	// a corrupt document may carry a json error from the store decoder
	if errors.Is(err, inErrors.ErrStoreCorrupt) {
		return http.StatusInternalServerError, MessageInternalServerError
	}
	for _, public := range publicErrors {
		if errors.Is(err, public.err) {
			return public.statusCode, public.err.Error()
		}
	}

	var validationErrors validator.ValidationErrors
	var syntaxError *json.SyntaxError
	var typeError *json.UnmarshalTypeError
	switch {
	case errors.As(err, &validationErrors):
		return http.StatusBadRequest, validationErrors.Error()
	case errors.As(err, &syntaxError):
		return http.StatusBadRequest, syntaxError.Error()
	case errors.As(err, &typeError):
		return http.StatusBadRequest, typeError.Error()
	case errors.Is(err, inErrors.ErrBadRequest):
		return http.StatusBadRequest, inErrors.ErrBadRequest.Error()
	default:
		return http.StatusInternalServerError, MessageInternalServerError
	}
}
