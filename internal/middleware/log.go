package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	inErrors "github.com/Alturino/storefront/internal/errors"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

// Logging attaches a request scoped logger and request id to the context.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(inHttp.KeyHeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(inHttp.KeyHeaderRequestID, requestID)
		c, span := otel.Tracer.Start(
			r.Context(),
			"middleware Logging",
			trace.WithAttributes(
				attribute.String(log.KeyRequestID, requestID),
				attribute.String(log.KeyRequestHost, r.Host),
				attribute.String(log.KeyRequestIp, r.RemoteAddr),
				attribute.String(log.KeyRequestMethod, r.Method),
				attribute.String(log.KeyRequestURI, r.RequestURI),
			),
		)
		defer span.End()

		var buffer bytes.Buffer
		requestBody := map[string]interface{}{}
		if r.Body != nil {
			tee := io.TeeReader(http.MaxBytesReader(w, r.Body, inHttp.MaxBodyBytes), &buffer)
			_ = json.NewDecoder(tee).Decode(&requestBody)
			if _, err := io.Copy(io.Discard, tee); err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					err = errors.Join(inErrors.ErrBodyTooLarge, err)
				} else {
					err = errors.Join(inErrors.ErrBadRequest, err)
				}
				err = fmt.Errorf("failed reading request body with error=%w", err)
				inErrors.HandleError(err, span)
				zerolog.Ctx(c).Error().Err(err).Str(log.KeyRequestID, requestID).Msg(err.Error())
				inHttp.WriteError(c, w, err)
				return
			}
			r.Body = io.NopCloser(&buffer)
		}
		if requestBody["password"] != nil {
			requestBody["password"] = "****"
		}

		logger := zerolog.Ctx(c).
			With().
			Str(log.KeyRequestID, requestID).
			Dict(log.KeyRequest, zerolog.Dict().
				Str(log.KeyRequestHost, r.Host).
				Str(log.KeyRequestIp, r.RemoteAddr).
				Str(log.KeyRequestMethod, r.Method).
				Str(log.KeyRequestURI, r.RequestURI).
				Any(log.KeyRequestBody, requestBody)).
			Str(log.KeyTag, "middleware Logging").
			Logger()

		c = log.AttachRequestIDToContext(c, requestID)
		c = logger.WithContext(c)

		logger.Info().Msg("received request")
		next.ServeHTTP(w, r.WithContext(c))
	})
}
