package middleware

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/auth"
	inErrors "github.com/Alturino/storefront/internal/errors"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/model"
)

// Auth verifies the bearer token and stores its claims in the request context.
func Auth(secret string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := zerolog.Ctx(r.Context()).With().Str(log.KeyTag, "middleware Auth").Logger()
			c := logger.WithContext(r.Context())

			authorization := r.Header.Get(inHttp.KeyHeaderAuthorization)
			scheme, token, ok := strings.Cut(authorization, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
				logger.Error().Err(inErrors.ErrEmptyAuth).Msg(inErrors.ErrEmptyAuth.Error())
				inHttp.WriteError(c, w, inErrors.ErrEmptyAuth)
				return
			}

			claims, err := auth.Verify(token, secret)
			if err != nil {
				logger.Error().Err(err).Msg(err.Error())
				inHttp.WriteError(c, w, inErrors.ErrTokenInvalid)
				return
			}

			logger = logger.With().Str(log.KeyEmail, claims.Subject).Str(log.KeyRole, claims.Role).Logger()
			c = auth.AttachClaimsToContext(logger.WithContext(c), claims)
			next.ServeHTTP(w, r.WithContext(c))
		})
	}
}

// RequireAdmin rejects requests whose token does not carry the admin role. It runs after Auth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.ClaimsFromContext(r.Context())
		if !ok {
			inHttp.WriteError(r.Context(), w, inErrors.ErrEmptyAuth)
			return
		}
		if claims.Role != model.RoleAdmin {
			zerolog.Ctx(r.Context()).Error().Err(inErrors.ErrForbidden).Msg(inErrors.ErrForbidden.Error())
			inHttp.WriteError(r.Context(), w, inErrors.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
