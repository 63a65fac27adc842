package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/storefront/internal/auth"
	inErrors "github.com/Alturino/storefront/internal/errors"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/model"
)

const secret = "secret"

func bearer(t *testing.T, role string) string {
	t.Helper()
	token, err := auth.Sign(model.User{Email: "owner@example.com", Role: role}, secret, time.Now())
	require.NoError(t, err)
	return "Bearer " + token
}

func TestAuth(t *testing.T) {
	tests := []struct {
		name          string
		authorization string
		expected      int
	}{
		{name: "given no header should return 401", authorization: "", expected: http.StatusUnauthorized},
		{name: "given non bearer scheme should return 401", authorization: "Basic abc", expected: http.StatusUnauthorized},
		{name: "given invalid token should return 401", authorization: "Bearer abc", expected: http.StatusUnauthorized},
		{name: "given valid token should call next", authorization: "valid", expected: http.StatusNoContent},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var ownerID string
			handler := Auth(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ownerID, _ = auth.OwnerIDFromContext(r.Context())
				w.WriteHeader(http.StatusNoContent)
			}))

			r := httptest.NewRequest(http.MethodGet, "/carts", nil)
			if test.authorization == "valid" {
				r.Header.Set(inHttp.KeyHeaderAuthorization, bearer(t, model.RoleUser))
			} else if test.authorization != "" {
				r.Header.Set(inHttp.KeyHeaderAuthorization, test.authorization)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			assert.Equal(t, test.expected, w.Code)
			if test.expected == http.StatusNoContent {
				assert.Equal(t, "owner@example.com", ownerID)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		expected int
	}{
		{name: "given user role should return 403", role: model.RoleUser, expected: http.StatusForbidden},
		{name: "given admin role should call next", role: model.RoleAdmin, expected: http.StatusCreated},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			handler := Auth(secret)(RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusCreated)
			})))

			r := httptest.NewRequest(http.MethodPost, "/products", nil)
			r.Header.Set(inHttp.KeyHeaderAuthorization, bearer(t, test.role))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			assert.Equal(t, test.expected, w.Code)
		})
	}
}

func TestLoggingKeepsBodyAndSetsRequestID(t *testing.T) {
	var body, requestID string
	handler := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		requestID = log.RequestIDFromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodPost, "/users/login", strings.NewReader(`{"email":"a@b.c","password":"pw"}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, `{"email":"a@b.c","password":"pw"}`, body, "handlers should see the untouched body")
	assert.NotEmpty(t, requestID)
	assert.Equal(t, requestID, w.Header().Get(inHttp.KeyHeaderRequestID))
}

func TestLoggingRejectsOversizedBody(t *testing.T) {
	called := false
	handler := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	body := `{"name":"` + strings.Repeat("a", inHttp.MaxBodyBytes) + `"}`
	r := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.False(t, called)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), inErrors.ErrBodyTooLarge.Error())
	assert.NotEmpty(t, w.Header().Get(inHttp.KeyHeaderRequestID))
}

func TestRecoverPanic(t *testing.T) {
	handler := RecoverPanic(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), inHttp.MessageInternalServerError)
}
