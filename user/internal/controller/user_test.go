package controller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/storefront/internal/auth"
	"github.com/Alturino/storefront/internal/config"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/store"
	"github.com/Alturino/storefront/user/internal/repository"
	"github.com/Alturino/storefront/user/internal/service"
)

type sessionBody struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Data       service.Session `json:"data"`
}

func newRouter() *mux.Router {
	router := mux.NewRouter()
	svc := service.NewUserService(
		repository.NewUserRepository(store.NewMemoryStore()),
		config.Application{SecretKey: "secret"},
	)
	AttachUserController(router, svc)
	return router
}

func post(router *mux.Router, target string, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, target, strings.NewReader(body)))
	return w
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected int
	}{
		{
			name:     "given valid body should return 201",
			body:     `{"email":"owner@example.com","password":"password"}`,
			expected: http.StatusCreated,
		},
		{
			name:     "given invalid email should return 400",
			body:     `{"email":"owner","password":"password"}`,
			expected: http.StatusBadRequest,
		},
		{
			name:     "given short password should return 400",
			body:     `{"email":"owner@example.com","password":"short"}`,
			expected: http.StatusBadRequest,
		},
		{
			name:     "given unknown role should return 400",
			body:     `{"email":"owner@example.com","password":"password","role":"root"}`,
			expected: http.StatusBadRequest,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			w := post(newRouter(), "/users/register", test.body)
			assert.Equal(t, test.expected, w.Code)
		})
	}
}

func TestRegisterThenLogin(t *testing.T) {
	router := newRouter()

	w := post(router, "/users/register", `{"email":"owner@example.com","password":"password"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = post(router, "/users/register", `{"email":"OWNER@example.com","password":"password"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = post(router, "/users/login", `{"email":"owner@example.com","password":"wrong-password"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = post(router, "/users/login", `{"email":"nobody@example.com","password":"password"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotContains(t, w.Body.String(), "not found")

	w = post(router, "/users/login", `{"email":"owner@example.com","password":"password"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, inHttp.ValueHeaderApplicationJson, w.Header().Get(inHttp.KeyHeaderContentType))
	body := sessionBody{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, inHttp.StatusSuccess, body.Status)
	assert.Equal(t, "owner@example.com", body.Data.User.Email)

	claims, err := auth.Verify(body.Data.Token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", claims.Subject)
}
