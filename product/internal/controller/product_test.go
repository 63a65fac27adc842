package controller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/storefront/internal/auth"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/middleware"
	"github.com/Alturino/storefront/internal/model"
	"github.com/Alturino/storefront/internal/store"
	"github.com/Alturino/storefront/product/repository"
)

const secret = "secret"

func newRouter() *mux.Router {
	router := mux.NewRouter()
	AttachProductController(
		router,
		repository.NewProductRepository(store.NewMemoryStore()),
		middleware.Auth(secret),
		middleware.RequireAdmin,
	)
	return router
}

func serve(t *testing.T, router *mux.Router, method string, target string, body string, role string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	if role != "" {
		token, err := auth.Sign(model.User{Email: role + "@example.com", Role: role}, secret, time.Now())
		require.NoError(t, err)
		r.Header.Set(inHttp.KeyHeaderAuthorization, "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	return w
}

func TestInsertProduct(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		body     string
		expected int
	}{
		{
			name:     "given no token should return 401",
			body:     `{"name":"Book","price":"10"}`,
			expected: http.StatusUnauthorized,
		},
		{
			name:     "given user role should return 403",
			role:     model.RoleUser,
			body:     `{"name":"Book","price":"10"}`,
			expected: http.StatusForbidden,
		},
		{
			name:     "given missing name should return 400",
			role:     model.RoleAdmin,
			body:     `{"price":"10"}`,
			expected: http.StatusBadRequest,
		},
		{
			name:     "given negative price should return 400",
			role:     model.RoleAdmin,
			body:     `{"name":"Book","price":"-1"}`,
			expected: http.StatusBadRequest,
		},
		{
			name:     "given unknown field should return 400",
			role:     model.RoleAdmin,
			body:     `{"name":"Book","price":"10","quantity":3}`,
			expected: http.StatusBadRequest,
		},
		{
			name:     "given admin and valid product should return 201",
			role:     model.RoleAdmin,
			body:     `{"name":"Book","price":"10.50","imageRef":"book.png"}`,
			expected: http.StatusCreated,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			router := newRouter()
			w := serve(t, router, http.MethodPost, "/products", test.body, test.role)
			assert.Equal(t, test.expected, w.Code)
		})
	}
}

func TestGetAndFindProducts(t *testing.T) {
	router := newRouter()

	w := serve(t, router, http.MethodPost, "/products", `{"name":"Book","price":"10.50"}`, model.RoleAdmin)
	require.Equal(t, http.StatusCreated, w.Code)
	created := struct {
		Data struct {
			Product model.Product `json:"product"`
		} `json:"data"`
	}{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))

	w = serve(t, router, http.MethodGet, "/products", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	listed := struct {
		Data struct {
			Products []model.Product `json:"products"`
		} `json:"data"`
	}{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&listed))
	require.Len(t, listed.Data.Products, 1)
	assert.Equal(t, created.Data.Product.ID, listed.Data.Products[0].ID)
	assert.True(t, decimal.RequireFromString("10.5").Equal(listed.Data.Products[0].Price))

	w = serve(t, router, http.MethodGet, "/products/"+created.Data.Product.ID, "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(t, router, http.MethodGet, "/products/missing", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
