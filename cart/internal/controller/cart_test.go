package controller

import (
	"context"
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

	"github.com/Alturino/storefront/cart/pkg/response"
	"github.com/Alturino/storefront/cart/repository"
	"github.com/Alturino/storefront/internal/auth"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/lock"
	"github.com/Alturino/storefront/internal/middleware"
	"github.com/Alturino/storefront/internal/model"
	"github.com/Alturino/storefront/internal/store"
	"github.com/Alturino/storefront/invoice/ledger"
	"github.com/Alturino/storefront/order/service"
	"github.com/Alturino/storefront/product/pkg/request"
	productRepository "github.com/Alturino/storefront/product/repository"
)

const secret = "secret"

type envelope[T any] struct {
	Status     string `json:"status"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Data       T      `json:"data"`
}

type cartData struct {
	Cart response.Cart `json:"cart"`
}

type invoiceData struct {
	Invoice model.Invoice `json:"invoice"`
}

type fixture struct {
	router  *mux.Router
	token   string
	product model.Product
}

func setup(t *testing.T) fixture {
	t.Helper()
	c := context.Background()

	s := store.NewFileStore(t.TempDir())
	carts := repository.NewCartRepository(s, lock.NewKeyed())
	products := productRepository.NewProductRepository(s)
	checkout := service.NewCheckoutService(carts, ledger.NewLedger(s), nil)

	product, err := products.Create(c, request.Product{Name: "Book", Price: decimal.NewFromInt(10)})
	require.NoError(t, err)

	token, err := auth.Sign(model.User{Email: "owner@example.com", Role: model.RoleUser}, secret, time.Now())
	require.NoError(t, err)

	router := mux.NewRouter()
	authenticated := router.NewRoute().Subrouter()
	authenticated.Use(middleware.Auth(secret))
	AttachCartController(authenticated, carts, products, checkout)

	return fixture{router: router, token: token, product: product}
}

func (f fixture) do(t *testing.T, method string, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	r.Header.Set(inHttp.KeyHeaderAuthorization, "Bearer "+f.token)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, r)
	return w
}

func decodeCart(t *testing.T, w *httptest.ResponseRecorder) response.Cart {
	t.Helper()
	body := envelope[cartData]{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body.Data.Cart
}

func TestGetCartWithoutTokenIsUnauthorized(t *testing.T) {
	f := setup(t)
	r := httptest.NewRequest(http.MethodGet, "/carts", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetEmptyCart(t *testing.T) {
	f := setup(t)

	w := f.do(t, http.MethodGet, "/carts", "")
	require.Equal(t, http.StatusOK, w.Code)
	cart := decodeCart(t, w)
	assert.Equal(t, "owner@example.com", cart.OwnerID)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.Total.IsZero())
}

func TestAddItem(t *testing.T) {
	tests := []struct {
		name     string
		body     func(f fixture) string
		expected int
	}{
		{
			name:     "given existing product should add it to cart",
			body:     func(f fixture) string { return `{"productId":"` + f.product.ID + `"}` },
			expected: http.StatusOK,
		},
		{
			name:     "given unknown product should return 404",
			body:     func(fixture) string { return `{"productId":"missing"}` },
			expected: http.StatusNotFound,
		},
		{
			name:     "given empty product id should return 400",
			body:     func(fixture) string { return `{"productId":""}` },
			expected: http.StatusBadRequest,
		},
		{
			name:     "given malformed body should return 400",
			body:     func(fixture) string { return `{"productId":` },
			expected: http.StatusBadRequest,
		},
		{
			name:     "given empty body should return 400",
			body:     func(fixture) string { return `` },
			expected: http.StatusBadRequest,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f := setup(t)
			w := f.do(t, http.MethodPost, "/carts/items", test.body(f))
			assert.Equal(t, test.expected, w.Code)
			if test.expected != http.StatusOK {
				return
			}
			cart := decodeCart(t, w)
			require.Len(t, cart.Items, 1)
			assert.Equal(t, f.product.ID, cart.Items[0].ProductID)
			assert.Equal(t, 1, cart.Items[0].Quantity)
			assert.True(t, decimal.NewFromInt(10).Equal(cart.Total))
		})
	}
}

func TestSetQuantityAndRemoveItem(t *testing.T) {
	f := setup(t)
	itemPath := "/carts/items/" + f.product.ID

	w := f.do(t, http.MethodPut, itemPath, `{"quantity":3}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodPost, "/carts/items", `{"productId":"`+f.product.ID+`"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPut, itemPath, `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPut, itemPath, `{"quantity":3}`)
	require.Equal(t, http.StatusOK, w.Code)
	cart := decodeCart(t, w)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.True(t, decimal.NewFromInt(30).Equal(cart.Total))

	w = f.do(t, http.MethodPut, "/carts/items/missing", `{"quantity":3}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodDelete, itemPath, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeCart(t, w).Items)

	w = f.do(t, http.MethodDelete, itemPath, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCheckout(t *testing.T) {
	f := setup(t)

	w := f.do(t, http.MethodPost, "/carts/checkout", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/carts/items", `{"productId":"`+f.product.ID+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	w = f.do(t, http.MethodPost, "/carts/items", `{"productId":"`+f.product.ID+`"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPost, "/carts/checkout", "")
	require.Equal(t, http.StatusCreated, w.Code)
	body := envelope[invoiceData]{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, inHttp.StatusSuccess, body.Status)
	assert.NotEmpty(t, body.Data.Invoice.ID)
	assert.Equal(t, "owner@example.com", body.Data.Invoice.OwnerID)
	assert.True(t, decimal.NewFromInt(20).Equal(body.Data.Invoice.Total))

	w = f.do(t, http.MethodGet, "/carts", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeCart(t, w).Items)
}
