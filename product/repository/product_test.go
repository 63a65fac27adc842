package repository

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/store"
	"github.com/Alturino/storefront/product/pkg/request"
)

func TestCreateThenFind(t *testing.T) {
	c := context.Background()
	repo := NewProductRepository(store.NewMemoryStore())

	products, err := repo.List(c)
	require.NoError(t, err)
	assert.Empty(t, products)

	created, err := repo.Create(c, request.Product{Name: "Book", Price: decimal.RequireFromString("12.50")})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	found, err := repo.Find(c, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Book", found.Name)
	assert.True(t, decimal.RequireFromString("12.5").Equal(found.Price))

	products, err = repo.List(c)
	require.NoError(t, err)
	assert.Len(t, products, 1)
}

func TestFindMissingProduct(t *testing.T) {
	_, err := NewProductRepository(store.NewMemoryStore()).Find(context.Background(), "missing")
	assert.ErrorIs(t, err, inErrors.ErrProductNotFound)
}

func TestProductRequestValidate(t *testing.T) {
	assert.ErrorIs(t, request.Product{Name: "x", Price: decimal.NewFromInt(-1)}.Validate(), inErrors.ErrBadRequest)
	assert.NoError(t, request.Product{Name: "x", Price: decimal.Zero}.Validate())
}
