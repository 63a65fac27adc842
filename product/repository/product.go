package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/model"
	"github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/store"
	"github.com/Alturino/storefront/product/pkg/request"
)

type ProductRepository struct {
	products store.Collection[model.Product]
	now      func() time.Time
}

func NewProductRepository(s store.Store) *ProductRepository {
	return &ProductRepository{
		products: store.NewCollection[model.Product](s, store.CollectionProducts),
		now:      time.Now,
	}
}

func (r *ProductRepository) List(c context.Context) ([]model.Product, error) {
	c, span := otel.Tracer.Start(c, "ProductRepository List")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "ProductRepository List").Logger()

	products, err := r.products.LoadAll(c)
	if err != nil {
		err = fmt.Errorf("failed listing products with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Debug().Int(log.KeyProducts, len(products)).Msg("listed products")

	return products, nil
}

func (r *ProductRepository) Find(c context.Context, productID string) (model.Product, error) {
	c, span := otel.Tracer.Start(c, "ProductRepository Find")
	defer span.End()

	products, err := r.List(c)
	if err != nil {
		return model.Product{}, err
	}
	for _, product := range products {
		if product.ID == productID {
			return product, nil
		}
	}

	err = fmt.Errorf("failed finding productId=%s with error=%w", productID, inErrors.ErrProductNotFound)
	inErrors.HandleError(err, span)
	return model.Product{}, err
}

func (r *ProductRepository) Create(c context.Context, param request.Product) (model.Product, error) {
	c, span := otel.Tracer.Start(c, "ProductRepository Create")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductRepository Create").
		Logger()

	id, err := uuid.NewV7()
	if err != nil {
		err = fmt.Errorf("failed generating product id with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return model.Product{}, err
	}
	product := model.Product{
		ID:          id.String(),
		Name:        param.Name,
		Description: param.Description,
		Price:       param.Price,
		ImageRef:    param.ImageRef,
		CreatedAt:   r.now().UTC(),
	}

	logger = logger.With().
		Str(log.KeyProcess, "inserting product").
		Str(log.KeyProductID, product.ID).
		Logger()
	logger.Info().Msg("inserting product")
	err = r.products.Update(c, func(products []model.Product) ([]model.Product, error) {
		return append(products, product), nil
	})
	if err != nil {
		err = fmt.Errorf("failed inserting product with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return model.Product{}, err
	}
	logger.Info().Msg("inserted product")

	return product, nil
}
