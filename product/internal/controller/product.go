package controller

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	inErrors "github.com/Alturino/storefront/internal/errors"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/model"
	"github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/product/pkg/request"
)

type ProductRepository interface {
	List(c context.Context) ([]model.Product, error)
	Find(c context.Context, productID string) (model.Product, error)
	Create(c context.Context, param request.Product) (model.Product, error)
}

type ProductController struct {
	products ProductRepository
}

// AttachProductController mounts the catalog routes. Reads are public, creating a product runs
// through guards.
func AttachProductController(
	router *mux.Router,
	products ProductRepository,
	guards ...mux.MiddlewareFunc,
) {
	controller := ProductController{products: products}

	r := router.PathPrefix("/products").Subrouter()
	r.HandleFunc("", controller.GetProducts).Methods(http.MethodGet)
	r.HandleFunc("/{productId}", controller.FindProductById).Methods(http.MethodGet)

	postRouter := router.PathPrefix("/products").Methods(http.MethodPost).Subrouter()
	postRouter.Use(guards...)
	postRouter.HandleFunc("", controller.InsertProduct).Methods(http.MethodPost)
}

func (ctrl ProductController) InsertProduct(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController InsertProduct")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductController InsertProduct").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "decoding request body").Logger()
	logger.Trace().Msg("decoding request body")
	span.AddEvent("decoding request body")
	reqBody := request.Product{}
	err := inHttp.DecodeJson(c, r, &reqBody)
	if err == nil {
		err = reqBody.Validate()
	}
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return
	}
	span.AddEvent("decoded request body")
	logger.Trace().Msg("decoded request body")

	logger = logger.With().Str(log.KeyProcess, "inserting product").Logger()
	logger.Info().Msg("inserting product")
	c = logger.WithContext(c)
	product, err := ctrl.products.Create(c, reqBody)
	if err != nil {
		err = fmt.Errorf("failed inserting product with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return
	}
	span.SetAttributes(attribute.String(log.KeyProductID, product.ID))
	logger.Info().Str(log.KeyProductID, product.ID).Msg("inserted product")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     inHttp.StatusSuccess,
		"statusCode": http.StatusCreated,
		"message":    "successfully inserted product",
		"data": map[string]interface{}{
			"product": product,
		},
	})
}

func (ctrl ProductController) GetProducts(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController GetProducts")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductController GetProducts").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "get products").Logger()
	logger.Trace().Msg("get products")
	span.AddEvent("get products")
	c = logger.WithContext(c)
	products, err := ctrl.products.List(c)
	if err != nil {
		err = fmt.Errorf("failed get products with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return
	}
	span.AddEvent("got products")
	logger.Info().Int(log.KeyProducts, len(products)).Msg("got products")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     inHttp.StatusSuccess,
		"statusCode": http.StatusOK,
		"message":    "products found",
		"data": map[string]interface{}{
			"products": products,
		},
	})
}

func (ctrl ProductController) FindProductById(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController FindProductById")
	defer span.End()

	id := mux.Vars(r)["productId"]
	span.SetAttributes(attribute.String(log.KeyProductID, id))
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductController FindProductById").
		Str(log.KeyProductID, id).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding product").Logger()
	logger.Trace().Msg("finding product")
	span.AddEvent("finding product")
	c = logger.WithContext(c)
	product, err := ctrl.products.Find(c, id)
	if err != nil {
		err = fmt.Errorf("failed finding product with id=%s with error=%w", id, err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return
	}
	span.AddEvent("found product")
	logger.Info().Msg("found product")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     inHttp.StatusSuccess,
		"statusCode": http.StatusOK,
		"message":    fmt.Sprintf("product id=%s found", id),
		"data": map[string]interface{}{
			"product": product,
		},
	})
}
