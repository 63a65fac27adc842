package controller

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/cart/pkg/request"
	"github.com/Alturino/storefront/cart/pkg/response"
	"github.com/Alturino/storefront/internal/auth"
	inErrors "github.com/Alturino/storefront/internal/errors"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/model"
	"github.com/Alturino/storefront/internal/otel"
)

type CartRepository interface {
	Get(c context.Context, ownerID string) ([]model.LineItem, error)
	AddItem(c context.Context, ownerID string, product model.Product) ([]model.LineItem, error)
	SetQuantity(c context.Context, ownerID string, productID string, quantity int) ([]model.LineItem, error)
	RemoveItem(c context.Context, ownerID string, productID string) ([]model.LineItem, error)
}

type ProductFinder interface {
	Find(c context.Context, productID string) (model.Product, error)
}

type CheckoutService interface {
	Checkout(c context.Context, ownerID string) (model.Invoice, error)
}

type CartController struct {
	carts    CartRepository
	products ProductFinder
	checkout CheckoutService
}

// AttachCartController mounts the cart routes on router. router is expected to run Auth already.
func AttachCartController(
	router *mux.Router,
	carts CartRepository,
	products ProductFinder,
	checkout CheckoutService,
) {
	controller := CartController{carts: carts, products: products, checkout: checkout}

	r := router.PathPrefix("/carts").Subrouter()
	r.HandleFunc("", controller.GetCart).Methods(http.MethodGet)
	r.HandleFunc("/items", controller.AddItem).Methods(http.MethodPost)
	r.HandleFunc("/items/{productId}", controller.SetQuantity).Methods(http.MethodPut)
	r.HandleFunc("/items/{productId}", controller.RemoveItem).Methods(http.MethodDelete)
	r.HandleFunc("/checkout", controller.Checkout).Methods(http.MethodPost)
}

func (ctrl CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController GetCart")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "CartController GetCart").Logger()

	ownerID, ok := ownerFromRequest(c, w)
	if !ok {
		return
	}

	logger = logger.With().Str(log.KeyProcess, "getting cart").Logger()
	logger.Info().Msg("getting cart")
	c = logger.WithContext(c)
	items, err := ctrl.carts.Get(c, ownerID)
	if err != nil {
		err = fmt.Errorf("failed getting cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return
	}
	logger.Info().Msg("got cart")

	writeCart(c, w, http.StatusOK, "successfully got cart", ownerID, items)
}

func (ctrl CartController) AddItem(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController AddItem")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "CartController AddItem").Logger()

	ownerID, ok := ownerFromRequest(c, w)
	if !ok {
		return
	}

	logger = logger.With().Str(log.KeyProcess, "decoding request body").Logger()
	logger.Info().Msg("decoding request body")
	reqBody := request.AddItem{}
	if err := inHttp.DecodeJson(c, r, &reqBody); err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return
	}
	logger = logger.With().Str(log.KeyProductID, reqBody.ProductID).Logger()
	logger.Info().Msg("decoded request body")

	logger = logger.With().Str(log.KeyProcess, "finding product").Logger()
	logger.Info().Msg("finding product")
	c = logger.WithContext(c)
	product, err := ctrl.products.Find(c, reqBody.ProductID)
	if err != nil {
		err = fmt.Errorf("failed finding product with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return
	}
	logger.Info().Msg("found product")

	logger = logger.With().Str(log.KeyProcess, "adding item").Logger()
	logger.Info().Msg("adding item")
	c = logger.WithContext(c)
	items, err := ctrl.carts.AddItem(c, ownerID, product)
	if err != nil {
		err = fmt.Errorf("failed adding item with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return
	}
	logger.Info().Msg("added item")

	writeCart(c, w, http.StatusOK, "successfully added item to cart", ownerID, items)
}

func (ctrl CartController) SetQuantity(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController SetQuantity")
	defer span.End()

	productID := mux.Vars(r)["productId"]
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController SetQuantity").
		Str(log.KeyProductID, productID).
		Logger()

	ownerID, ok := ownerFromRequest(c, w)
	if !ok {
		return
	}

	logger = logger.With().Str(log.KeyProcess, "decoding request body").Logger()
	reqBody := request.SetQuantity{}
	if err := inHttp.DecodeJson(c, r, &reqBody); err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return
	}

	logger = logger.With().
		Str(log.KeyProcess, "setting quantity").
		Int(log.KeyQuantity, *reqBody.Quantity).
		Logger()
	logger.Info().Msg("setting quantity")
	c = logger.WithContext(c)
	items, err := ctrl.carts.SetQuantity(c, ownerID, productID, *reqBody.Quantity)
	if err != nil {
		err = fmt.Errorf("failed setting quantity with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return
	}
	logger.Info().Msg("set quantity")

	writeCart(c, w, http.StatusOK, "successfully updated cart item", ownerID, items)
}

func (ctrl CartController) RemoveItem(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController RemoveItem")
	defer span.End()

	productID := mux.Vars(r)["productId"]
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController RemoveItem").
		Str(log.KeyProductID, productID).
		Logger()

	ownerID, ok := ownerFromRequest(c, w)
	if !ok {
		return
	}

	logger = logger.With().Str(log.KeyProcess, "removing item").Logger()
	logger.Info().Msg("removing item")
	c = logger.WithContext(c)
	items, err := ctrl.carts.RemoveItem(c, ownerID, productID)
	if err != nil {
		err = fmt.Errorf("failed removing item with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return
	}
	logger.Info().Msg("removed item")

	writeCart(c, w, http.StatusOK, "successfully removed cart item", ownerID, items)
}

func (ctrl CartController) Checkout(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController Checkout")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "CartController Checkout").Logger()

	ownerID, ok := ownerFromRequest(c, w)
	if !ok {
		return
	}

	logger = logger.With().Str(log.KeyProcess, "checking out cart").Logger()
	logger.Info().Msg("checking out cart")
	c = logger.WithContext(c)
	invoice, err := ctrl.checkout.Checkout(c, ownerID)
	if err != nil {
		err = fmt.Errorf("failed checking out cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return
	}
	logger.Info().Str(log.KeyInvoiceID, invoice.ID).Msg("checked out cart")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     inHttp.StatusSuccess,
		"statusCode": http.StatusCreated,
		"message":    "successfully checked out cart",
		"data": map[string]interface{}{
			"invoice": invoice,
		},
	})
}

func ownerFromRequest(c context.Context, w http.ResponseWriter) (string, bool) {
	ownerID, err := auth.OwnerIDFromContext(c)
	if err != nil {
		zerolog.Ctx(c).Error().Err(err).Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return "", false
	}
	return ownerID, true
}

func writeCart(
	c context.Context,
	w http.ResponseWriter,
	statusCode int,
	message string,
	ownerID string,
	items []model.LineItem,
) {
	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     inHttp.StatusSuccess,
		"statusCode": statusCode,
		"message":    message,
		"data": map[string]interface{}{
			"cart": response.NewCart(ownerID, items),
		},
	})
}
