package cmd

import (
	"context"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/cart/internal/controller"
	"github.com/Alturino/storefront/cart/repository"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/order/service"
	productRepository "github.com/Alturino/storefront/product/repository"
)

// AttachCartService mounts the cart and checkout routes. router must already authenticate.
func AttachCartService(
	c context.Context,
	router *mux.Router,
	carts *repository.CartRepository,
	products *productRepository.ProductRepository,
	checkout *service.CheckoutService,
) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "main AttachCartService").
		Str(log.KeyProcess, "attaching cart controller").
		Logger()

	logger.Info().Msg("attaching cart controller")
	controller.AttachCartController(router, carts, products, checkout)
	logger.Info().Msg("attached cart controller")
}
