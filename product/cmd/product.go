package cmd

import (
	"context"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/product/internal/controller"
	"github.com/Alturino/storefront/product/repository"
)

// AttachProductService mounts the catalog routes. guards run before a product is created.
func AttachProductService(
	c context.Context,
	router *mux.Router,
	products *repository.ProductRepository,
	guards ...mux.MiddlewareFunc,
) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "main AttachProductService").
		Str(log.KeyProcess, "attaching product controller").
		Logger()

	logger.Info().Msg("attaching product controller")
	controller.AttachProductController(router, products, guards...)
	logger.Info().Msg("attached product controller")
}
