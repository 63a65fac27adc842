package cmd

import (
	"context"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/invoice/internal/controller"
	"github.com/Alturino/storefront/invoice/ledger"
)

// AttachInvoiceService mounts the purchase history routes. router must already authenticate.
func AttachInvoiceService(c context.Context, router *mux.Router, invoices *ledger.Ledger) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "main AttachInvoiceService").
		Str(log.KeyProcess, "attaching invoice controller").
		Logger()

	logger.Info().Msg("attaching invoice controller")
	controller.AttachInvoiceController(router, invoices)
	logger.Info().Msg("attached invoice controller")
}
