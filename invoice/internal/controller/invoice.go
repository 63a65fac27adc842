package controller

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/auth"
	inErrors "github.com/Alturino/storefront/internal/errors"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/model"
	"github.com/Alturino/storefront/internal/otel"
)

type InvoiceLister interface {
	ListByOwner(c context.Context, ownerID string) ([]model.Invoice, error)
}

type InvoiceController struct {
	invoices InvoiceLister
}

func AttachInvoiceController(router *mux.Router, invoices InvoiceLister) {
	controller := InvoiceController{invoices: invoices}

	r := router.PathPrefix("/invoices").Subrouter()
	r.HandleFunc("", controller.GetInvoices).Methods(http.MethodGet)
}

func (ctrl InvoiceController) GetInvoices(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "InvoiceController GetInvoices")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "InvoiceController GetInvoices").Logger()

	ownerID, err := auth.OwnerIDFromContext(c)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return
	}

	logger = logger.With().
		Str(log.KeyProcess, "listing invoices").
		Str(log.KeyOwnerID, ownerID).
		Logger()
	logger.Info().Msg("listing invoices")
	c = logger.WithContext(c)
	invoices, err := ctrl.invoices.ListByOwner(c, ownerID)
	if err != nil {
		err = fmt.Errorf("failed listing invoices with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return
	}
	logger.Info().Int(log.KeyInvoices, len(invoices)).Msg("listed invoices")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     inHttp.StatusSuccess,
		"statusCode": http.StatusOK,
		"message":    "successfully got invoices",
		"data": map[string]interface{}{
			"invoices": invoices,
		},
	})
}
