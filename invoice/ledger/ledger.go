// Package ledger is the append-only record of invoices. Invoices are never edited or deleted.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/model"
	"github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/store"
)

// errExists aborts an append whose checkout key is already recorded.
var errExists = errors.New("invoice exists for checkout key")

type Ledger struct {
	invoices store.Collection[model.Invoice]
	now      func() time.Time
	newID    func() (uuid.UUID, error)
}

func NewLedger(s store.Store) *Ledger {
	return &Ledger{
		invoices: store.NewCollection[model.Invoice](s, store.CollectionInvoices),
		now:      time.Now,
		newID:    uuid.NewV7,
	}
}

// Append records a new invoice for items. The total is always computed here.
func (l *Ledger) Append(c context.Context, ownerID string, items []model.LineItem) (model.Invoice, error) {
	invoice, _, err := l.append(c, ownerID, "", items)
	return invoice, err
}

// AppendOnce behaves like Append unless an invoice with checkoutKey already exists, in which case
// that invoice is returned with created set to false.
func (l *Ledger) AppendOnce(
	c context.Context,
	ownerID string,
	checkoutKey string,
	items []model.LineItem,
) (invoice model.Invoice, created bool, err error) {
	return l.append(c, ownerID, checkoutKey, items)
}

func (l *Ledger) append(
	c context.Context,
	ownerID string,
	checkoutKey string,
	items []model.LineItem,
) (model.Invoice, bool, error) {
	c, span := otel.Tracer.Start(c, "Ledger Append")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Ledger Append").
		Str(log.KeyOwnerID, ownerID).
		Str(log.KeyCheckoutKey, checkoutKey).
		Logger()

	if len(items) == 0 {
		err := fmt.Errorf("failed appending invoice ownerId=%s with error=%w", ownerID, inErrors.ErrEmptyPurchase)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return model.Invoice{}, false, err
	}

	logger = logger.With().Str(log.KeyProcess, "generating invoice id").Logger()
	id, err := l.newID()
	if err != nil {
		err = fmt.Errorf("failed generating invoice id with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return model.Invoice{}, false, err
	}

	invoice := model.Invoice{
		ID:          id.String(),
		OwnerID:     ownerID,
		Items:       model.CopyItems(items),
		Total:       model.Total(items),
		CreatedAt:   l.now().UTC(),
		CheckoutKey: checkoutKey,
	}

	logger = logger.With().
		Str(log.KeyProcess, "appending invoice").
		Str(log.KeyInvoiceID, invoice.ID).
		Str(log.KeyInvoiceTotal, invoice.Total.String()).
		Logger()
	logger.Info().Msg("appending invoice")
	err = l.invoices.Update(c, func(invoices []model.Invoice) ([]model.Invoice, error) {
		if checkoutKey != "" {
			for _, existing := range invoices {
				if existing.CheckoutKey == checkoutKey {
					invoice = existing
					return nil, errExists
				}
			}
		}
		return append(invoices, invoice), nil
	})
	if errors.Is(err, errExists) {
		logger.Info().Str(log.KeyInvoiceID, invoice.ID).Msg("invoice already appended for checkout key")
		return invoice, false, nil
	}
	if err != nil {
		err = fmt.Errorf("failed appending invoice ownerId=%s with error=%w", ownerID, err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return model.Invoice{}, false, err
	}
	logger.Info().Msg("appended invoice")

	return invoice, true, nil
}

// ListByOwner returns the owner's invoices in creation order.
func (l *Ledger) ListByOwner(c context.Context, ownerID string) ([]model.Invoice, error) {
	c, span := otel.Tracer.Start(c, "Ledger ListByOwner")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Ledger ListByOwner").
		Str(log.KeyOwnerID, ownerID).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "listing invoices").Logger()
	logger.Info().Msg("listing invoices")
	invoices, err := l.invoices.LoadAll(c)
	if err != nil {
		err = fmt.Errorf("failed listing invoices ownerId=%s with error=%w", ownerID, err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}

	owned := []model.Invoice{}
	for _, invoice := range invoices {
		if invoice.OwnerID == ownerID {
			owned = append(owned, invoice)
		}
	}
	logger.Info().Int(log.KeyInvoices, len(owned)).Msg("listed invoices")

	return owned, nil
}
