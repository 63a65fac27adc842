package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/cart/repository"
	"github.com/Alturino/storefront/invoice/ledger"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/metrics"
	"github.com/Alturino/storefront/internal/model"
	"github.com/Alturino/storefront/internal/otel"
)

// Publisher announces invoices once they are durable.
type Publisher interface {
	PublishInvoiceCreated(c context.Context, event model.InvoiceCreated) error
}

type CheckoutService struct {
	carts     *repository.CartRepository
	ledger    *ledger.Ledger
	publisher Publisher
}

// NewCheckoutService builds the coordinator. publisher may be nil when notifications are disabled.
func NewCheckoutService(
	carts *repository.CartRepository,
	ledger *ledger.Ledger,
	publisher Publisher,
) *CheckoutService {
	return &CheckoutService{carts: carts, ledger: ledger, publisher: publisher}
}

// CheckoutKey identifies one purchase attempt of a cart. It stays the same until the cart changes.
func CheckoutKey(cart model.Cart) string {
	return fmt.Sprintf("%s:%d", cart.OwnerID, cart.Revision)
}

// Checkout turns the owner's cart into an invoice and empties the cart.
//
// The invoice is durable before the cart is cleared. If a previous attempt stopped between the two,
// the cart still carries the same revision, so the existing invoice is returned and the cart cleared.
func (svc *CheckoutService) Checkout(c context.Context, ownerID string) (model.Invoice, error) {
	c, span := otel.Tracer.Start(c, "CheckoutService Checkout")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutService Checkout").
		Str(log.KeyOwnerID, ownerID).
		Logger()

	var invoice model.Invoice
	created := false
	err := svc.carts.Locked(c, ownerID, func(c context.Context, session repository.Session) error {
		logger = logger.With().Str(log.KeyProcess, "reading cart").Logger()
		logger.Info().Msg("reading cart")
		cart, found, err := session.Cart(c)
		if err != nil {
			return err
		}
		if !found || len(cart.Items) == 0 {
			return inErrors.ErrEmptyCart
		}
		checkoutKey := CheckoutKey(cart)
		logger = logger.With().
			Uint64(log.KeyCartRevision, cart.Revision).
			Str(log.KeyCheckoutKey, checkoutKey).
			Logger()
		logger.Info().Msg("read cart")

		logger = logger.With().Str(log.KeyProcess, "appending invoice").Logger()
		logger.Info().Msg("appending invoice")
		c = logger.WithContext(c)
		invoice, created, err = svc.ledger.AppendOnce(c, ownerID, checkoutKey, cart.Items)
		if err != nil {
			return err
		}
		logger = logger.With().Str(log.KeyInvoiceID, invoice.ID).Logger()
		logger.Info().Bool("created", created).Msg("appended invoice")

		logger = logger.With().Str(log.KeyProcess, "clearing cart").Logger()
		logger.Info().Msg("clearing cart")
		c = logger.WithContext(c)
		if err := session.Clear(c); err != nil {
			return err
		}
		logger.Info().Msg("cleared cart")

		return nil
	})
	if err != nil {
		result := metrics.ResultFailed
		if errors.Is(err, inErrors.ErrEmptyCart) {
			result = metrics.ResultEmpty
		}
		metrics.Checkouts.WithLabelValues(result).Inc()

		err = fmt.Errorf("failed checkout cart ownerId=%s with error=%w", ownerID, err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return model.Invoice{}, err
	}

	if created {
		metrics.Checkouts.WithLabelValues(metrics.ResultSuccess).Inc()
		metrics.InvoiceTotal.Add(invoice.Total.InexactFloat64())
	} else {
		metrics.Checkouts.WithLabelValues(metrics.ResultRecovered).Inc()
	}

	svc.publish(logger.WithContext(c), invoice)

	return invoice, nil
}

// publish is best-effort. The invoice is already committed, so a failure is only logged.
func (svc *CheckoutService) publish(c context.Context, invoice model.Invoice) {
	if svc.publisher == nil {
		return
	}
	c, span := otel.Tracer.Start(c, "CheckoutService publish")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyProcess, "publishing invoice created").Logger()
	logger.Info().Msg("publishing invoice created")
	if err := svc.publisher.PublishInvoiceCreated(c, invoice.Created()); err != nil {
		err = fmt.Errorf("failed publishing invoice created with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Warn().Err(err).Msg(err.Error())
		return
	}
	logger.Info().Msg("published invoice created")
}
