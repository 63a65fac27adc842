package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/lock"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/metrics"
	"github.com/Alturino/storefront/internal/model"
	"github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/store"
)

const (
	OperationAdd         = "add"
	OperationSetQuantity = "set_quantity"
	OperationRemove      = "remove"
	OperationClear       = "clear"
)

// errUnchanged aborts a collection update that has nothing to write.
var errUnchanged = errors.New("cart unchanged")

// CartRepository owns every cart of the carts collection. Each mutation holds the owner's lock
// for its whole read-modify-write, so concurrent requests of one owner never lose an update.
type CartRepository struct {
	carts store.Collection[model.Cart]
	locks *lock.Keyed
	now   func() time.Time
}

func NewCartRepository(s store.Store, locks *lock.Keyed) *CartRepository {
	return &CartRepository{
		carts: store.NewCollection[model.Cart](s, store.CollectionCarts),
		locks: locks,
		now:   time.Now,
	}
}

// Session is handed to Locked callbacks. Its methods assume the owner's lock is already held.
type Session struct {
	repo    *CartRepository
	ownerID string
}

func (s Session) Cart(c context.Context) (model.Cart, bool, error) {
	return s.repo.find(c, s.ownerID)
}

func (s Session) Clear(c context.Context) error {
	_, err := s.repo.clear(c, s.ownerID)
	return err
}

// Locked runs fn while holding ownerID's lock, the same lock every cart mutation takes.
func (r *CartRepository) Locked(
	c context.Context,
	ownerID string,
	fn func(c context.Context, session Session) error,
) error {
	unlock := r.locks.Lock(ownerID)
	defer unlock()
	return fn(c, Session{repo: r, ownerID: ownerID})
}

// Get returns the owner's items, or an empty slice when the owner has no cart.
func (r *CartRepository) Get(c context.Context, ownerID string) ([]model.LineItem, error) {
	cart, found, err := r.Find(c, ownerID)
	if err != nil {
		return nil, err
	}
	if !found {
		return []model.LineItem{}, nil
	}
	return cart.Items, nil
}

func (r *CartRepository) Find(c context.Context, ownerID string) (model.Cart, bool, error) {
	return r.find(c, ownerID)
}

func (r *CartRepository) find(c context.Context, ownerID string) (model.Cart, bool, error) {
	c, span := otel.Tracer.Start(c, "CartRepository Find")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartRepository Find").
		Str(log.KeyOwnerID, ownerID).
		Logger()

	carts, err := r.carts.LoadAll(c)
	if err != nil {
		err = fmt.Errorf("failed finding cart ownerId=%s with error=%w", ownerID, err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return model.Cart{}, false, err
	}

	i := indexOfOwner(carts, ownerID)
	if i < 0 {
		logger.Debug().Msg("cart not found")
		return model.Cart{}, false, nil
	}
	cart := carts[i]
	if cart.Items == nil {
		cart.Items = []model.LineItem{}
	}
	return cart, true, nil
}

// AddItem puts one unit of product in the owner's cart, creating the cart when needed.
// Adding a product already in the cart increments its quantity instead of adding a second entry.
func (r *CartRepository) AddItem(
	c context.Context,
	ownerID string,
	product model.Product,
) ([]model.LineItem, error) {
	c, span := otel.Tracer.Start(c, "CartRepository AddItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartRepository AddItem").
		Str(log.KeyOwnerID, ownerID).
		Str(log.KeyProductID, product.ID).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "adding item to cart").Logger()
	logger.Info().Msg("adding item to cart")
	c = logger.WithContext(c)
	items, err := r.mutate(c, ownerID, OperationAdd, func(cart *model.Cart, found bool) error {
		if i := cart.IndexOf(product.ID); i >= 0 {
			cart.Items[i].Quantity++
			return nil
		}
		cart.Items = append(cart.Items, product.LineItem(1))
		return nil
	})
	if err != nil {
		err = fmt.Errorf("failed adding productId=%s to cart ownerId=%s with error=%w", product.ID, ownerID, err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Info().Int(log.KeyCartItemsCount, len(items)).Msg("added item to cart")

	return items, nil
}

// SetQuantity replaces the quantity of productID. A quantity of zero or less removes the item.
func (r *CartRepository) SetQuantity(
	c context.Context,
	ownerID string,
	productID string,
	quantity int,
) ([]model.LineItem, error) {
	c, span := otel.Tracer.Start(c, "CartRepository SetQuantity")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartRepository SetQuantity").
		Str(log.KeyOwnerID, ownerID).
		Str(log.KeyProductID, productID).
		Int(log.KeyQuantity, quantity).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "setting item quantity").Logger()
	logger.Info().Msg("setting item quantity")
	c = logger.WithContext(c)
	items, err := r.mutate(c, ownerID, OperationSetQuantity, func(cart *model.Cart, found bool) error {
		if !found {
			return inErrors.ErrCartNotFound
		}
		i := cart.IndexOf(productID)
		if i < 0 {
			return inErrors.ErrItemNotFound
		}
		if quantity <= 0 {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			return nil
		}
		if cart.Items[i].Quantity == quantity {
			return errUnchanged
		}
		cart.Items[i].Quantity = quantity
		return nil
	})
	if err != nil {
		err = fmt.Errorf("failed setting quantity of productId=%s in cart ownerId=%s with error=%w", productID, ownerID, err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Info().Msg("set item quantity")

	return items, nil
}

// RemoveItem drops productID from the cart. Removing from a missing cart or a missing item is a no-op.
func (r *CartRepository) RemoveItem(
	c context.Context,
	ownerID string,
	productID string,
) ([]model.LineItem, error) {
	c, span := otel.Tracer.Start(c, "CartRepository RemoveItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartRepository RemoveItem").
		Str(log.KeyOwnerID, ownerID).
		Str(log.KeyProductID, productID).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "removing item from cart").Logger()
	logger.Info().Msg("removing item from cart")
	c = logger.WithContext(c)
	items, err := r.mutate(c, ownerID, OperationRemove, func(cart *model.Cart, found bool) error {
		i := cart.IndexOf(productID)
		if !found || i < 0 {
			return errUnchanged
		}
		cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
		return nil
	})
	if err != nil {
		err = fmt.Errorf("failed removing productId=%s from cart ownerId=%s with error=%w", productID, ownerID, err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Info().Msg("removed item from cart")

	return items, nil
}

// Clear empties the owner's cart. No cart is created for an owner that has none.
func (r *CartRepository) Clear(c context.Context, ownerID string) ([]model.LineItem, error) {
	unlock := r.locks.Lock(ownerID)
	defer unlock()
	return r.clear(c, ownerID)
}

func (r *CartRepository) clear(c context.Context, ownerID string) ([]model.LineItem, error) {
	c, span := otel.Tracer.Start(c, "CartRepository Clear")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartRepository Clear").
		Str(log.KeyOwnerID, ownerID).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "clearing cart").Logger()
	logger.Info().Msg("clearing cart")
	c = logger.WithContext(c)
	items, err := r.update(c, ownerID, OperationClear, func(cart *model.Cart, found bool) error {
		if !found || len(cart.Items) == 0 {
			return errUnchanged
		}
		cart.Items = []model.LineItem{}
		return nil
	})
	if err != nil {
		err = fmt.Errorf("failed clearing cart ownerId=%s with error=%w", ownerID, err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Info().Msg("cleared cart")

	return items, nil
}

// mutate takes the owner's lock and applies change through update.
func (r *CartRepository) mutate(
	c context.Context,
	ownerID string,
	operation string,
	change func(cart *model.Cart, found bool) error,
) ([]model.LineItem, error) {
	unlock := r.locks.Lock(ownerID)
	defer unlock()
	return r.update(c, ownerID, operation, change)
}

// update loads the carts collection, applies change to the owner's cart and persists the result.
// found reports whether the owner already had a cart. Returning errUnchanged skips the write.
func (r *CartRepository) update(
	c context.Context,
	ownerID string,
	operation string,
	change func(cart *model.Cart, found bool) error,
) ([]model.LineItem, error) {
	var items []model.LineItem
	err := r.carts.Update(c, func(carts []model.Cart) ([]model.Cart, error) {
		i := indexOfOwner(carts, ownerID)

		cart := model.Cart{OwnerID: ownerID, Items: []model.LineItem{}}
		if i >= 0 {
			cart = carts[i]
			cart.Items = model.CopyItems(cart.Items)
		}

		if err := change(&cart, i >= 0); err != nil {
			items = model.CopyItems(cart.Items)
			return nil, err
		}

		cart.Revision++
		cart.UpdatedAt = r.now().UTC()
		if i >= 0 {
			carts[i] = cart
		} else {
			carts = append(carts, cart)
		}
		items = model.CopyItems(cart.Items)
		return carts, nil
	})
	if errors.Is(err, errUnchanged) {
		return items, nil
	}
	if err != nil {
		return nil, err
	}
	metrics.CartMutations.WithLabelValues(operation).Inc()
	zerolog.Ctx(c).Debug().Any(log.KeyCartItems, items).Msg("persisted cart")

	return items, nil
}

func indexOfOwner(carts []model.Cart, ownerID string) int {
	for i, cart := range carts {
		if cart.OwnerID == ownerID {
			return i
		}
	}
	return -1
}
