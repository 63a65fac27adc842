package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/Alturino/storefront/cart/repository"
	"github.com/Alturino/storefront/invoice/ledger"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/lock"
	"github.com/Alturino/storefront/internal/model"
	"github.com/Alturino/storefront/internal/store"
)

const owner = "owner@example.com"

var (
	book = model.Product{ID: "p1", Name: "Book", Price: decimal.NewFromInt(10)}
	pen  = model.Product{ID: "p2", Name: "Pen", Price: decimal.NewFromInt(5)}
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.InvoiceCreated
	err    error
}

func (p *recordingPublisher) PublishInvoiceCreated(c context.Context, event model.InvoiceCreated) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

type fixture struct {
	carts     *repository.CartRepository
	ledger    *ledger.Ledger
	publisher *recordingPublisher
	svc       *CheckoutService
}

func setup(t *testing.T) fixture {
	t.Helper()
	s := store.NewFileStore(t.TempDir())
	carts := repository.NewCartRepository(s, lock.NewKeyed())
	l := ledger.NewLedger(s)
	publisher := &recordingPublisher{}
	return fixture{
		carts:     carts,
		ledger:    l,
		publisher: publisher,
		svc:       NewCheckoutService(carts, l, publisher),
	}
}

func (f fixture) add(t *testing.T, products ...model.Product) {
	t.Helper()
	for _, product := range products {
		_, err := f.carts.AddItem(context.Background(), owner, product)
		require.NoError(t, err)
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, f fixture)
	}{
		{
			name:    "given no cart should return empty cart",
			prepare: func(t *testing.T, f fixture) {},
		},
		{
			name: "given emptied cart should return empty cart",
			prepare: func(t *testing.T, f fixture) {
				f.add(t, book)
				_, err := f.carts.RemoveItem(context.Background(), owner, book.ID)
				require.NoError(t, err)
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := context.Background()
			f := setup(t)
			test.prepare(t, f)

			_, err := f.svc.Checkout(c, owner)
			assert.ErrorIs(t, err, inErrors.ErrEmptyCart)

			invoices, err := f.ledger.ListByOwner(c, owner)
			require.NoError(t, err)
			assert.Empty(t, invoices, "no invoice should be created")
			assert.Empty(t, f.publisher.events)
		})
	}
}

func TestCheckout(t *testing.T) {
	c := context.Background()
	f := setup(t)
	f.add(t, book, book, pen)

	invoice, err := f.svc.Checkout(c, owner)
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(25).Equal(invoice.Total), "total=%s", invoice.Total)
	assert.Equal(t, owner, invoice.OwnerID)
	assert.Equal(t, []model.LineItem{book.LineItem(2), pen.LineItem(1)}, invoice.Items)

	items, err := f.carts.Get(c, owner)
	require.NoError(t, err)
	assert.Empty(t, items, "cart should be empty after checkout")

	invoices, err := f.ledger.ListByOwner(c, owner)
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, invoice.ID, invoices[0].ID)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, invoice.ID, f.publisher.events[0].InvoiceID)
	assert.Equal(t, 3, f.publisher.events[0].ItemCount)

	_, err = f.svc.Checkout(c, owner)
	assert.ErrorIs(t, err, inErrors.ErrEmptyCart, "checking out twice should fail the second time")
}

func TestCheckoutAgainAfterNewItems(t *testing.T) {
	c := context.Background()
	f := setup(t)

	f.add(t, book)
	first, err := f.svc.Checkout(c, owner)
	require.NoError(t, err)

	f.add(t, pen)
	second, err := f.svc.Checkout(c, owner)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, []model.LineItem{pen.LineItem(1)}, second.Items)

	invoices, err := f.ledger.ListByOwner(c, owner)
	require.NoError(t, err)
	assert.Len(t, invoices, 2)
}

func TestConcurrentCheckoutCreatesOneInvoice(t *testing.T) {
	c := context.Background()
	f := setup(t)
	f.add(t, book, pen)

	results := make([]error, 2)
	g, gc := errgroup.WithContext(c)
	for i := range results {
		g.Go(func() error {
			_, results[i] = f.svc.Checkout(gc, owner)
			return nil
		})
	}
	require.NoError(t, g.Wait())

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, inErrors.ErrEmptyCart)
	}
	assert.Equal(t, 1, succeeded)

	invoices, err := f.ledger.ListByOwner(c, owner)
	require.NoError(t, err)
	assert.Len(t, invoices, 1)

	items, err := f.carts.Get(c, owner)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCheckoutRecoversFromStopBetweenAppendAndClear(t *testing.T) {
	c := context.Background()
	f := setup(t)
	f.add(t, book, pen)

	cart, found, err := f.carts.Find(c, owner)
	require.NoError(t, err)
	require.True(t, found)
	orphan, created, err := f.ledger.AppendOnce(c, owner, CheckoutKey(cart), cart.Items)
	require.NoError(t, err)
	require.True(t, created)

	invoice, err := f.svc.Checkout(c, owner)
	require.NoError(t, err)
	assert.Equal(t, orphan.ID, invoice.ID, "the orphaned invoice should be returned")

	invoices, err := f.ledger.ListByOwner(c, owner)
	require.NoError(t, err)
	assert.Len(t, invoices, 1, "no second invoice should be created")

	items, err := f.carts.Get(c, owner)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCheckoutSucceedsWhenPublishFails(t *testing.T) {
	c := context.Background()
	f := setup(t)
	f.publisher.err = errors.New("redis down")
	f.add(t, book)

	invoice, err := f.svc.Checkout(c, owner)
	require.NoError(t, err)
	assert.NotEmpty(t, invoice.ID)

	items, err := f.carts.Get(c, owner)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCheckoutWithoutPublisher(t *testing.T) {
	c := context.Background()
	s := store.NewMemoryStore()
	carts := repository.NewCartRepository(s, lock.NewKeyed())
	svc := NewCheckoutService(carts, ledger.NewLedger(s), nil)

	_, err := carts.AddItem(c, owner, book)
	require.NoError(t, err)

	_, err = svc.Checkout(c, owner)
	assert.NoError(t, err)
}
