package pubsub

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/storefront/internal/model"
)

func setupRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestPublishInvoiceCreatedDeliversToWorker(t *testing.T) {
	client, _ := setupRedis(t)
	c, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan model.InvoiceCreated, 1)
	worker := NewReceiptWorker(client, func(c context.Context, event model.InvoiceCreated) error {
		received <- event
		return nil
	})
	sub, err := worker.Subscribe(c)
	require.NoError(t, err)

	wg := &sync.WaitGroup{}
	wg.Add(1)
	go worker.Run(c, sub, wg)

	event := model.InvoiceCreated{
		InvoiceID: "0190a8b4-0000-7000-8000-000000000001",
		OwnerID:   "owner@example.com",
		Total:     decimal.NewFromInt(25),
		ItemCount: 3,
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, NewRedisPublisher(client).PublishInvoiceCreated(c, event))

	select {
	case actual := <-received:
		assert.Equal(t, event.InvoiceID, actual.InvoiceID)
		assert.Equal(t, event.OwnerID, actual.OwnerID)
		assert.True(t, event.Total.Equal(actual.Total))
		assert.Equal(t, event.ItemCount, actual.ItemCount)
		assert.True(t, event.CreatedAt.Equal(actual.CreatedAt))
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}

	cancel()
	wg.Wait()
}

func TestWorkerSkipsUndecodableEvents(t *testing.T) {
	client, mr := setupRedis(t)
	c, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan model.InvoiceCreated, 2)
	worker := NewReceiptWorker(client, func(c context.Context, event model.InvoiceCreated) error {
		received <- event
		return nil
	})
	sub, err := worker.Subscribe(c)
	require.NoError(t, err)

	wg := &sync.WaitGroup{}
	wg.Add(1)
	go worker.Run(c, sub, wg)

	mr.Publish(ChannelInvoiceCreated, "not json")
	require.NoError(t, NewRedisPublisher(client).PublishInvoiceCreated(c, model.InvoiceCreated{InvoiceID: "after"}))

	select {
	case actual := <-received:
		assert.Equal(t, "after", actual.InvoiceID)
	case <-time.After(2 * time.Second):
		t.Fatal("worker should keep consuming after a bad payload")
	}

	cancel()
	wg.Wait()
}

func TestPublishInvoiceCreatedFailsWhenRedisIsDown(t *testing.T) {
	client, mr := setupRedis(t)
	mr.Close()

	err := NewRedisPublisher(client).PublishInvoiceCreated(context.Background(), model.InvoiceCreated{InvoiceID: "x"})
	assert.Error(t, err)
}

func TestLogReceipt(t *testing.T) {
	assert.NoError(t, LogReceipt(context.Background(), model.InvoiceCreated{Total: decimal.NewFromInt(1)}))
}
