package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/model"
)

// ReceiptFunc is called once per received invoice.created event.
type ReceiptFunc func(c context.Context, event model.InvoiceCreated) error

type ReceiptWorker struct {
	client *redis.Client
	handle ReceiptFunc
}

func NewReceiptWorker(client *redis.Client, handle ReceiptFunc) *ReceiptWorker {
	if handle == nil {
		handle = LogReceipt
	}
	return &ReceiptWorker{client: client, handle: handle}
}

// LogReceipt writes a purchase receipt to the context logger.
func LogReceipt(c context.Context, event model.InvoiceCreated) error {
	zerolog.Ctx(c).Info().
		Str(log.KeyOwnerID, event.OwnerID).
		Str(log.KeyInvoiceID, event.InvoiceID).
		Str(log.KeyInvoiceTotal, event.Total.StringFixed(2)).
		Int(log.KeyCartItemsCount, event.ItemCount).
		Time("createdAt", event.CreatedAt).
		Msgf("receipt for %s: %d items, total %s", event.OwnerID, event.ItemCount, event.Total.StringFixed(2))
	return nil
}

// Subscribe registers the subscription before returning, so events published afterwards are
// delivered to Run.
func (wrk *ReceiptWorker) Subscribe(c context.Context) (*redis.PubSub, error) {
	sub := wrk.client.Subscribe(c, ChannelInvoiceCreated)
	if _, err := sub.Receive(c); err != nil {
		sub.Close()
		return nil, fmt.Errorf("failed subscribing to channel=%s with error=%w", ChannelInvoiceCreated, err)
	}
	return sub, nil
}

// Run consumes sub until c is cancelled or the subscription is closed.
func (wrk *ReceiptWorker) Run(c context.Context, sub *redis.PubSub, wg *sync.WaitGroup) {
	defer wg.Done()
	defer sub.Close()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ReceiptWorker Run").
		Str(log.KeyChannel, ChannelInvoiceCreated).
		Logger()

	logger.Info().Msg("start consuming events")
	messages := sub.Channel()
	for {
		select {
		case <-c.Done():
			logger.Info().Msg("stop consuming events")
			return
		case msg, ok := <-messages:
			if !ok {
				logger.Info().Msg("subscription closed")
				return
			}
			requestID := uuid.NewString()
			lg := logger.With().Str(log.KeyRequestID, requestID).Logger()
			mc := log.AttachRequestIDToContext(lg.WithContext(c), requestID)

			event := model.InvoiceCreated{}
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				err = fmt.Errorf("failed decoding event with error=%w", err)
				lg.Error().Err(err).Str(log.KeyEvent, msg.Payload).Msg(err.Error())
				continue
			}
			if err := wrk.handle(mc, event); err != nil {
				err = fmt.Errorf("failed handling invoiceId=%s with error=%w", event.InvoiceID, err)
				lg.Error().Err(err).Msg(err.Error())
			}
		}
	}
}
