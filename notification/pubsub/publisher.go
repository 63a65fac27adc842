package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/model"
	"github.com/Alturino/storefront/internal/otel"
)

const ChannelInvoiceCreated = "invoice.created"

type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) PublishInvoiceCreated(c context.Context, event model.InvoiceCreated) error {
	c, span := otel.Tracer.Start(c, "RedisPublisher PublishInvoiceCreated")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "RedisPublisher PublishInvoiceCreated").
		Str(log.KeyChannel, ChannelInvoiceCreated).
		Str(log.KeyInvoiceID, event.InvoiceID).
		Logger()

	payload, err := json.Marshal(event)
	if err != nil {
		err = fmt.Errorf("failed marshaling invoiceId=%s with error=%w", event.InvoiceID, err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	receivers, err := p.client.Publish(c, ChannelInvoiceCreated, payload).Result()
	if err != nil {
		err = fmt.Errorf("failed publishing invoiceId=%s to channel=%s with error=%w", event.InvoiceID, ChannelInvoiceCreated, err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Debug().Int64("receivers", receivers).Msg("published event")

	return nil
}
