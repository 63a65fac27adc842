package infra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/Alturino/storefront/internal/config"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

const pingTimeout = 5 * time.Second

// NewCacheClient connects the redis client that carries invoice events. The client is traced and
// metered through redisotel and is only returned once redis answers a ping.
func NewCacheClient(c context.Context, cacheConfig config.Cache) (*redis.Client, error) {
	c, span := otel.Tracer.Start(c, "main NewCacheClient")
	defer span.End()

	addr := fmt.Sprintf("%s:%d", cacheConfig.Host, cacheConfig.Port)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "main NewCacheClient").
		Str("addr", addr).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "initializing redis client").Logger()
	logger.Info().Msg("initializing redis client")
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cacheConfig.Password,
		DB:       cacheConfig.Database,
	})
	logger.Info().Msg("initialized redis client")

	logger = logger.With().Str(log.KeyProcess, "instrumenting redis client").Logger()
	logger.Info().Msg("instrumenting redis client")
	err := errors.Join(
		redisotel.InstrumentTracing(client, redisotel.WithAttributes(semconv.DBSystemRedis)),
		redisotel.InstrumentMetrics(client, redisotel.WithAttributes(semconv.DBSystemRedis)),
	)
	if err != nil {
		err = fmt.Errorf("failed instrumenting redis client with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		client.Close()
		return nil, err
	}
	logger.Info().Msg("instrumented redis client")

	logger = logger.With().Str(log.KeyProcess, "pinging connection to redis").Logger()
	logger.Info().Msg("pinging connection to redis")
	pingCtx, cancel := context.WithTimeout(c, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		err = fmt.Errorf("failed pinging redis at addr=%s with error=%w", addr, err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		client.Close()
		return nil, err
	}
	logger.Info().Msg("pinged connection to redis")

	return client, nil
}
