package cmd

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/config"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/infra"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/notification/pubsub"
)

const AppNotificationService = "notification-service"

// RunNotificationService consumes invoice events and writes receipts until c is cancelled.
func RunNotificationService(c context.Context, configName string) {
	c, span := otel.Tracer.Start(c, "RunNotificationService")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyAppName, AppNotificationService).
		Str(log.KeyTag, "main RunNotificationService").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "initializing config").Logger()
	logger.Info().Msg("initializing config")
	c = logger.WithContext(c)
	cfg := config.InitConfig(c, configName)
	logger = log.NewLogger(cfg.Log.Path, cfg.Application.Env).
		With().
		Str(log.KeyAppName, AppNotificationService).
		Str(log.KeyTag, "main RunNotificationService").
		Logger()
	logger.Info().Msg("initialized config")

	logger = logger.With().Str(log.KeyProcess, "initializing otel sdk").Logger()
	logger.Info().Msg("initializing otel sdk")
	c = logger.WithContext(c)
	shutdownFuncs, err := otel.InitOtelSdk(c, AppNotificationService, cfg.Otel)
	if err != nil {
		err = fmt.Errorf("failed initializing otel sdk with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	defer func() {
		logger = logger.With().Str(log.KeyProcess, "shutting down otel").Logger()
		logger.Info().Msg("shutting down otel")
		if err := otel.ShutdownOtel(context.WithoutCancel(c), shutdownFuncs); err != nil {
			err = fmt.Errorf("failed shutting down otel with error=%w", err)
			logger.Error().Err(err).Msg(err.Error())
			return
		}
		logger.Info().Msg("shutdown otel")
	}()
	logger.Info().Msg("initialized otel sdk")

	logger = logger.With().Str(log.KeyProcess, "initializing cache").Logger()
	logger.Info().Msg("initializing cache")
	c = logger.WithContext(c)
	cache, err := infra.NewCacheClient(c, cfg.Cache)
	if err != nil {
		err = fmt.Errorf("failed initializing cache with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	defer func() {
		if err := cache.Close(); err != nil {
			err = fmt.Errorf("failed closing cache with error=%w", err)
			logger.Error().Err(err).Msg(err.Error())
		}
	}()
	logger.Info().Msg("initialized cache")

	logger = logger.With().Str(log.KeyProcess, "subscribing invoice events").Logger()
	logger.Info().Msg("subscribing invoice events")
	worker := pubsub.NewReceiptWorker(cache, pubsub.LogReceipt)
	sub, err := worker.Subscribe(c)
	if err != nil {
		err = fmt.Errorf("failed subscribing invoice events with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	logger.Info().Msg("subscribed invoice events")

	wg := &sync.WaitGroup{}
	wg.Add(1)
	go worker.Run(c, sub, wg)

	<-c.Done()
	logger = logger.With().Str(log.KeyProcess, "shutdown worker").Logger()
	logger.Info().Msg("received interuption signal shutting down")
	wg.Wait()
	logger.Info().Msg("worker completely shutdown")
}
