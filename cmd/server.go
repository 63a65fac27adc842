package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	cartCmd "github.com/Alturino/storefront/cart/cmd"
	cartRepository "github.com/Alturino/storefront/cart/repository"
	"github.com/Alturino/storefront/internal/config"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/infra"
	"github.com/Alturino/storefront/internal/lock"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/middleware"
	"github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/store"
	invoiceCmd "github.com/Alturino/storefront/invoice/cmd"
	"github.com/Alturino/storefront/invoice/ledger"
	"github.com/Alturino/storefront/notification/pubsub"
	"github.com/Alturino/storefront/order/service"
	productCmd "github.com/Alturino/storefront/product/cmd"
	productRepository "github.com/Alturino/storefront/product/repository"
	userCmd "github.com/Alturino/storefront/user/cmd"
)

const (
	AppServer       = "storefront-server"
	shutdownTimeout = 15 * time.Second
)

func runServer(c context.Context, configName string) {
	c, span := otel.Tracer.Start(c, "runServer")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyAppName, AppServer).
		Str(log.KeyTag, "main runServer").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "initializing config").Logger()
	logger.Info().Msg("initializing config")
	c = logger.WithContext(c)
	cfg := config.InitConfig(c, configName)
	logger = log.NewLogger(cfg.Log.Path, cfg.Application.Env).
		With().
		Str(log.KeyAppName, AppServer).
		Str(log.KeyTag, "main runServer").
		Logger()
	logger.Info().Msg("initialized config")

	logger = logger.With().Str(log.KeyProcess, "initializing otel sdk").Logger()
	logger.Info().Msg("initializing otel sdk")
	c = logger.WithContext(c)
	shutdownFuncs, err := otel.InitOtelSdk(c, AppServer, cfg.Otel)
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

	logger = logger.With().
		Str(log.KeyProcess, "initializing store").
		Str(log.KeyBackend, cfg.Store.Driver).
		Logger()
	logger.Info().Msg("initializing store")
	c = logger.WithContext(c)
	s, err := newStore(c, cfg)
	if err != nil {
		err = fmt.Errorf("failed initializing store with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	defer func() {
		if err := s.Close(); err != nil {
			err = fmt.Errorf("failed closing store with error=%w", err)
			logger.Error().Err(err).Msg(err.Error())
		}
	}()
	logger.Info().Msg("initialized store")

	var publisher service.Publisher
	if cfg.Cache.Enabled {
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
		defer cache.Close()
		publisher = pubsub.NewRedisPublisher(cache)
		logger.Info().Msg("initialized cache")
	}

	logger = logger.With().Str(log.KeyProcess, "initializing services").Logger()
	logger.Info().Msg("initializing services")
	carts := cartRepository.NewCartRepository(s, lock.NewKeyed())
	products := productRepository.NewProductRepository(s)
	invoices := ledger.NewLedger(s)
	checkout := service.NewCheckoutService(carts, invoices, publisher)
	logger.Info().Msg("initialized services")

	logger = logger.With().Str(log.KeyProcess, "initializing router").Logger()
	logger.Info().Msg("initializing router")
	c = logger.WithContext(c)
	router := mux.NewRouter()
	router.Use(otelmux.Middleware(AppServer), middleware.Logging, middleware.RecoverPanic)
	router.Handle("/metrics", otelhttp.NewHandler(promhttp.Handler(), "metrics")).Methods(http.MethodGet)

	authenticate := middleware.Auth(cfg.Application.SecretKey)
	userCmd.AttachUserService(c, router, s, cfg.Application)
	productCmd.AttachProductService(c, router, products, authenticate, middleware.RequireAdmin)

	authenticated := router.NewRoute().Subrouter()
	authenticated.Use(authenticate)
	cartCmd.AttachCartService(c, authenticated, carts, products, checkout)
	invoiceCmd.AttachInvoiceService(c, authenticated, invoices)
	logger.Info().Msg("initialized router")

	server := http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Application.Host, cfg.Application.Port),
		BaseContext:  func(net.Listener) context.Context { return context.WithoutCancel(c) },
		Handler:      router,
		ReadTimeout:  45 * time.Second,
		WriteTimeout: 45 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger := logger.With().Str(log.KeyProcess, "start server").Logger()
		logger.Info().Msgf("start listening request at %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("error=%w occured while server is running", err)
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return
		}
	case <-c.Done():
	}

	logger = logger.With().Str(log.KeyProcess, "shutdown server").Logger()
	logger.Info().Msg("received interuption signal shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(c), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		err = fmt.Errorf("failed shutting down server with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	logger.Info().Msg("server completely shutdown")
}

// newStore opens the backend named by cfg.Store.Driver and makes sure every collection exists.
func newStore(c context.Context, cfg *config.Config) (store.Store, error) {
	var s store.Store
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		s = store.NewMemoryStore()
	case config.StoreDriverPostgres:
		pool, err := infra.NewDatabaseClient(c, cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(c, pool); err != nil {
			pool.Close()
			return nil, err
		}
		s = store.NewPostgresStore(pool)
	default:
		s = store.NewFileStore(cfg.Store.Dir)
	}

	for _, collection := range store.Collections {
		if err := s.Ensure(c, collection); err != nil {
			s.Close()
			return nil, fmt.Errorf("failed ensuring collection=%s with error=%w", collection, err)
		}
	}
	return s, nil
}
