package cmd

import (
	"context"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/config"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/store"
	"github.com/Alturino/storefront/user/internal/controller"
	"github.com/Alturino/storefront/user/internal/repository"
	"github.com/Alturino/storefront/user/internal/service"
)

// AttachUserService wires the account routes on top of s.
func AttachUserService(c context.Context, router *mux.Router, s store.Store, cfg config.Application) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "main AttachUserService").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "initializing user service").Logger()
	logger.Info().Msg("initializing user service")
	svc := service.NewUserService(repository.NewUserRepository(s), cfg)
	logger.Info().Msg("initialized user service")

	logger = logger.With().Str(log.KeyProcess, "attaching user controller").Logger()
	logger.Info().Msg("attaching user controller")
	controller.AttachUserController(router, svc)
	logger.Info().Msg("attached user controller")
}
