package controller

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	inErrors "github.com/Alturino/storefront/internal/errors"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/user/internal/service"
	"github.com/Alturino/storefront/user/pkg/request"
)

type UserService interface {
	Login(c context.Context, param request.Login) (service.Session, error)
	Register(c context.Context, param request.Register) (service.Session, error)
}

type UserController struct {
	service UserService
}

func AttachUserController(mux *mux.Router, service UserService) {
	router := mux.PathPrefix("/users").Subrouter()

	controller := UserController{service: service}
	router.HandleFunc("/login", controller.Login).Methods(http.MethodPost)
	router.HandleFunc("/register", controller.Register).Methods(http.MethodPost)
}

func (u UserController) Login(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController Login")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserController Login").
		Logger()

	logger.Info().
		Str(log.KeyProcess, "validating requestbody").
		Msg("decoding request body")
	reqBody := request.Login{}
	if err := inHttp.DecodeJson(c, r, &reqBody); err != nil {
		inErrors.HandleError(err, span)
		logger.Error().
			Err(err).
			Str(log.KeyProcess, "validating requestbody").
			Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return
	}
	logger = logger.With().
		Object(log.KeyRequestBody, reqBody).
		Logger()
	c = logger.WithContext(c)
	logger.Info().
		Str(log.KeyProcess, "validating requestbody").
		Msg("decoded request body")

	logger.Info().
		Str(log.KeyProcess, "login").
		Msg("login")
	session, err := u.service.Login(c, reqBody)
	if err != nil {
		err = fmt.Errorf("failed login with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().
			Err(err).
			Str(log.KeyProcess, "login").
			Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return
	}
	logger.Info().
		Str(log.KeyProcess, "login").
		Msg("login success")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     inHttp.StatusSuccess,
		"statusCode": http.StatusOK,
		"message":    "login success",
		"data":       session,
	})
}

func (u UserController) Register(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController Register")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserController Register").
		Logger()

	logger.Info().
		Str(log.KeyProcess, "validating requestbody").
		Msg("decoding request body")
	reqBody := request.Register{}
	if err := inHttp.DecodeJson(c, r, &reqBody); err != nil {
		inErrors.HandleError(err, span)
		logger.Error().
			Err(err).
			Str(log.KeyProcess, "validating requestbody").
			Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return
	}
	logger = logger.With().
		Object(log.KeyRequestBody, reqBody).
		Logger()
	c = logger.WithContext(c)
	logger.Info().
		Str(log.KeyProcess, "validating requestbody").
		Msg("decoded request body")

	logger.Info().
		Str(log.KeyProcess, "registering user").
		Msg("registering user")
	session, err := u.service.Register(c, reqBody)
	if err != nil {
		err = fmt.Errorf("failed registering user with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().
			Err(err).
			Str(log.KeyProcess, "registering user").
			Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return
	}
	logger.Info().
		Str(log.KeyProcess, "registering user").
		Msg("registered user")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     inHttp.StatusSuccess,
		"statusCode": http.StatusCreated,
		"message":    "successfully registered user",
		"data":       session,
	})
}
