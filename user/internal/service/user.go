package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/Alturino/storefront/internal/auth"
	"github.com/Alturino/storefront/internal/config"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/model"
	"github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/user/internal/repository"
	"github.com/Alturino/storefront/user/pkg/request"
)

type UserService struct {
	users  *repository.UserRepository
	config config.Application
	now    func() time.Time
	cost   int
}

func NewUserService(users *repository.UserRepository, config config.Application) *UserService {
	return &UserService{users: users, config: config, now: time.Now, cost: bcrypt.DefaultCost}
}

// Session is what a successful register or login hands back to the client.
type Session struct {
	Token string       `json:"token"`
	User  model.Public `json:"user"`
}

func (u *UserService) Login(c context.Context, param request.Login) (Session, error) {
	c, span := otel.Tracer.Start(c, "UserService Login")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "UserService Login").
		Str(log.KeyEmail, param.Email).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding user").Logger()
	logger.Info().Msg("finding user by email")
	user, err := u.users.FindByEmail(c, param.Email)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		if errors.Is(err, inErrors.ErrUserNotFound) {
			return Session{}, inErrors.ErrPasswordMismatch
		}
		return Session{}, err
	}
	logger.Info().Msg("found user by email")

	logger = logger.With().Str(log.KeyProcess, "verifying password").Logger()
	logger.Info().Msg("verifying hashed password with password")
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(param.Password)); err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Session{}, inErrors.ErrPasswordMismatch
	}
	logger.Info().Msg("verified hashed password with password")

	return u.session(c, user)
}

func (u *UserService) Register(c context.Context, param request.Register) (Session, error) {
	c, span := otel.Tracer.Start(c, "UserService Register")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserService Register").
		Str(log.KeyEmail, param.Email).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "hashing password").Logger()
	logger.Info().Msg("hashing password")
	hashed, err := bcrypt.GenerateFromPassword([]byte(param.Password), u.cost)
	if err != nil {
		err = errors.Join(inErrors.ErrFailedHashToken, err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Session{}, err
	}
	logger.Info().Msg("hashed password")

	id, err := uuid.NewV7()
	if err != nil {
		err = fmt.Errorf("failed generating user id with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Session{}, err
	}
	role := param.Role
	if role == "" {
		role = model.RoleUser
	}

	logger = logger.With().Str(log.KeyProcess, "inserting user").Logger()
	logger.Info().Msg("inserting user")
	user, err := u.users.Insert(c, model.User{
		ID:        id.String(),
		Username:  param.Username,
		Email:     param.Email,
		Password:  string(hashed),
		Role:      role,
		CreatedAt: u.now().UTC(),
	})
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Session{}, err
	}
	logger.Info().Object("user", user).Msg("inserted user")

	return u.session(c, user)
}

func (u *UserService) session(c context.Context, user model.User) (Session, error) {
	logger := zerolog.Ctx(c).With().Str(log.KeyProcess, "signing token").Logger()
	logger.Info().Msg("signing token")
	token, err := auth.Sign(user, u.config.SecretKey, u.now())
	if err != nil {
		logger.Error().Err(err).Msg(err.Error())
		return Session{}, err
	}
	logger.Info().Msg("signed token")
	return Session{Token: token, User: user.Public()}, nil
}
