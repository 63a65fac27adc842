package repository

import (
	"context"
	"fmt"
	"strings"

	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/model"
	"github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/store"
)

type UserRepository struct {
	users store.Collection[model.User]
}

func NewUserRepository(s store.Store) *UserRepository {
	return &UserRepository{users: store.NewCollection[model.User](s, store.CollectionUsers)}
}

// NormalizeEmail is the form emails are stored and compared in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *UserRepository) FindByEmail(c context.Context, email string) (model.User, error) {
	c, span := otel.Tracer.Start(c, "UserRepository FindByEmail")
	defer span.End()

	users, err := r.users.LoadAll(c)
	if err != nil {
		err = fmt.Errorf("failed finding user by email=%s with error=%w", email, err)
		inErrors.HandleError(err, span)
		return model.User{}, err
	}
	email = NormalizeEmail(email)
	for _, user := range users {
		if user.Email == email {
			return user, nil
		}
	}
	return model.User{}, fmt.Errorf("failed finding user by email=%s with error=%w", email, inErrors.ErrUserNotFound)
}

// Insert stores user unless its email is already registered.
func (r *UserRepository) Insert(c context.Context, user model.User) (model.User, error) {
	c, span := otel.Tracer.Start(c, "UserRepository Insert")
	defer span.End()

	user.Email = NormalizeEmail(user.Email)
	err := r.users.Update(c, func(users []model.User) ([]model.User, error) {
		for _, existing := range users {
			if existing.Email == user.Email {
				return nil, inErrors.ErrUserAlreadyExists
			}
		}
		return append(users, user), nil
	})
	if err != nil {
		err = fmt.Errorf("failed inserting user email=%s with error=%w", user.Email, err)
		inErrors.HandleError(err, span)
		return model.User{}, err
	}
	return user, nil
}
