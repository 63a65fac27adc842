package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/model"
	"github.com/Alturino/storefront/internal/otel"
)

const (
	Issuer        = otel.AppName
	TokenLifetime = time.Hour
)

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type claimsKey struct{}

// Sign issues an HS256 token whose subject is the user's email.
func Sign(user model.User, secret string, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   user.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenLifetime)),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed signing token with error=%w", err)
	}
	return signed, nil
}

func Verify(tokenString string, secret string) (Claims, error) {
	claims := Claims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		&claims,
		func(t *jwt.Token) (interface{}, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Claims{}, errors.Join(inErrors.ErrTokenInvalid, err)
	}
	if claims.Subject == "" {
		return Claims{}, inErrors.ErrEmptySubject
	}
	return claims, nil
}

func AttachClaimsToContext(c context.Context, claims Claims) context.Context {
	return context.WithValue(c, claimsKey{}, claims)
}

func ClaimsFromContext(c context.Context) (Claims, bool) {
	claims, ok := c.Value(claimsKey{}).(Claims)
	return claims, ok
}

// OwnerIDFromContext returns the authenticated subject, which owns carts and invoices.
func OwnerIDFromContext(c context.Context) (string, error) {
	claims, ok := ClaimsFromContext(c)
	if !ok {
		return "", inErrors.ErrEmptyAuth
	}
	if claims.Subject == "" {
		return "", inErrors.ErrEmptySubject
	}
	return claims.Subject, nil
}
