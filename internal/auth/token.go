// Package auth issues and validates the bearer tokens used by the API.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"expensetracker/internal/core"
)

// Claims carries the authenticated user id next to the standard claims.
type Claims struct {
	UserID string `json:"userId"`
	jwt.StandardClaims
}

// TokenIssuer signs HS256 tokens with a shared secret.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret, issuer string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue returns a signed token for userID and its expiry.
func (i *TokenIssuer) Issue(userID string) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(i.ttl)
	claims := Claims{
		UserID: userID,
		StandardClaims: jwt.StandardClaims{
			Subject:   userID,
			Issuer:    i.issuer,
			IssuedAt:  now.Unix(),
			ExpiresAt: expiresAt.Unix(),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, expiresAt, nil
}

// Validate parses tokenString and returns its user id.
// Every failure wraps core.ErrUnauthorized.
func (i *TokenIssuer) Validate(tokenString string) (string, error) {
	claims := &Claims{}
	parser := jwt.Parser{ValidMethods: []string{jwt.SigningMethodHS256.Alg()}}
	token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return i.secret, nil
	})
	if err != nil {
		var verr *jwt.ValidationError
		if errors.As(err, &verr) && verr.Errors&jwt.ValidationErrorExpired != 0 {
			return "", fmt.Errorf("%w: token expired", core.ErrUnauthorized)
		}
		return "", fmt.Errorf("%w: invalid token", core.ErrUnauthorized)
	}
	if !token.Valid || claims.UserID == "" {
		return "", fmt.Errorf("%w: invalid token", core.ErrUnauthorized)
	}
	if i.issuer != "" && !claims.VerifyIssuer(i.issuer, true) {
		return "", fmt.Errorf("%w: unexpected issuer", core.ErrUnauthorized)
	}
	return claims.UserID, nil
}
