// Package auth issues and verifies the signed identity tokens carried in the
// Authorization header, and moves the verified subject through a context.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/gearhub/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the registered JWT claims; the principal's email lives in Subject.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenAuthority signs and verifies HS256 identity tokens. It is stateless:
// nothing is persisted and there is no revocation list, so a token stays
// valid until it expires.
type TokenAuthority struct {
	secretKey []byte
	now       func() time.Time
}

func NewTokenAuthority(secretKey []byte) *TokenAuthority {
	return &TokenAuthority{secretKey: secretKey, now: time.Now}
}

// Issue returns a token asserting subject that expires at now+ttl.
func (a *TokenAuthority) Issue(subject string, ttl time.Duration) (string, error) {
	now := a.now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})

	tokenString, err := token.SignedString(a.secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Verify checks the signature and expiry of tokenString and returns its
// subject. Errors are one of common.ErrTokenMalformed, common.ErrTokenExpired
// or common.ErrInvalidSignature.
func (a *TokenAuthority) Verify(tokenString string) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return a.secretKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return "", mapError(err)
	}

	if !token.Valid || claims.Subject == "" {
		return "", common.ErrTokenMalformed
	}

	return claims.Subject, nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return common.ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return common.ErrTokenExpired
	default:
		return common.ErrTokenMalformed
	}
}
