package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const VisitorTTL = 30 * 24 * time.Hour

type VisitorClaims struct {
	jwt.RegisteredClaims
}

func SignVisitor(visitorID uuid.UUID, secret []byte, now time.Time) (string, time.Time, error) {
	exp := now.Add(VisitorTTL)
	claims := VisitorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   visitorID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	return s, exp, err
}

func VisitorFromToken(tokenStr string, secret []byte) (uuid.UUID, error) {
	var claims VisitorClaims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return secret, nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	if !tkn.Valid {
		return uuid.Nil, errors.New("invalid visitor token")
	}
	return uuid.Parse(claims.Subject)
}
