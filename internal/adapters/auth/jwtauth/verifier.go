package jwtauth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pet-wellness/internal/ports/auth"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Verifier valida bearer tokens HS256 emitidos por el servicio de identidad.
// El backend solo verifica; la emisión de tokens queda fuera.
type Verifier struct {
	signingKey []byte
}

func New(signingKey string) *Verifier {
	return &Verifier{signingKey: []byte(signingKey)}
}

type tokenClaims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	var claims tokenClaims

	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.signingKey, nil
	})
	if err != nil || !parsed.Valid {
		return auth.Claims{}, ErrInvalidToken
	}

	userID := strings.TrimSpace(claims.Subject)
	if userID == "" {
		return auth.Claims{}, ErrInvalidToken
	}

	return auth.Claims{
		UserID:  userID,
		Email:   claims.Email,
		IsAdmin: strings.EqualFold(claims.Role, "admin"),
	}, nil
}
