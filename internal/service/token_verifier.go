package service

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"dutycalc/internal/config"
	"dutycalc/internal/domain"
)

// Claims are the bearer token claims accepted by the API.
type Claims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope,omitempty"`
}

// TokenVerifier validates API bearer tokens.
type TokenVerifier interface {
	Verify(tokenString string) (*Claims, error)
}

type tokenVerifier struct {
	cfg config.JWTConfig
}

// NewTokenVerifier creates a TokenVerifier for HMAC-signed tokens.
func NewTokenVerifier(cfg config.JWTConfig) TokenVerifier {
	return &tokenVerifier{cfg: cfg}
}

func (v *tokenVerifier) Verify(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if v.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.cfg.Issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(v.cfg.Secret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing token: %w", domain.ErrUnauthorized, err)
	}
	if !token.Valid {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}
