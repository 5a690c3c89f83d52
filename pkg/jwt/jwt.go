package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrSecret el secreto de firma no está configurado.
var ErrSecret = errors.New("jwt: secret vacío")

// Identity quién actúa y en nombre de qué negocio.
type Identity struct {
	UserID     string
	BusinessID string
	Role       string // admin | bodeguero | vendedor
}

// Claims claims registrados más la identidad del actor del libro de stock.
type Claims struct {
	jwt.RegisteredClaims
	UserID     string `json:"user_id"`
	BusinessID string `json:"business_id"`
	Role       string `json:"role"`
}

// Identity extrae la identidad de los claims.
func (c *Claims) Identity() Identity {
	return Identity{UserID: c.UserID, BusinessID: c.BusinessID, Role: c.Role}
}

// Generate firma (HS256) un token para la identidad con la vigencia indicada.
func Generate(secret string, id Identity, issuer string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrSecret
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:     id.UserID,
		BusinessID: id.BusinessID,
		Role:       id.Role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Parse valida firma y vigencia. Solo acepta HMAC.
func Parse(secret, raw string) (*Claims, error) {
	if secret == "" {
		return nil, ErrSecret
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("jwt: %w", err)
	}
	return claims, nil
}
