package jwtmw

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Generator defines the interface for JWT token generation.
type Generator interface {
	// GenerateToken creates a signed JWT token for the given API client.
	GenerateToken(client string) (string, error)
}

// generator implements the Generator interface.
type generator struct {
	secret     []byte
	expiration time.Duration
	now        func() time.Time
}

var _ Generator = (*generator)(nil)

// NewGenerator creates a new JWT generator with the provided secret and expiration duration.
func NewGenerator(secret string, expiration time.Duration) *generator {
	return &generator{
		secret:     []byte(secret),
		expiration: expiration,
		now:        time.Now,
	}
}

// GenerateToken creates a signed HS256 token whose subject is the client name.
func (g *generator) GenerateToken(client string) (string, error) {
	if client == "" {
		return "", errors.New("client name is required")
	}
	now := g.now()
	claims := jwt.RegisteredClaims{
		Subject:   client,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(g.expiration)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}
