package jwtmw

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TestNewGenerator は各種設定でGeneratorが正しく生成されることを検証します。
func TestNewGenerator(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		secret     string
		expiration time.Duration
	}{
		{"standard config", "my-secret-key", time.Hour},
		{"long expiration", "secret", 24 * time.Hour * 30},
		{"short expiration", "s", time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gen := NewGenerator(tt.secret, tt.expiration)

			if gen == nil {
				t.Fatal("expected generator to be non-nil")
			}
			if string(gen.secret) != tt.secret {
				t.Errorf("expected secret %q, got %q", tt.secret, string(gen.secret))
			}
			if gen.expiration != tt.expiration {
				t.Errorf("expected expiration %v, got %v", tt.expiration, gen.expiration)
			}
		})
	}
}

// TestGenerator_GenerateToken は生成されたJWTトークンが有効で正しいクレームを含むことを検証します。
func TestGenerator_GenerateToken(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		client     string
		expiration time.Duration
	}{
		{"mobile app", "mobile-app", time.Hour},
		{"batch job", "nightly-batch", 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gen := NewGenerator("test-secret", tt.expiration)
			gen.now = func() time.Time { return fixed }

			tokenStr, err := gen.GenerateToken(tt.client)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			token, err := jwt.Parse(tokenStr, func(tok *jwt.Token) (any, error) {
				if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
					t.Errorf("unexpected signing method: %v", tok.Header["alg"])
				}
				return []byte("test-secret"), nil
			}, jwt.WithTimeFunc(func() time.Time { return fixed }))
			if err != nil {
				t.Fatalf("failed to parse token: %v", err)
			}

			sub, _ := token.Claims.GetSubject()
			if sub != tt.client {
				t.Errorf("expected sub %q, got %q", tt.client, sub)
			}
			exp, _ := token.Claims.GetExpirationTime()
			if exp == nil || !exp.Time.Equal(fixed.Add(tt.expiration)) {
				t.Errorf("expected exp %v, got %v", fixed.Add(tt.expiration), exp)
			}
			iat, _ := token.Claims.GetIssuedAt()
			if iat == nil || !iat.Time.Equal(fixed) {
				t.Errorf("expected iat %v, got %v", fixed, iat)
			}
		})
	}
}

// TestGenerator_GenerateToken_EmptyClient はクライアント名が空の場合にエラーになることを検証します。
func TestGenerator_GenerateToken_EmptyClient(t *testing.T) {
	t.Parallel()

	if _, err := NewGenerator("test-secret", time.Hour).GenerateToken(""); err == nil {
		t.Error("expected error for empty client")
	}
}
