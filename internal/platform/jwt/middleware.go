package jwtmw

import (
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"face_cropper/internal/api"
)

const (
	// EnvKeyJWTSecret はトークンの署名鍵を保持する環境変数です。
	EnvKeyJWTSecret = "JWT_SECRET"
	// ContextClient はgin.Contextに保存するクライアント名のキーです。
	ContextClient = "client"
)

// AuthRequired returns a Gin middleware function that validates JWT tokens
// and restricts access to registered API clients only.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Get Authorization header
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: "missing bearer token"})
			return
		}
		tokenStr := strings.TrimPrefix(auth, "Bearer ")

		// 2. Load secret key from environment variable
		secret := os.Getenv(EnvKeyJWTSecret)
		if secret == "" {
			slog.Error("JWT_SECRET is not set while authentication is required")
			c.AbortWithStatusJSON(http.StatusInternalServerError, api.ErrorResponse{Error: "server misconfigured"})
			return
		}

		// 3. Parse and verify JWT signature (only HMAC allowed)
		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
		if err != nil || !token.Valid {
			slog.Warn("rejected bearer token", "error", err, "remote_addr", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: "invalid token"})
			return
		}

		// 4. Extract the client name from the subject claim
		sub, err := token.Claims.GetSubject()
		if err != nil || sub == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: "invalid token"})
			return
		}
		c.Set(ContextClient, sub)

		c.Next()
	}
}
