package jwtmw

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// TestMain はテスト実行前にGinをテストモードに設定します。
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func runMiddleware(authHeader string) (*httptest.ResponseRecorder, *gin.Context) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/crop-face", nil)
	if authHeader != "" {
		c.Request.Header.Set("Authorization", authHeader)
	}
	AuthRequired()(c)
	return w, c
}

// TestAuthRequired_MissingBearerToken はBearerトークンがない場合やプレフィックスが不正な場合に401が返されることを検証します。
func TestAuthRequired_MissingBearerToken(t *testing.T) {
	t.Setenv(EnvKeyJWTSecret, "test-secret")

	tests := []struct {
		name       string
		authHeader string
	}{
		{"no header", ""},
		{"basic auth", "Basic dXNlcjpwYXNz"},
		{"bearer lowercase", "bearer token123"},
		{"no space after Bearer", "Bearertoken123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, c := runMiddleware(tt.authHeader)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
			}
			if !c.IsAborted() {
				t.Error("expected request to be aborted")
			}
		})
	}
}

// TestAuthRequired_MissingJWTSecret はJWT_SECRET環境変数が未設定の場合に500が返されることを検証します。
func TestAuthRequired_MissingJWTSecret(t *testing.T) {
	t.Setenv(EnvKeyJWTSecret, "")

	w, _ := runMiddleware("Bearer sometoken")

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
}

// TestAuthRequired_InvalidToken は不正なトークン（改ざん・期限切れ・sub欠落等）で401が返されることを検証します。
func TestAuthRequired_InvalidToken(t *testing.T) {
	const testSecret = "test-secret-key-for-invalid"
	t.Setenv(EnvKeyJWTSecret, testSecret)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "client",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	noneStr, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name  string
		token string
	}{
		{"malformed token", "not.a.valid.token"},
		{"random string", "randomstring"},
		{"wrong secret", createTokenWithSecret("wrong-secret", "client", time.Hour)},
		{"expired token", createTokenWithSecret(testSecret, "client", -time.Hour)},
		{"missing subject", createTokenWithSecret(testSecret, "", time.Hour)},
		{"unsigned token", noneStr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, c := runMiddleware("Bearer " + tt.token)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
			}
			if !c.IsAborted() {
				t.Error("expected request to be aborted")
			}
		})
	}
}

// TestAuthRequired_ValidToken は有効なトークンでリクエストが通過し、コンテキストにクライアント名が設定されることを検証します。
func TestAuthRequired_ValidToken(t *testing.T) {
	const testSecret = "test-secret-key-for-valid"
	t.Setenv(EnvKeyJWTSecret, testSecret)

	for _, client := range []string{"mobile-app", "nightly-batch"} {
		t.Run(client, func(t *testing.T) {
			token, err := NewGenerator(testSecret, time.Hour).GenerateToken(client)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			w, c := runMiddleware("Bearer " + token)

			if c.IsAborted() {
				t.Fatalf("expected request not to be aborted, response: %s", w.Body.String())
			}
			got, exists := c.Get(ContextClient)
			if !exists {
				t.Fatal("expected client to be set in context")
			}
			if got.(string) != client {
				t.Errorf("expected client %q, got %q", client, got)
			}
		})
	}
}

// createTokenWithSecret はテスト用に指定されたシークレットとクライアント名で署名済みJWTトークンを生成します。
func createTokenWithSecret(secret, client string, expiration time.Duration) string {
	claims := jwt.MapClaims{
		"exp": time.Now().Add(expiration).Unix(),
		"iat": time.Now().Unix(),
	}
	if client != "" {
		claims["sub"] = client
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, _ := token.SignedString([]byte(secret))
	return signed
}
