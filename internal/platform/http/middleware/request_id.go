// Package middleware はプラットフォーム共通のginミドルウェアを提供します。
package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"face_cropper/internal/platform/requestid"
)

// maxIncomingIDLength を超えるX-Request-IDは信用せず、新しいIDを払い出します。
const maxIncomingIDLength = 128

// RequestID はX-Request-IDを引き継ぐか新規に払い出し、レスポンスヘッダーとリクエストのcontextに設定します。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestid.Header)
		if id == "" || len(id) > maxIncomingIDLength {
			id = requestid.New()
		}
		c.Header(requestid.Header, id)
		c.Request = c.Request.WithContext(requestid.WithID(c.Request.Context(), id))
		c.Next()
	}
}

// AccessLog は1リクエストごとにslogでアクセスログを出力します。
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"request_id", requestid.FromContext(c.Request.Context()),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", time.Since(start),
			"remote_addr", c.ClientIP(),
		}
		if status >= 500 {
			slog.Error("request completed", attrs...)
			return
		}
		slog.Info("request completed", attrs...)
	}
}
