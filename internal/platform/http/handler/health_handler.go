// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"face_cropper/internal/api"
)

// ServiceName はヘルスチェックで返すサービス名です。
const ServiceName = "face-cropper-api"

// Health はサービスヘルスチェック用の /health と /healthz エンドポイントを処理します。
// HTTPメソッドに応じて適切にレスポンスし、キャッシュを防止します。
func Health(c *gin.Context) {
	// 明示的にキャッシュを防止
	c.Header("Cache-Control", "no-store")

	switch c.Request.Method {
	case http.MethodHead:
		c.Status(http.StatusOK)
	case http.MethodOptions:
		c.Status(http.StatusNoContent)
	default:
		c.JSON(http.StatusOK, api.HealthResponse{Status: "healthy", Service: ServiceName})
	}
}
