// Package api はHTTPレスポンスのJSON型を定義します。
package api

// HealthResponse はヘルスチェックのレスポンスです。
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// ErrorResponse はJSONで返すエラーレスポンスです。
type ErrorResponse struct {
	Error string `json:"error"`
}
