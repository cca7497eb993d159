// Package http は外部サービス呼び出し用のHTTPクライアントを提供します。
package http

import (
	"net"
	"net/http"
	"time"
)

const (
	dialTimeout           = 5 * time.Second
	keepAlive             = 30 * time.Second
	maxIdleConns          = 100
	maxIdleConnsPerHost   = 16
	idleConnTimeout       = 90 * time.Second
	tlsHandshakeTimeout   = 5 * time.Second
	responseHeaderTimeout = 20 * time.Second
)

// NewHTTPClient は推論サービスなど外部呼び出し用のHTTPクライアントを作成します。
//
// http.DefaultClientにはタイムアウトがないため使用しません。
// timeoutはリクエスト全体（画像のアップロードと応答の読み取りを含む）の上限です。
// 同じ推論サービスへ並行して画像を送るため、ホスト単位のアイドル接続数を既定値より増やしています。
func NewHTTPClient(timeout time.Duration) *http.Client {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: keepAlive,
		}).DialContext,
		MaxIdleConns:          maxIdleConns,
		MaxIdleConnsPerHost:   maxIdleConnsPerHost,
		IdleConnTimeout:       idleConnTimeout,
		TLSHandshakeTimeout:   tlsHandshakeTimeout,
		ResponseHeaderTimeout: min(responseHeaderTimeout, timeout),
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Timeout: timeout, Transport: t}
}
