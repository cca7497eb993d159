package ratelimiter

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// RateLimiterは、固定ウィンドウ方式で操作の頻度を制限します。
// 複数のgoroutineから同時に利用できます。
type RateLimiter struct {
	mu        sync.Mutex
	limit     int           // ウィンドウあたりの上限
	interval  time.Duration // ウィンドウの長さ
	count     int
	lastReset time.Time
	now       func() time.Time
}

// NewRateLimiterは新しいRateLimiterのインスタンスを生成します。
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:     limit,
		interval:  interval,
		lastReset: time.Now(),
		now:       time.Now,
	}
}

// reserve は呼び出し枠を1つ確保し、必要な待機時間を返します。
func (rl *RateLimiter) reserve() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	// interval を過ぎたらカウントリセット
	if now.Sub(rl.lastReset) >= rl.interval {
		rl.count = 0
		rl.lastReset = now
	}

	rl.count++
	if rl.count <= rl.limit {
		return 0
	}

	// 次のウィンドウの枠を先取りする
	wait := rl.interval - now.Sub(rl.lastReset)
	rl.count = 1
	rl.lastReset = now.Add(wait)
	return wait
}

// Waitはレートリミットの上限に達しているかを確認し、必要であれば待機します。
// 待機中にctxがキャンセルされた場合はctx.Err()を返します。
func (rl *RateLimiter) Wait(ctx context.Context) error {
	wait := rl.reserve()
	if wait <= 0 {
		return nil
	}

	slog.Info("rate limit reached, waiting", "limit", rl.limit, "wait", wait)
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
