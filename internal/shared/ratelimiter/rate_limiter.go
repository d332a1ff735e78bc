// Package ratelimiter は取引所サイトへのリクエストを間隔あたり一定回数以内に抑えます。
package ratelimiter

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// RateLimiter は固定ウィンドウで呼び出し回数を数え、上限に達したら呼び出し元を待たせます。
type RateLimiter struct {
	mu        sync.Mutex
	limit     int           // 間隔あたりの許容回数
	interval  time.Duration // ウィンドウの長さ
	count     int
	lastReset time.Time
	now       func() time.Time
}

// NewRateLimiter はRateLimiterを生成します。limitが0以下なら制限しません。
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:     limit,
		interval:  interval,
		lastReset: time.Now(),
		now:       time.Now,
	}
}

// Wait は実行可能になった時点で戻ります。先にctxが終了した場合はctxのエラーを返します。
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl == nil || rl.limit <= 0 {
		return nil
	}
	for {
		delay := rl.reserve()
		if delay <= 0 {
			return nil
		}
		slog.Info("rate limit reached, waiting", "limit", rl.limit, "delay", delay)
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

// reserve は現在のウィンドウの枠を確保するか、次のウィンドウまでの待ち時間を返します。
func (rl *RateLimiter) reserve() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	// interval を過ぎたらカウントリセット
	if now.Sub(rl.lastReset) >= rl.interval {
		rl.count = 0
		rl.lastReset = now
	}
	if rl.count < rl.limit {
		rl.count++
		return 0
	}
	return rl.interval - now.Sub(rl.lastReset)
}
