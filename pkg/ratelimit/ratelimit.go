package ratelimit

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultMinInterval は、同一ホストへのリクエスト間に必ず空ける最小待機時間です。
	DefaultMinInterval = 1 * time.Second
)

// Clock は、現在時刻の取得と待機を抽象化します。テストでは実際にスリープしない実装に差し替えます。
type Clock interface {
	Now() time.Time
	// Sleep は d だけ待機します。ctx がキャンセルされた場合は ctx.Err() を返します。
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RealClock は time パッケージに基づく Clock を返します。
func RealClock() Clock { return realClock{} }

// Limiter は、ホスト単位でリクエスト間隔の下限を保証するレートリミッターです。
// フェッチの試行が終わるたびに Pause を呼び出すことで、成功・失敗にかかわらず
// 次のリクエストまでに最低 interval の間隔が空きます。
type Limiter struct {
	interval time.Duration
	clock    Clock

	mu   sync.Mutex
	next map[string]time.Time // ホストごとの次回リクエスト可能時刻
}

// Option は Limiter の設定を行う関数型です。
type Option func(*Limiter)

// WithClock はテスト用などにカスタムの Clock を設定します。
func WithClock(clock Clock) Option {
	return func(l *Limiter) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// New は新しい Limiter を生成します。interval が負の場合は 0 として扱います。
func New(interval time.Duration, opts ...Option) *Limiter {
	if interval < 0 {
		interval = 0
	}
	l := &Limiter{
		interval: interval,
		clock:    RealClock(),
		next:     make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Interval は設定された最小間隔を返します。
func (l *Limiter) Interval() time.Duration {
	return l.interval
}

// Pause は host への試行が1回終わったことを記録し、最小間隔だけ待機します。
// 同じホストに対して並行に呼び出された場合でも、待機の終了時刻は interval ずつずれます。
func (l *Limiter) Pause(ctx context.Context, host string) error {
	if l.interval == 0 {
		return nil
	}

	l.mu.Lock()
	now := l.clock.Now()
	start := now
	if reserved, ok := l.next[host]; ok && reserved.After(now) {
		start = reserved
	}
	until := start.Add(l.interval)
	l.next[host] = until
	l.mu.Unlock()

	return l.clock.Sleep(ctx, until.Sub(now))
}
