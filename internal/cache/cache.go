package cache

import (
	"context"
	"time"
)

// 集計レスポンスのキャッシュ。
// 売上が書き換わったら Invalidate で全部無効にする。
type AnalyticsCache interface {
	// 現在の世代を含むキーを返す。1回の読み取りでは一度だけ解決し、
	// Get と Set に同じキーを渡す
	Key(ctx context.Context, key string) (string, error)
	// dest にJSONを復元する。なければ false
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

type NoopAnalyticsCache struct{}

func (NoopAnalyticsCache) Key(_ context.Context, key string) (string, error) {
	return key, nil
}

func (NoopAnalyticsCache) Get(_ context.Context, _ string, _ interface{}) (bool, error) {
	return false, nil
}

func (NoopAnalyticsCache) Set(_ context.Context, _ string, _ interface{}, _ time.Duration) error {
	return nil
}

func (NoopAnalyticsCache) Invalidate(_ context.Context) error {
	return nil
}
