package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cacheable はデータを持つかどうかを返します。空の値は保存されず、次の呼び出しで即座に再取得します。
type Cacheable interface {
	IsEmpty() bool
}

// Observer は参照のたびに通知を受けます。フェッチを実行（または合流）した場合hitはfalseです。
type Observer func(kind string, hit bool)

// Freshness は種別ごとに直近の成功結果を一定時間保持します。
// 同じ種別への同時呼び出しは実行中の1回のフェッチを共有します。
type Freshness[T Cacheable] struct {
	store     Store
	ttl       time.Duration
	namespace string
	group     singleflight.Group
	observe   Observer

	// gens はInvalidateで増加します。古い世代で始まったフライトは結果を書き戻しません。
	mu   sync.Mutex
	gens map[string]uint64
}

type flightResult[T any] struct {
	value T
	gen   uint64
}

// NewFreshness はstore上のキャッシュを生成します。ttlが0なら1分、
// namespaceが空なら"market"を使います。
func NewFreshness[T Cacheable](store Store, ttl time.Duration, namespace string, observe Observer) *Freshness[T] {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if namespace == "" {
		namespace = "market"
	}
	if observe == nil {
		observe = func(string, bool) {}
	}
	return &Freshness[T]{store: store, ttl: ttl, namespace: namespace, observe: observe, gens: map[string]uint64{}}
}

// GetOrFetch はkindのキャッシュ値を返すか、fetchを実行して成功した空でない結果をキャッシュします。
// エラーはそのまま返し、キャッシュしません。
func (f *Freshness[T]) GetOrFetch(ctx context.Context, kind string, fetch func(context.Context) (T, error)) (T, error) {
	key := f.key(kind)
	if v, ok := f.lookup(ctx, key); ok {
		f.observe(kind, true)
		return v, nil
	}
	f.observe(kind, false)

	want := f.generation(key)
	for {
		res, err, shared := f.group.Do(key, func() (any, error) {
			return f.flight(ctx, key, fetch)
		})
		if shared {
			slog.Debug("joined in-flight fetch", "kind", kind)
		}
		fr, _ := res.(flightResult[T])
		if res != nil && fr.gen < want {
			// Invalidate 前に始まったフライトに合流したので、新しいフライトを待つ
			continue
		}
		if err != nil {
			var zero T
			return zero, err
		}
		return fr.value, nil
	}
}

func (f *Freshness[T]) flight(ctx context.Context, key string, fetch func(context.Context) (T, error)) (any, error) {
	gen := f.generation(key)
	// lookup から Do までの間に別のフライトが保存した可能性がある
	if v, ok := f.lookup(ctx, key); ok {
		return flightResult[T]{value: v, gen: gen}, nil
	}
	// 合流した呼び出し元は、フライトを開始した呼び出し元のキャンセルの影響を受けない
	v, err := fetch(context.WithoutCancel(ctx))
	if err != nil {
		return flightResult[T]{gen: gen}, err
	}
	if !v.IsEmpty() {
		f.mu.Lock()
		if f.gens[key] == gen {
			f.save(ctx, key, v)
		}
		f.mu.Unlock()
	}
	return flightResult[T]{value: v, gen: gen}, nil
}

// Invalidate はkindのキャッシュ値を破棄し、次の呼び出しで再取得させます。
// 実行中のフェッチは完了しますが結果はキャッシュされず、Invalidate後の呼び出し元は
// その完了を待ってから再度フェッチします。
func (f *Freshness[T]) Invalidate(ctx context.Context, kind string) {
	key := f.key(kind)
	f.mu.Lock()
	f.gens[key]++
	f.mu.Unlock()
	if err := f.store.Delete(ctx, key); err != nil {
		slog.Warn("cache invalidate failed", "key", key, "error", err)
	}
}

func (f *Freshness[T]) generation(key string) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gens[key]
}

func (f *Freshness[T]) key(kind string) string {
	return f.namespace + ":" + kind
}

func (f *Freshness[T]) lookup(ctx context.Context, key string) (T, bool) {
	var out T
	b, found, err := f.store.Get(ctx, key)
	if err != nil {
		slog.Warn("cache read failed", "key", key, "error", err)
		return out, false
	}
	if !found {
		return out, false
	}
	if err := json.Unmarshal(b, &out); err != nil {
		// 壊れたエントリは削除
		_ = f.store.Delete(ctx, key)
		return out, false
	}
	return out, true
}

func (f *Freshness[T]) save(ctx context.Context, key string, v T) {
	b, err := json.Marshal(v)
	if err != nil {
		slog.Warn("cache encode failed", "key", key, "error", err)
		return
	}
	if err := f.store.Set(ctx, key, b, f.ttl); err != nil {
		slog.Warn("cache write failed", "key", key, "error", err)
	}
}
