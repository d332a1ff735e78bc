// Package cache は市場データパイプラインで使う時間窓キャッシュを提供します。
// ストアはプロセス内メモリと任意のRedisの2種類です。
package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store はシリアライズ済みの値をTTLが切れるまでキーごとに保持します。
type Store interface {
	// Get はkeyの値を返します。キーが存在しないか期限切れの場合、foundはfalseです。
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// MemoryStore はプロセスローカルなStoreです。有効期限は読み取り時に注入された時計で判定します。
type MemoryStore struct {
	mu    sync.RWMutex
	now   func() time.Time
	items map[string]memoryItem
}

type memoryItem struct {
	value   []byte
	expires time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore は空のストアを生成します。clockがnilならtime.Nowを使います。
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{now: now, items: make(map[string]memoryItem)}
}

// Get は期限切れでなければkeyの値を返します。
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	it, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !s.now().Before(it.expires) {
		s.mu.Lock()
		// 間に別の書き込みでエントリが更新されている可能性がある
		if cur, ok := s.items[key]; ok && !s.now().Before(cur.expires) {
			delete(s.items, key)
		}
		s.mu.Unlock()
		return nil, false, nil
	}
	return it.value, true, nil
}

// Set はvalueをttlの間保存します。
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = memoryItem{value: value, expires: s.now().Add(ttl)}
	return nil
}

// Delete はkeyを削除します。
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

// RedisStore はRedisを使うStoreです。複数のサーバープロセスで同じ鮮度ウィンドウを共有できます。
type RedisStore struct {
	rdb *redis.Client
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore は既存のクライアントをラップします。
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// Get はkeyの値を返します。キーが存在しなくてもエラーにはなりません。
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.rdb.Get(ctx, safe(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, len(b) > 0, nil
}

// Set はRedisのTTL付きでvalueを保存します。
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.rdb.Set(ctx, safe(key), value, ttl).Err()
}

// Delete はkeyを削除します。
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, safe(key)).Err()
}

// safe はRedisキーで扱いにくい文字を置換します。コロンは名前空間の区切りとして残します。
func safe(s string) string {
	return strings.ReplaceAll(s, " ", "_")
}
