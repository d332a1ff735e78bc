package session

import (
	"context"
	"sync"
	"time"

	"qrupees/internal/feature/auth/domain/entity"
	"qrupees/internal/feature/auth/usecase"
)

// SessionMemory はプロセスメモリ上のusecase.SessionRepositoryの実装です。
// Redisが設定されていない場合に使われます。
type SessionMemory struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	now   func() time.Time
}

type memoryItem struct {
	session   entity.Session
	expiresAt time.Time // ゼロは無期限
}

var _ usecase.SessionRepository = (*SessionMemory)(nil)

// NewSessionMemory は空のインメモリセッションストアを生成します。
func NewSessionMemory() *SessionMemory {
	return &SessionMemory{items: map[string]memoryItem{}, now: time.Now}
}

func (m *SessionMemory) Create(_ context.Context, session *entity.Session, ttl time.Duration) error {
	item := memoryItem{session: *session}
	if ttl > 0 {
		item.expiresAt = m.now().Add(ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[session.ID] = item
	return nil
}

func (m *SessionMemory) FindByID(_ context.Context, id string) (*entity.Session, error) {
	m.mu.RLock()
	item, ok := m.items[id]
	m.mu.RUnlock()
	if !ok {
		return nil, usecase.ErrSessionNotFound
	}
	if !item.expiresAt.IsZero() && !m.now().Before(item.expiresAt) {
		m.mu.Lock()
		delete(m.items, id)
		m.mu.Unlock()
		return nil, usecase.ErrSessionNotFound
	}
	s := item.session
	return &s, nil
}

func (m *SessionMemory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}
