package usecase

import (
	"context"
	"sync"
	"time"

	"qrupees/internal/feature/auth/domain/entity"
)

// mockAccountStore はAccountStoreのモック実装です。
type mockAccountStore struct {
	FindByEmailFunc func(ctx context.Context, email string) (*entity.Account, error)
	CreateFunc      func(ctx context.Context, email, passwordHash string, isAdmin bool) (uint, error)
}

func (m *mockAccountStore) FindByEmail(ctx context.Context, email string) (*entity.Account, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(ctx, email)
	}
	return nil, ErrAccountNotFound // デフォルト: 未登録のメールアドレス
}

func (m *mockAccountStore) Create(ctx context.Context, email, passwordHash string, isAdmin bool) (uint, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, email, passwordHash, isAdmin)
	}
	return 1, nil
}

// mockRegistrationStore はRegistrationStoreのモック実装です。
type mockRegistrationStore struct {
	ApprovalFunc    func(ctx context.Context, accountID uint) (bool, bool, error)
	CreateFunc      func(ctx context.Context, accountID uint, profile entity.Profile) error
	ListPendingFunc func(ctx context.Context) ([]entity.PendingRegistration, error)
	ApproveFunc     func(ctx context.Context, registrationID uint) error
}

func (m *mockRegistrationStore) Approval(ctx context.Context, accountID uint) (bool, bool, error) {
	if m.ApprovalFunc != nil {
		return m.ApprovalFunc(ctx, accountID)
	}
	return false, false, nil
}

func (m *mockRegistrationStore) Create(ctx context.Context, accountID uint, profile entity.Profile) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, accountID, profile)
	}
	return nil
}

func (m *mockRegistrationStore) ListPending(ctx context.Context) ([]entity.PendingRegistration, error) {
	if m.ListPendingFunc != nil {
		return m.ListPendingFunc(ctx)
	}
	return nil, nil
}

func (m *mockRegistrationStore) Approve(ctx context.Context, registrationID uint) error {
	if m.ApproveFunc != nil {
		return m.ApproveFunc(ctx, registrationID)
	}
	return nil
}

// memSessions はインメモリのSessionRepositoryです。
type memSessions struct {
	mu   sync.Mutex
	data map[string]entity.Session
}

func newMemSessions() *memSessions {
	return &memSessions{data: map[string]entity.Session{}}
}

func (m *memSessions) Create(_ context.Context, s *entity.Session, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[s.ID] = *s
	return nil
}

func (m *memSessions) FindByID(_ context.Context, id string) (*entity.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.data[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

func (m *memSessions) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

// mockTokenIssuer はTokenIssuerのモック実装です。
type mockTokenIssuer struct {
	GenerateTokenFunc func(s *entity.Session) (string, error)
}

func (m *mockTokenIssuer) GenerateToken(s *entity.Session) (string, error) {
	if m.GenerateTokenFunc != nil {
		return m.GenerateTokenFunc(s)
	}
	return "mock-jwt-token", nil
}

// countingRecorder は記録されたイベントを数えます。
type countingRecorder struct {
	mu         sync.Mutex
	logins     map[string]int
	registered int
	approved   int
}

func (r *countingRecorder) LoginAttempt(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.logins == nil {
		r.logins = map[string]int{}
	}
	r.logins[outcome]++
}

func (r *countingRecorder) Registered() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registered++
}

func (r *countingRecorder) Approved() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.approved++
}
