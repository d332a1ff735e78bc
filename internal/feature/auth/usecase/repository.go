package usecase

import (
	"context"
	"time"

	"qrupees/internal/feature/auth/domain/entity"
)

// AccountStore はアカウントの永続化層を抽象化します。ローカル（リレーショナル）と
// リモート（スプレッドシート）の両バックエンドが実装し、どちらを使うかは起動時に1回だけ決まります。
// Goの慣例に従い、インターフェースはプロバイダー（adapters）ではなくコンシューマー（usecase）が定義します。
type AccountStore interface {
	// FindByEmail はメールアドレスに一致するアカウントがない場合ErrAccountNotFoundを返します。
	FindByEmail(ctx context.Context, email string) (*entity.Account, error)

	// Create はアカウントを挿入してIDを返します。既存のメールアドレスの場合は何もせず
	// 既存のIDを返すため、区別が必要な呼び出し元は先にFindByEmailを呼びます。
	Create(ctx context.Context, email, passwordHash string, isAdmin bool) (uint, error)
}

// RegistrationStore は登録の永続化層を抽象化します。
type RegistrationStore interface {
	// Approval はアカウントの登録の承認フラグを返します。
	// 登録がない場合foundはfalseです。
	Approval(ctx context.Context, accountID uint) (approved bool, found bool, err error)

	// Create はApproved=falseで登録を挿入します。
	Create(ctx context.Context, accountID uint, profile entity.Profile) error

	// ListPending は未承認の登録をアカウントのメールアドレスと結合して返します。
	ListPending(ctx context.Context) ([]entity.PendingRegistration, error)

	// Approve はApproved=trueにします。承認済みの登録の承認は何もせず、
	// 存在しないIDはErrRegistrationNotFoundを返します。
	Approve(ctx context.Context, registrationID uint) error
}

// SessionRepository はログアウトまで認証済みセッションを保存します。
type SessionRepository interface {
	Create(ctx context.Context, session *entity.Session, ttl time.Duration) error
	// FindByID は不明またはログアウト済みのセッションにErrSessionNotFoundを返します。
	FindByID(ctx context.Context, id string) (*entity.Session, error)
	Delete(ctx context.Context, id string) error
}

// TokenIssuer はセッションを参照するBearerトークンに署名します。
type TokenIssuer interface {
	GenerateToken(session *entity.Session) (string, error)
}

// Recorder はメトリクス用の認証イベントを受け取ります。nilでも構いません。
type Recorder interface {
	LoginAttempt(outcome string)
	Registered()
	Approved()
}

type noopRecorder struct{}

func (noopRecorder) LoginAttempt(string) {}
func (noopRecorder) Registered()         {}
func (noopRecorder) Approved()           {}
