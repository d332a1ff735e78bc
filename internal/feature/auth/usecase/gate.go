package usecase

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"qrupees/internal/feature/auth/domain/entity"
)

// Outcome は1回のログイン試行の結果です。
type Outcome int

const (
	// CredentialsInvalid はメールアドレスが不明か、パスワードが一致しないことを表します。
	CredentialsInvalid Outcome = iota + 1
	// PendingApproval は認証情報は正しいが、まだ管理者が登録を承認していないことを表します。
	PendingApproval
	// Authenticated はダッシュボードを利用できることを表します。
	Authenticated
)

func (o Outcome) String() string {
	switch o {
	case CredentialsInvalid:
		return "credentials_invalid"
	case PendingApproval:
		return "pending_approval"
	case Authenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// dummyHash はアカウントが存在しない場合の比較に使い、
// 未登録メールとパスワード誤りの処理時間を揃えます。
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// AccessGate はログイン試行を許可するか判定します。状態は持たず、
// 呼び出しのたびに両方のストアを参照します。
type AccessGate struct {
	accounts      AccountStore
	registrations RegistrationStore
}

// NewAccessGate は2つのストアを使うAccessGateを生成します。
func NewAccessGate(accounts AccountStore, registrations RegistrationStore) *AccessGate {
	return &AccessGate{accounts: accounts, registrations: registrations}
}

// Evaluate は(email, password)の組に対してゲートを実行します。アカウントは
// AuthenticatedとPendingApprovalの場合のみ返されます。ストアの障害は
// 判定結果に変換せずエラーとして返します。
func (g *AccessGate) Evaluate(ctx context.Context, email, password string) (Outcome, *entity.Account, error) {
	acct, err := g.accounts.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrAccountNotFound) {
		return 0, nil, fmt.Errorf("look up account: %w", err)
	}

	hash := dummyHash
	if acct != nil {
		hash = acct.PasswordHash
	}
	compareErr := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if acct == nil || compareErr != nil {
		return CredentialsInvalid, nil, nil
	}

	// 管理者は承認ゲートを通らない
	if acct.IsAdmin {
		return Authenticated, acct, nil
	}

	approved, found, err := g.registrations.Approval(ctx, acct.ID)
	if err != nil {
		return 0, nil, fmt.Errorf("look up registration: %w", err)
	}
	if found && approved {
		return Authenticated, acct, nil
	}
	return PendingApproval, acct, nil
}
