package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"qrupees/internal/feature/auth/domain/entity"
)

// LoginResult はゲートの判定結果と、Authenticatedの場合は新しいセッションと
// そのBearerトークンを保持します。
type LoginResult struct {
	Outcome Outcome
	Token   string
	Session *entity.Session
}

// authUsecase は登録・ログイン・ログアウトを実装します。
type authUsecase struct {
	accounts      AccountStore
	registrations RegistrationStore
	gate          *AccessGate
	sessions      SessionRepository
	tokens        TokenIssuer
	sessionTTL    time.Duration
	recorder      Recorder
	now           func() time.Time
}

// NewAuthUsecase はauthUsecaseの新しいインスタンスを生成します。recorderはnilでも構いません。
func NewAuthUsecase(accounts AccountStore, registrations RegistrationStore, sessions SessionRepository,
	tokens TokenIssuer, sessionTTL time.Duration, recorder Recorder) *authUsecase {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &authUsecase{
		accounts:      accounts,
		registrations: registrations,
		gate:          NewAccessGate(accounts, registrations),
		sessions:      sessions,
		tokens:        tokens,
		sessionTTL:    sessionTTL,
		recorder:      recorder,
		now:           time.Now,
	}
}

// Register は送信内容を検証し、未承認の登録とともに新しいアカウントを保存します。
// 検証はストアにアクセスする前に行います。
func (u *authUsecase) Register(ctx context.Context, in RegisterInput) error {
	in.Email = strings.TrimSpace(in.Email)
	if err := in.Validate(); err != nil {
		return err
	}

	if _, err := u.accounts.FindByEmail(ctx, in.Email); err == nil {
		return ErrEmailAlreadyRegistered
	} else if !errors.Is(err, ErrAccountNotFound) {
		return fmt.Errorf("look up account: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	accountID, err := u.accounts.Create(ctx, in.Email, string(hashed), false)
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	if err := u.registrations.Create(ctx, accountID, in.Profile()); err != nil {
		// アカウント行は残る（レコード間のトランザクションはない）
		slog.Error("registration write failed after account creation", "account_id", accountID, "error", err)
		return fmt.Errorf("create registration: %w", err)
	}

	u.recorder.Registered()
	slog.Info("registration submitted", "account_id", accountID, "email", in.Email)
	return nil
}

// Login はアクセスゲートを実行し、認証された場合はセッションを開始します。
func (u *authUsecase) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	outcome, acct, err := u.gate.Evaluate(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return nil, err
	}
	u.recorder.LoginAttempt(outcome.String())
	if outcome != Authenticated {
		return &LoginResult{Outcome: outcome}, nil
	}

	sess := &entity.Session{
		ID:            uuid.NewString(),
		AccountID:     acct.ID,
		Email:         acct.Email,
		IsAdmin:       acct.IsAdmin,
		Authenticated: true,
		CreatedAt:     u.now(),
	}
	if err := u.sessions.Create(ctx, sess, u.sessionTTL); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	token, err := u.tokens.GenerateToken(sess)
	if err != nil {
		_ = u.sessions.Delete(ctx, sess.ID)
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &LoginResult{Outcome: outcome, Token: token, Session: sess}, nil
}

// Logout はセッションを削除します。2回ログアウトしてもエラーになりません。
func (u *authUsecase) Logout(ctx context.Context, sessionID string) error {
	if err := u.sessions.Delete(ctx, sessionID); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return err
	}
	return nil
}

// Session はセッションIDを認可コンテキストに解決します。
func (u *authUsecase) Session(ctx context.Context, sessionID string) (*entity.Session, error) {
	return u.sessions.FindByID(ctx, sessionID)
}
