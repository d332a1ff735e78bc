package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// EnsureAdmin は同じメールアドレスのアカウントがなければ管理者アカウントを作成します。
// 起動時に選択されたバックエンドに対して1回実行されます。
func EnsureAdmin(ctx context.Context, accounts AccountStore, email, password string) error {
	_, err := accounts.FindByEmail(ctx, email)
	if err == nil {
		slog.Debug("administrator account present", "email", email)
		return nil
	}
	if !errors.Is(err, ErrAccountNotFound) {
		return fmt.Errorf("look up administrator: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	id, err := accounts.Create(ctx, email, string(hashed), true)
	if err != nil {
		return fmt.Errorf("create administrator: %w", err)
	}
	slog.Info("administrator account created", "email", email, "account_id", id)
	return nil
}
