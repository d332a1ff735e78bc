// Package usecase はauthフィーチャーのビジネスロジックを実装します。
package usecase

import "errors"

var (
	// ErrAccountNotFound はメールアドレスに一致するアカウントがない場合に返されます。
	ErrAccountNotFound = errors.New("account not found")

	// ErrRegistrationNotFound は存在しない登録IDを承認しようとした場合に返されます。
	ErrRegistrationNotFound = errors.New("registration not found")

	// ErrEmailAlreadyRegistered は既にアカウントがあるメールアドレスで登録した場合に返されます。
	ErrEmailAlreadyRegistered = errors.New("email already registered")

	// ErrSessionNotFound はセッションIDが不明またはログアウト済みの場合に返されます。
	ErrSessionNotFound = errors.New("session not found")

	// ErrForbidden は管理者以外のセッションが管理者操作を行おうとした場合に返されます。
	ErrForbidden = errors.New("administrator privileges required")
)
