// Package entity はauthフィーチャーのドメインエンティティを定義します。
package entity

// Account はログインIDです。登録時または起動時（管理者）に作成され、
// その後は変更されません。
type Account struct {
	// ID はストアが採番します。
	ID uint

	// Email は全アカウントで一意です。
	Email string

	// PasswordHash はbcryptハッシュです。平文は保存しません。
	PasswordHash string

	// IsAdmin のアカウントは承認ゲートを通らず、登録を承認できます。
	IsAdmin bool
}
