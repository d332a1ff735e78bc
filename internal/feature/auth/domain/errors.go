// Package domain はauthフィーチャーのドメインレベルのエラーを定義します。
package domain

import "fmt"

// ValidationError は拒否された入力フィールドを表します。これが返された場合、
// 何も永続化されていません。
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// StoreError はレコードバックエンドの障害（接続不可、書き込み拒否）をラップします。
// 起動後にバックエンド間でフォールバックすることはないため、操作したユーザーにそのまま伝わります。
type StoreError struct {
	Backend string // "local" または "remote"
	Op      string
	Err     error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s store: %s: %v", e.Backend, e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
