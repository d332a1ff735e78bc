// Package domain はmarketフィーチャーのドメインレベルのエラーを定義します。
package domain

import "fmt"

// FetchError は上流リクエストの失敗（通信エラー、タイムアウト、2xx以外のステータス、
// 読み取れないボディ）を表します。
type FetchError struct {
	Resource   string
	StatusCode int // レスポンスを受信しなかった場合は0
	Cause      error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: http %d: %v", e.Resource, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("fetch %s: %v", e.Resource, e.Cause)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// ParseError は形を読み取れなかったペイロードを表します。
type ParseError struct {
	Format string
	Cause  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s payload: %v", e.Format, e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
