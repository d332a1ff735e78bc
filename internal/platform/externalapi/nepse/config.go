// Package nepse はネパール証券取引所の公開サイト用HTTPクライアントです。
package nepse

import "time"

// Endpoint はリソースをホスト上のパスとペイロード形式に対応付けます。
type Endpoint struct {
	Path   string
	Format string
}

// Config は取引所クライアントの設定を保持します。
type Config struct {
	BaseURL      string              // 例: "https://www.nepalstock.com"
	UserAgent    string              // ブラウザ風の識別ヘッダー
	HistoryLimit int                 // 履歴エンドポイントの_limitクエリパラメータ
	Endpoints    map[string]Endpoint // entity.ResourceKind.String() をキーとする
}

// Observer は上流リクエストのたびに通知を受けます。
type Observer func(resource, outcome string, elapsed time.Duration)
