// Package logger はプロセス全体のslogロガーを設定します。
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// Init は指定されたレベルのJSONハンドラーでグローバルロガーを設定します。
func Init(level string) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: ParseLevel(level),
	}))
	slog.SetDefault(logger)
}

// ParseLevel はレベル名をslog.Levelに変換します。不明な名前はInfoになります。
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
