package di

import (
	"github.com/redis/go-redis/v9"

	"qrupees/internal/feature/auth/usecase"
	"qrupees/internal/platform/session"
)

// NewSessionRepository はSessionRepositoryの実装を生成します。
// Redisが利用可能ならRedisの実装を返し、
// そうでなければプロセスメモリにフォールバックします。
func NewSessionRepository(rdb *redis.Client) usecase.SessionRepository {
	if rdb != nil {
		return session.NewSessionRedis(rdb, "session")
	}
	return session.NewSessionMemory()
}
