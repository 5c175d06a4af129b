package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type LockRepositoryInterface interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// RedisLockRepository — распределённый замок на Redis (SET NX).
// Используется гвардом бронирования для сериализации конкурентных
// попыток на одного мастера и дату.
type RedisLockRepository struct {
	client *redis.Client
}

func NewRedisLockRepository(client *redis.Client) LockRepositoryInterface {
	return &RedisLockRepository{client: client}
}

func (r *RedisLockRepository) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, key, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("ошибка взятия замка %q: %w", key, err)
	}
	return ok, nil
}

func (r *RedisLockRepository) Release(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}
