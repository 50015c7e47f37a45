package session

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// время жизни сессионных ключей; обновляется при каждой записи
const sessionTTL = 12 * time.Hour

// RedisStore хранит сессионное состояние в Redis, переживая перезапуск
// шлюза в пределах рабочей смены асессора.
type RedisStore struct {
	rdb      *redis.Client
	asesorID string
}

// NewRedisStore создает хранилище для одного асессора.
// Подключение проверяется сразу.
func NewRedisStore(ctx context.Context, addr, password string, db int, asesorID string) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return &RedisStore{rdb: rdb, asesorID: asesorID}, nil
}

func (s *RedisStore) SetOpenChat(ctx context.Context, vista, casoID string) error {
	return s.rdb.Set(ctx, chatKey(s.asesorID, vista), casoID, sessionTTL).Err()
}

func (s *RedisStore) OpenChat(ctx context.Context, vista string) (string, error) {
	val, err := s.rdb.Get(ctx, chatKey(s.asesorID, vista)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return val, err
}

func (s *RedisStore) ClearOpenChat(ctx context.Context, vista string) error {
	return s.rdb.Del(ctx, chatKey(s.asesorID, vista)).Err()
}

// Close закрывает подключение к Redis
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
