package claims

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript удаляет ключ, только если им владеет этот экземпляр
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisClaimer захват ключей через SET NX с TTL
// Позволяет нескольким экземплярам сервиса не отправлять одно напоминание дважды.
type RedisClaimer struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
	owner  string
}

// NewRedisClaimer создает захватчик поверх клиента Redis
func NewRedisClaimer(rdb redis.UniversalClient, prefix string, ttl time.Duration) *RedisClaimer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisClaimer{
		rdb:    rdb,
		prefix: prefix,
		ttl:    ttl,
		owner:  uuid.NewString(),
	}
}

// Claim пытается захватить ключ; false - ключ уже захвачен
func (c *RedisClaimer) Claim(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}

	ok, err := c.rdb.SetNX(ctx, c.prefix+key, c.owner, c.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: Claim - setnx %s: %v", ErrClaimStore, key, err)
	}
	return ok, nil
}

// Release освобождает ключ, если им владеет этот экземпляр
func (c *RedisClaimer) Release(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	if err := releaseScript.Run(ctx, c.rdb, []string{c.prefix + key}, c.owner).Err(); err != nil {
		return fmt.Errorf("%w: Release - %s: %v", ErrClaimStore, key, err)
	}
	return nil
}

// NewRedisClient создает клиент Redis и проверяет соединение
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	if addr == "" {
		return nil, fmt.Errorf("%w: redis addr is empty", ErrClaimStore)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%w: redis ping failed: %v", ErrClaimStore, err)
	}

	return rdb, nil
}
