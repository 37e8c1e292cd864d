package claims

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL время жизни захвата по умолчанию
const DefaultTTL = 10 * time.Minute

// MemoryClaimer захват ключей в памяти процесса
// Подходит для одного экземпляра сервиса.
type MemoryClaimer struct {
	mu     sync.Mutex
	ttl    time.Duration
	claims map[string]time.Time // ключ -> момент истечения
	now    func() time.Time
}

// NewMemoryClaimer создает захватчик в памяти
func NewMemoryClaimer(ttl time.Duration) *MemoryClaimer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryClaimer{
		ttl:    ttl,
		claims: make(map[string]time.Time),
		now:    time.Now,
	}
}

// Claim пытается захватить ключ; просроченный захват считается свободным
func (c *MemoryClaimer) Claim(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if expires, ok := c.claims[key]; ok && now.Before(expires) {
		return false, nil
	}
	c.claims[key] = now.Add(c.ttl)
	return true, nil
}

// Release освобождает ключ
func (c *MemoryClaimer) Release(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.claims, key)
	return nil
}
