package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Policy параметры повторных попыток для компенсирующих операций
type Policy struct {
	MaxTries        uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultPolicy политика по умолчанию: 3 попытки с экспоненциальной задержкой
func DefaultPolicy() Policy {
	return Policy{
		MaxTries:        3,
		InitialInterval: 50 * time.Millisecond,
		MaxInterval:     500 * time.Millisecond,
	}
}

// Do выполняет op, пока она не вернет true, не исчерпаются попытки или не отменится ctx
// Ответ false без ошибки считается окончательным и не повторяется
func Do(ctx context.Context, p Policy, op func(ctx context.Context) (bool, error)) (bool, error) {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}

	tries := p.MaxTries
	if tries == 0 {
		tries = 1
	}

	return backoff.Retry(ctx, func() (bool, error) {
		return op(ctx)
	}, backoff.WithBackOff(b), backoff.WithMaxTries(tries))
}
