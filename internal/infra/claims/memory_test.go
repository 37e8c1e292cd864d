package claims

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryClaimer_ExclusiveUntilRelease(t *testing.T) {
	c := NewMemoryClaimer(time.Minute)
	ctx := context.Background()

	ok, err := c.Claim(ctx, "reminder:1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Claim(ctx, "reminder:1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Release(ctx, "reminder:1"))

	ok, err = c.Claim(ctx, "reminder:1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryClaimer_Expires(t *testing.T) {
	c := NewMemoryClaimer(time.Minute)
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	ok, err := c.Claim(context.Background(), "k")
	require.NoError(t, err)
	require.True(t, ok)

	now = now.Add(2 * time.Minute)
	ok, err = c.Claim(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryClaimer_Concurrent(t *testing.T) {
	c := NewMemoryClaimer(time.Minute)

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		won int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := c.Claim(context.Background(), "k")
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				won++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, won)
}

func TestEmptyKey(t *testing.T) {
	c := NewMemoryClaimer(0)
	_, err := c.Claim(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyKey)
	assert.ErrorIs(t, c.Release(context.Background(), ""), ErrEmptyKey)

	r := NewRedisClaimer(nil, "p:", 0)
	_, err = r.Claim(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyKey)
}
