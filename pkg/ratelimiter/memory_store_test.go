package ratelimiter_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenlearn/notify/pkg/ratelimiter"
)

func TestNewBucket_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		config  ratelimiter.Config
		wantErr bool
	}{
		{
			name: "valid config",
			config: ratelimiter.Config{
				Capacity:       60,
				RefillRate:     60,
				RefillInterval: time.Minute,
			},
		},
		{
			name: "zero capacity",
			config: ratelimiter.Config{
				RefillRate:     10,
				RefillInterval: time.Second,
			},
			wantErr: true,
		},
		{
			name: "zero refill rate",
			config: ratelimiter.Config{
				Capacity:       60,
				RefillInterval: time.Second,
			},
			wantErr: true,
		},
		{
			name: "zero refill interval",
			config: ratelimiter.Config{
				Capacity:   60,
				RefillRate: 10,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0))
			_, err := ratelimiter.NewBucket(store, tt.config)
			if tt.wantErr {
				require.ErrorIs(t, err, ratelimiter.ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestBucket_AllowsBurstUpToCapacity(t *testing.T) {
	t.Parallel()

	store := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0))
	bucket, err := ratelimiter.NewBucket(store, ratelimiter.Config{
		Capacity:       5,
		RefillRate:     5,
		RefillInterval: time.Minute,
	})
	require.NoError(t, err)

	ctx := context.Background()

	// Nth message is allowed, N+1th is not.
	for i := range 5 {
		result, err := bucket.Allow(ctx, "conn-1")
		require.NoError(t, err)
		assert.True(t, result.Allowed(), "message %d should be allowed", i+1)
	}

	result, err := bucket.Allow(ctx, "conn-1")
	require.NoError(t, err)
	assert.False(t, result.Allowed())
	assert.Greater(t, result.RetryAfter(), time.Duration(0))
}

func TestBucket_KeysAreIndependent(t *testing.T) {
	t.Parallel()

	store := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0))
	bucket, err := ratelimiter.NewBucket(store, ratelimiter.Config{
		Capacity:       1,
		RefillRate:     1,
		RefillInterval: time.Minute,
	})
	require.NoError(t, err)

	ctx := context.Background()

	result, err := bucket.Allow(ctx, "conn-1")
	require.NoError(t, err)
	assert.True(t, result.Allowed())

	result, err = bucket.Allow(ctx, "conn-1")
	require.NoError(t, err)
	assert.False(t, result.Allowed())

	result, err = bucket.Allow(ctx, "conn-2")
	require.NoError(t, err)
	assert.True(t, result.Allowed())
}

func TestBucket_Refill(t *testing.T) {
	t.Parallel()

	store := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0))
	bucket, err := ratelimiter.NewBucket(store, ratelimiter.Config{
		Capacity:       2,
		RefillRate:     2,
		RefillInterval: 50 * time.Millisecond,
	})
	require.NoError(t, err)

	ctx := context.Background()

	for range 2 {
		result, err := bucket.Allow(ctx, "conn-1")
		require.NoError(t, err)
		require.True(t, result.Allowed())
	}

	result, err := bucket.Allow(ctx, "conn-1")
	require.NoError(t, err)
	require.False(t, result.Allowed())

	time.Sleep(60 * time.Millisecond)

	result, err = bucket.Allow(ctx, "conn-1")
	require.NoError(t, err)
	assert.True(t, result.Allowed())
}

func TestBucket_Reset(t *testing.T) {
	t.Parallel()

	store := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0))
	bucket, err := ratelimiter.NewBucket(store, ratelimiter.Config{
		Capacity:       1,
		RefillRate:     1,
		RefillInterval: time.Minute,
	})
	require.NoError(t, err)

	ctx := context.Background()

	_, err = bucket.Allow(ctx, "conn-1")
	require.NoError(t, err)

	result, err := bucket.Allow(ctx, "conn-1")
	require.NoError(t, err)
	require.False(t, result.Allowed())

	require.NoError(t, bucket.Reset(ctx, "conn-1"))

	result, err = bucket.Allow(ctx, "conn-1")
	require.NoError(t, err)
	assert.True(t, result.Allowed())
}

func TestBucket_AllowN_InvalidCount(t *testing.T) {
	t.Parallel()

	store := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0))
	bucket, err := ratelimiter.NewBucket(store, ratelimiter.Config{
		Capacity:       1,
		RefillRate:     1,
		RefillInterval: time.Minute,
	})
	require.NoError(t, err)

	_, err = bucket.AllowN(context.Background(), "conn-1", 0)
	require.ErrorIs(t, err, ratelimiter.ErrInvalidTokenCount)
}
