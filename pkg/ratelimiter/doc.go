// Package ratelimiter implements token bucket rate limiting with pluggable
// storage backends.
//
// A Bucket is configured with a capacity (burst limit) and a refill schedule,
// and delegates state to a Store. Two stores are provided: MemoryStore for
// single-process deployments and RedisStore for deployments where the limit
// must be shared across instances.
//
//	store := ratelimiter.NewMemoryStore()
//	bucket, err := ratelimiter.NewBucket(store, ratelimiter.Config{
//	    Capacity:       60,
//	    RefillRate:     60,
//	    RefillInterval: time.Minute,
//	})
//
//	result, err := bucket.Allow(ctx, "conn:"+connID)
//	if !result.Allowed() {
//	    // reject, retry after result.RetryAfter()
//	}
package ratelimiter
