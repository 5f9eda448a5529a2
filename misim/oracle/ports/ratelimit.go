package oracleports

import "context"

// RateLimiter coordinates throughput across conversations sharing a backend.
type RateLimiter interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}
