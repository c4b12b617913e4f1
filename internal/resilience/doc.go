// Package resilience provides reliability and fault tolerance patterns for the application.
//
// The package supports:
//   - Circuit breakers in front of optional dependencies such as the Redis cache
//   - Retry logic with exponential backoff and jitter for transient database failures
//
// Usage Example:
//
//	cb := circuitbreaker.New(circuitbreaker.CacheConfig("page-count"))
//	result, err := cb.Execute(func() (interface{}, error) {
//	    return backend.GetList(ctx, key)
//	})
//
//	err := retry.WithBackoff(ctx, retry.RatingWriteConfig(), func() error {
//	    return books.UpdateRating(ctx, id, avg, entity.RatingConsistent)
//	})
package resilience
