// Package httputil provides HTTP utilities for registry page clients.
//
// # Retry
//
// [Retry] wraps HTTP requests with automatic retry for transient failures:
//
//   - Network errors
//   - 5xx server errors
//   - 429 rate limit responses
//
// Callers mark an error as transient by wrapping it in [RetryableError];
// anything else aborts the loop immediately. The delay doubles after each
// failed attempt, capped at 30 seconds:
//
//	err := httputil.Retry(ctx, 0, time.Second, func() error {
//	    return fetchPage(ctx, url)
//	})
//
// attempts <= 0 retries without bound, which is what the registry fetchers
// use: a flaky connection should never turn into a missing release history,
// only a slower one. Cancel the context to give up.
//
// [RetryWithBackoff] bounds the loop at 3 attempts with a 1 second initial
// delay for operations where failing fast is preferable.
package httputil
