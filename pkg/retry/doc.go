// Package retry provides exponential backoff and retry logic for handling
// transient failures in network operations, particularly for comment API page
// fetches.
//
// Features:
//   - Multiple backoff strategies (exponential, linear, constant)
//   - Jitter to avoid thundering herd problems
//   - Context support for cancellation
//   - Configurable retry predicates
//   - Integration with the platform error types
//
// Basic usage:
//
//	// Simple retry with defaults
//	err := retry.Do(func() error {
//		return client.refreshToken(ctx)
//	}, nil)
//
//	// Custom configuration
//	cfg := &retry.Config{
//		MaxAttempts: 5,
//		Backoff: &retry.ExponentialBackoff{
//			BaseDelay:    2 * time.Second,
//			MaxDelay:     30 * time.Second,
//			Multiplier:   2.0,
//			JitterFactor: 0.1,
//		},
//		RetryIf: retry.DefaultRetryIf,
//		Logger:  logger.GetLogger(),
//	}
//	err := retry.Do(operation, cfg)
//
//	// Typed results without a closure variable
//	page, err := retry.DoWithResult(func() (*commentPage, error) {
//		return client.fetchPage(ctx, cursor)
//	}, cfg)
//
// The default predicate retries network and server errors, refuses auth,
// validation, and not-found errors, and never retries context cancellation.
// Rate limit errors are handled by the platform clients themselves (a 429 is
// honored at most once per page via Retry-After), so they pass through the
// retry layer untouched.
package retry
