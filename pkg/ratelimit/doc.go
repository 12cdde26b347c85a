// Package ratelimit provides request accounting for the comment scrapers.
//
// Every platform API meters differently, so limits are keyed by
// (platform, endpoint) pairs, each with its own trailing window. A central
// Registry owns all counters behind a single mutex: deciding whether a
// request may proceed and recording it happen in one critical section, so
// two concurrent callers can never both claim the last slot.
//
// Trailing windows:
//   - Each configured pair keeps the timestamps of its recent requests.
//   - A request is allowed while fewer than Rule.Requests timestamps fall
//     inside the trailing Rule.Window; allowing it records it immediately.
//     The slot stays burned even if the HTTP call that follows fails.
//   - A denied request learns exactly how long until the oldest recorded
//     timestamp leaves the window.
//
// Daily quotas:
//   - Platforms that meter by calendar day (YouTube, TikTok) carry an
//     additional counter that every recorded request increments.
//   - The counter never decreases within a day. Window eviction does not
//     touch it; it resets only when the UTC date changes.
//
// Pairs with no configured rule are unconstrained. The first time such a
// pair is seen the registry logs a warning, then stays quiet about it.
//
// Usage:
//
//	reg := ratelimit.NewRegistry(rules, daily, log)
//
//	if ok, resetAt := reg.CanMakeDailyRequest(platform); !ok {
//	    // Out of daily budget until resetAt.
//	}
//	waited, err := reg.WaitForCapacity(ctx, platform, endpoint)
//	// Proceed with request.
package ratelimit
