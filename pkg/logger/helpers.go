package logger

import (
	"fmt"
	"time"
)

// LogPageFetch logs one completed page request against a platform API.
func LogPageFetch(platform, endpoint string, page, records, statusCode int, duration time.Duration) {
	fields := map[string]interface{}{
		"platform":    platform,
		"endpoint":    endpoint,
		"page":        page,
		"records":     records,
		"status_code": statusCode,
		"duration_ms": float64(duration.Microseconds()) / 1000.0,
	}

	switch {
	case statusCode >= 500:
		GetLogger().ErrorWithFields("Page fetch server error", fields)
	case statusCode >= 400:
		GetLogger().WarnWithFields("Page fetch client error", fields)
	default:
		GetLogger().DebugWithFields("Page fetched", fields)
	}
}

// LogRateLimitWait logs a limiter-imposed pause before a request.
func LogRateLimitWait(platform, endpoint string, wait time.Duration) {
	GetLogger().WithFields(map[string]interface{}{
		"platform": platform,
		"endpoint": endpoint,
		"wait":     wait.String(),
		"action":   "rate_limit_wait",
	}).Debug("Waiting for rate limit capacity")
}

// LogRateLimitHit logs a 429 response from the platform.
func LogRateLimitHit(platform, endpoint string, retryAfter int) {
	GetLogger().WithFields(map[string]interface{}{
		"platform":    platform,
		"endpoint":    endpoint,
		"retry_after": retryAfter,
		"action":      "rate_limited",
	}).Warn("Rate limit reached, backing off")
}

// LogScrapeProgress logs scraping progress for one piece of content.
func LogScrapeProgress(platform, contentID string, scraped, max int) {
	fields := map[string]interface{}{
		"platform":   platform,
		"content_id": contentID,
		"scraped":    scraped,
	}
	if max > 0 {
		fields["max"] = max
		fields["percentage"] = fmt.Sprintf("%.1f%%", float64(scraped)/float64(max)*100)
	}
	GetLogger().InfoWithFields("Scraping progress", fields)
}

// LogJobTransition logs a job state change.
func LogJobTransition(jobID, platform, from, to string) {
	GetLogger().WithFields(map[string]interface{}{
		"job_id":   jobID,
		"platform": platform,
		"from":     from,
		"to":       to,
	}).Info("Job state changed")
}

// LogComponentStart logs when a component starts
func LogComponentStart(component string, config map[string]interface{}) {
	logger := GetLogger().WithField("component", component)

	if len(config) > 0 {
		logger = logger.WithFields(config)
	}

	logger.Info("Component started")
}

// LogComponentStop logs when a component stops
func LogComponentStop(component string, reason string) {
	GetLogger().WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Info("Component stopped")
}
