package models

import (
	"sync/atomic"
	"time"
)

// ScraperStats is a point-in-time snapshot of a platform scraper's counters.
// The counters are cumulative across every job served by that scraper.
type ScraperStats struct {
	Platform        Platform  `json:"platform"`
	RequestsIssued  int64     `json:"requests_issued"`
	PagesFetched    int64     `json:"pages_fetched"`
	CommentsScraped int64     `json:"comments_scraped"`
	Errors          int64     `json:"errors"`
	RateLimitWaits  int64     `json:"rate_limit_waits"`
	RateLimitHits   int64     `json:"rate_limit_hits"`
	StartedAt       time.Time `json:"started_at"`
	LastActivity    time.Time `json:"last_activity,omitempty"`
}

// StatsCounter accumulates scraper counters with atomics so concurrent jobs
// sharing one scraper never race. The zero value is not usable, call
// NewStatsCounter.
type StatsCounter struct {
	platform        Platform
	startedAt       time.Time
	requestsIssued  atomic.Int64
	pagesFetched    atomic.Int64
	commentsScraped atomic.Int64
	errors          atomic.Int64
	rateLimitWaits  atomic.Int64
	rateLimitHits   atomic.Int64
	lastActivity    atomic.Int64 // unix nanos, 0 until first activity
}

func NewStatsCounter(platform Platform) *StatsCounter {
	return &StatsCounter{platform: platform, startedAt: time.Now()}
}

func (c *StatsCounter) touch() {
	c.lastActivity.Store(time.Now().UnixNano())
}

// RecordRequest counts one HTTP request issued to the platform.
func (c *StatsCounter) RecordRequest() {
	c.requestsIssued.Add(1)
	c.touch()
}

// RecordPage counts one page of results fetched and the records it yielded.
func (c *StatsCounter) RecordPage(comments int) {
	c.pagesFetched.Add(1)
	c.commentsScraped.Add(int64(comments))
	c.touch()
}

// RecordError counts one failed operation.
func (c *StatsCounter) RecordError() {
	c.errors.Add(1)
	c.touch()
}

// RecordRateLimitWait counts one capacity wait imposed by the limiter.
func (c *StatsCounter) RecordRateLimitWait() {
	c.rateLimitWaits.Add(1)
	c.touch()
}

// RecordRateLimitHit counts one 429 received from the platform.
func (c *StatsCounter) RecordRateLimitHit() {
	c.rateLimitHits.Add(1)
	c.touch()
}

// Snapshot returns the current counter values as a value copy.
func (c *StatsCounter) Snapshot() ScraperStats {
	s := ScraperStats{
		Platform:        c.platform,
		RequestsIssued:  c.requestsIssued.Load(),
		PagesFetched:    c.pagesFetched.Load(),
		CommentsScraped: c.commentsScraped.Load(),
		Errors:          c.errors.Load(),
		RateLimitWaits:  c.rateLimitWaits.Load(),
		RateLimitHits:   c.rateLimitHits.Load(),
		StartedAt:       c.startedAt,
	}
	if ns := c.lastActivity.Load(); ns != 0 {
		s.LastActivity = time.Unix(0, ns)
	}
	return s
}
