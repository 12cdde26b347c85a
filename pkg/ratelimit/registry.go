package ratelimit

import (
	"context"
	"sort"
	"sync"
	"time"

	"commentscraper/pkg/logger"
	"commentscraper/pkg/models"
)

// Key identifies one metered API surface.
type Key struct {
	Platform models.Platform
	Endpoint string
}

// Registry is the process-wide rate limiter. One mutex guards every window,
// daily counter and hit counter, so a capacity decision and the recording
// of the request it admits are a single atomic step.
type Registry struct {
	mu       sync.Mutex
	windows  map[Key]*windowState
	daily    map[models.Platform]*dailyState
	hits     map[Key]int64
	unscoped map[Key]bool // unconfigured pairs already warned about

	now func() time.Time
	log logger.Logger
}

// NewRegistry builds a registry from per-pair window rules and per-platform
// daily ceilings. Platforms absent from daily have no calendar quota.
func NewRegistry(rules map[Key]Rule, daily map[models.Platform]int, log logger.Logger) *Registry {
	r := &Registry{
		windows:  make(map[Key]*windowState, len(rules)),
		daily:    make(map[models.Platform]*dailyState, len(daily)),
		hits:     make(map[Key]int64),
		unscoped: make(map[Key]bool),
		now:      time.Now,
		log:      log,
	}
	for key, rule := range rules {
		if rule.Requests > 0 && rule.Window > 0 {
			r.windows[key] = newWindowState(rule)
		}
	}
	now := r.now()
	for platform, cap := range daily {
		if cap > 0 {
			r.daily[platform] = newDailyState(cap, now)
		}
	}
	return r
}

// Acquire asks for one request slot on (platform, endpoint). Allowed
// requests are recorded before the caller proceeds; the slot is spent even
// if the HTTP call afterwards fails. Denials return the exact duration
// until the oldest in-window request expires. Pairs without a configured
// rule are always allowed, with a one-time warning.
func (r *Registry) Acquire(platform models.Platform, endpoint string) (bool, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := Key{Platform: platform, Endpoint: endpoint}
	now := r.now()

	w, configured := r.windows[key]
	if !configured {
		if !r.unscoped[key] {
			r.unscoped[key] = true
			r.log.WarnWithFields("No rate limit configured, treating as unconstrained", map[string]interface{}{
				"platform": platform.String(),
				"endpoint": endpoint,
			})
		}
		r.recordDailyLocked(platform, now)
		return true, 0
	}

	ok, wait := w.acquire(now)
	if ok {
		r.recordDailyLocked(platform, now)
	}
	return ok, wait
}

// recordDailyLocked counts one admitted request toward the platform's
// calendar quota. Caller holds r.mu.
func (r *Registry) recordDailyLocked(platform models.Platform, now time.Time) {
	if d, ok := r.daily[platform]; ok {
		d.record(now)
	}
}

// WaitForCapacity blocks until Acquire admits a request on the pair,
// sleeping exactly the denial wait between attempts. It returns the total
// time spent waiting so callers can count limiter-imposed pauses, and the
// context error if cancelled mid-wait.
func (r *Registry) WaitForCapacity(ctx context.Context, platform models.Platform, endpoint string) (time.Duration, error) {
	var waited time.Duration
	for {
		ok, wait := r.Acquire(platform, endpoint)
		if ok {
			return waited, nil
		}
		if wait <= 0 {
			continue
		}

		r.log.DebugWithFields("Waiting for rate limit capacity", map[string]interface{}{
			"platform": platform.String(),
			"endpoint": endpoint,
			"wait":     wait.String(),
		})

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return waited, ctx.Err()
		case <-timer.C:
			waited += wait
		}
	}
}

// CanMakeDailyRequest reports whether the platform still has calendar-day
// budget, and when the budget resets (next UTC midnight). Platforms with
// no daily ceiling always have budget.
func (r *Registry) CanMakeDailyRequest(platform models.Platform) (bool, time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.daily[platform]
	if !ok {
		return true, time.Time{}
	}
	return d.allowed(r.now())
}

// RecordHit counts one 429 received from the platform on the endpoint.
func (r *Registry) RecordHit(platform models.Platform, endpoint string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hits[Key{Platform: platform, Endpoint: endpoint}]++
}

// Usage snapshots the platform's window and daily state for health
// reporting. Nothing is recorded.
func (r *Registry) Usage(platform models.Platform) models.PlatformUsage {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	usage := models.PlatformUsage{Platform: platform}

	for key, w := range r.windows {
		if key.Platform != platform {
			continue
		}
		used := w.used(now)
		usage.Endpoints = append(usage.Endpoints, models.EndpointUsage{
			Endpoint:  key.Endpoint,
			Used:      used,
			Capacity:  w.rule.Requests,
			Window:    w.rule.Window,
			Remaining: w.rule.Requests - used,
		})
	}
	sort.Slice(usage.Endpoints, func(i, j int) bool {
		return usage.Endpoints[i].Endpoint < usage.Endpoints[j].Endpoint
	})

	if d, ok := r.daily[platform]; ok {
		d.rollover(now)
		usage.DailyUsed = d.count
		usage.DailyCap = d.cap
		usage.DailyReset = d.dayStart.Add(24 * time.Hour)
	}

	for key, count := range r.hits {
		if key.Platform == platform {
			usage.Hits429 += count
		}
	}
	return usage
}

// Reset drops every recorded request, daily count and hit counter.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, w := range r.windows {
		w.reset()
	}
	now := r.now()
	for platform, d := range r.daily {
		r.daily[platform] = newDailyState(d.cap, now)
	}
	r.hits = make(map[Key]int64)
}
