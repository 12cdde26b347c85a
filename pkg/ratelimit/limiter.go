package ratelimit

import "time"

// Rule caps requests inside a trailing window.
type Rule struct {
	Requests int
	Window   time.Duration
}

// windowState tracks recorded request timestamps for one (platform, endpoint)
// pair, oldest first. It carries no lock of its own; the Registry serializes
// all access under its mutex.
type windowState struct {
	rule     Rule
	requests []time.Time
}

func newWindowState(rule Rule) *windowState {
	return &windowState{
		rule:     rule,
		requests: make([]time.Time, 0, rule.Requests),
	}
}

// acquire evicts timestamps that have left the window, then either records
// now and allows the request, or denies it with the exact time until the
// oldest recorded timestamp expires.
func (w *windowState) acquire(now time.Time) (bool, time.Duration) {
	w.evict(now)

	if len(w.requests) < w.rule.Requests {
		w.requests = append(w.requests, now)
		return true, 0
	}

	oldest := w.requests[0]
	return false, w.rule.Window - now.Sub(oldest)
}

// used counts timestamps still inside the window without recording anything.
func (w *windowState) used(now time.Time) int {
	w.evict(now)
	return len(w.requests)
}

// evict removes requests that have aged out of the trailing window.
func (w *windowState) evict(now time.Time) {
	cutoff := now.Add(-w.rule.Window)

	// Find the first request that's still within the window
	i := 0
	for i < len(w.requests) && !w.requests[i].After(cutoff) {
		i++
	}

	// Keep only requests within the window
	if i > 0 {
		copy(w.requests, w.requests[i:])
		w.requests = w.requests[:len(w.requests)-i]
	}
}

func (w *windowState) reset() {
	w.requests = w.requests[:0]
}

// dailyState tracks a platform's calendar-day usage. The count only ever
// grows within a day and resets when the UTC date changes; trailing-window
// eviction never touches it.
type dailyState struct {
	cap      int
	count    int
	dayStart time.Time // UTC midnight of the day being counted
}

func newDailyState(cap int, now time.Time) *dailyState {
	return &dailyState{cap: cap, dayStart: utcMidnight(now)}
}

// rollover resets the counter when now has crossed into a new UTC day.
func (d *dailyState) rollover(now time.Time) {
	if start := utcMidnight(now); start.After(d.dayStart) {
		d.dayStart = start
		d.count = 0
	}
}

// allowed reports whether another request fits today's ceiling, and when
// the ceiling resets.
func (d *dailyState) allowed(now time.Time) (bool, time.Time) {
	d.rollover(now)
	return d.count < d.cap, d.dayStart.Add(24 * time.Hour)
}

func (d *dailyState) record(now time.Time) {
	d.rollover(now)
	d.count++
}

func utcMidnight(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
