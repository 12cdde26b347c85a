package models

import "time"

// HealthStatus is the overall orchestrator condition.
type HealthStatus string

const (
	HealthStatusHealthy  HealthStatus = "healthy"
	HealthStatusDegraded HealthStatus = "degraded"
)

/// PlatformHealth describes one platform's readiness: whether a credential
// is present and valid, and the result of the most recent connectivity probe.
type PlatformHealth struct {
	Platform        Platform  `json:"platform"`
	CredentialValid bool      `json:"credential_valid"`
	ProbeOK         bool      `json:"probe_ok"`
	ProbedAt        time.Time `json:"probed_at,omitempty"`
	Detail          string    `json:"detail,omitempty"`
}

// Available reports whether the platform can currently serve scrapes.
func (h PlatformHealth) Available() bool {
	return h.CredentialValid && h.ProbeOK
}

// EndpointUsage is a rate-limit window snapshot for one endpoint.
type EndpointUsage struct {
	Endpoint  string        `json:"endpoint"`
	Used      int           `json:"used"`
	Capacity  int           `json:"capacity"`
	Window    time.Duration `json:"window"`
	Remaining int           `json:"remaining"`
}

// PlatformUsage aggregates rate-limit usage for one platform.
type PlatformUsage struct {
	Platform   Platform        `json:"platform"`
	Endpoints  []EndpointUsage `json:"endpoints,omitempty"`
	DailyUsed  int             `json:"daily_used,omitempty"`
	DailyCap   int             `json:"daily_cap,omitempty"`
	DailyReset time.Time       `json:"daily_reset,omitempty"`
	Hits429    int64           `json:"hits_429,omitempty"`
}

// JobCounts tallies registered jobs by state.
type JobCounts struct {
	Pending   int `json:"pending"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Cancelled int `json:"cancelled"`
}

// Total returns the number of jobs across all states.
func (c JobCounts) Total() int {
	return c.Pending + c.Running + c.Completed + c.Failed + c.Cancelled
}

// HealthReport is the orchestrator's aggregated health view.
type HealthReport struct {
	Status             HealthStatus                `json:"status"`
	AvailablePlatforms []Platform                  `json:"available_platforms"`
	Platforms          map[Platform]PlatformHealth `json:"platforms"`
	Jobs               JobCounts                   `json:"jobs"`
	RateLimits         map[Platform]PlatformUsage  `json:"rate_limits,omitempty"`
	Timestamp          time.Time                   `json:"timestamp"`
}
