package orchestrator

import (
	"context"
	"time"

	"commentscraper/pkg/models"
)

// Health reports per-platform readiness, job counts by state, and rate
// limit usage. A platform is available when it has a valid credential and
// its connectivity probe succeeds; with no platform available the overall
// status is degraded.
func (o *Orchestrator) Health(ctx context.Context) models.HealthReport {
	platforms := models.AllPlatforms()
	report := models.HealthReport{
		Platforms:  make(map[models.Platform]models.PlatformHealth, len(platforms)),
		RateLimits: make(map[models.Platform]models.PlatformUsage, len(platforms)),
		Timestamp:  time.Now(),
	}

	for _, platform := range platforms {
		health := o.checkPlatform(ctx, platform)
		report.Platforms[platform] = health
		if health.Available() {
			report.AvailablePlatforms = append(report.AvailablePlatforms, platform)
		}
		report.RateLimits[platform] = o.limits.Usage(platform)
	}

	report.Jobs = o.jobCounts()
	report.Status = models.HealthStatusHealthy
	if len(report.AvailablePlatforms) == 0 {
		report.Status = models.HealthStatusDegraded
	}
	return report
}

// checkPlatform validates the stored credential, then probes connectivity
// under the configured probe timeout.
func (o *Orchestrator) checkPlatform(ctx context.Context, platform models.Platform) models.PlatformHealth {
	health := models.PlatformHealth{Platform: platform}

	cred, err := o.creds.Retrieve(platform)
	if err != nil {
		health.Detail = err.Error()
		return health
	}
	if err := cred.Validate(); err != nil {
		health.Detail = err.Error()
		return health
	}
	health.CredentialValid = true

	probeCtx, cancel := context.WithTimeout(ctx, o.probeTimeout)
	defer cancel()

	health.ProbedAt = time.Now()
	if err := o.probePlatform(probeCtx, platform); err != nil {
		health.Detail = err.Error()
		return health
	}
	health.ProbeOK = true
	return health
}

// probePlatform reuses the cached client when one exists. Otherwise it
// goes through the normal construction path, whose Initialize probes on
// the way in and caches the client for later scrapes.
func (o *Orchestrator) probePlatform(ctx context.Context, platform models.Platform) error {
	o.scrapersMu.Lock()
	s, ok := o.scrapers[platform]
	o.scrapersMu.Unlock()
	if ok {
		return s.Probe(ctx)
	}

	_, err := o.getScraper(ctx, platform)
	return err
}

func (o *Orchestrator) jobCounts() models.JobCounts {
	o.jobsMu.RLock()
	defer o.jobsMu.RUnlock()

	var counts models.JobCounts
	for _, job := range o.jobs {
		switch job.State() {
		case models.JobStatePending:
			counts.Pending++
		case models.JobStateRunning:
			counts.Running++
		case models.JobStateCompleted:
			counts.Completed++
		case models.JobStateFailed:
			counts.Failed++
		case models.JobStateCancelled:
			counts.Cancelled++
		}
	}
	return counts
}
