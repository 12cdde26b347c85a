package orchestrator

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"commentscraper/pkg/auth"
	"commentscraper/pkg/config"
	errs "commentscraper/pkg/errors"
	"commentscraper/pkg/logger"
	"commentscraper/pkg/models"
	"commentscraper/pkg/platforms"
	"commentscraper/pkg/ratelimit"
	"commentscraper/pkg/scraper"
)

const defaultProbeTimeout = 10 * time.Second

// factoryFunc builds a platform client. Tests swap it out for mocks.
type factoryFunc func(platform models.Platform, cred *auth.Credential) (scraper.Scraper, error)

// Orchestrator coordinates scraping runs. It caches one initialized client
// per platform, registers every run as a job that other goroutines can
// watch or cancel, and bounds concurrent scrapes with a shared semaphore.
type Orchestrator struct {
	cfg           *config.Config
	creds         *auth.Manager
	limits        *ratelimit.Registry
	log           logger.Logger
	sem           *semaphore.Weighted
	factory       factoryFunc
	maxConcurrent int64
	probeTimeout  time.Duration

	scrapersMu sync.Mutex
	scrapers   map[models.Platform]scraper.Scraper

	jobsMu  sync.RWMutex
	jobs    map[string]*models.Job
	cancels map[string]context.CancelFunc
}

// New builds an orchestrator over the given credential manager. The rate
// limit registry is created from cfg and shared by every platform client
// the orchestrator constructs.
func New(cfg *config.Config, creds *auth.Manager, log logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.GetLogger()
	}

	maxConcurrent := cfg.Orchestrator.MaxConcurrentScrapes
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	probeTimeout := cfg.Orchestrator.ProbeTimeout
	if probeTimeout <= 0 {
		probeTimeout = defaultProbeTimeout
	}

	limits := platforms.NewRegistry(cfg.RateLimits, log)

	o := &Orchestrator{
		cfg:           cfg,
		creds:         creds,
		limits:        limits,
		log:           log,
		sem:           semaphore.NewWeighted(maxConcurrent),
		maxConcurrent: maxConcurrent,
		probeTimeout:  probeTimeout,
		scrapers:      make(map[models.Platform]scraper.Scraper),
		jobs:          make(map[string]*models.Job),
		cancels:       make(map[string]context.CancelFunc),
	}
	o.factory = func(platform models.Platform, cred *auth.Credential) (scraper.Scraper, error) {
		return platforms.New(platform, cfg, cred, limits, log)
	}

	logger.LogComponentStart("orchestrator", map[string]interface{}{
		"max_concurrent_scrapes": maxConcurrent,
		"probe_timeout":          probeTimeout.String(),
	})
	return o
}

// getScraper returns the cached client for the platform, creating and
// initializing it on first use. Failed creations are not cached, so the
// next call starts over with a fresh credential lookup.
func (o *Orchestrator) getScraper(ctx context.Context, platform models.Platform) (scraper.Scraper, error) {
	o.scrapersMu.Lock()
	defer o.scrapersMu.Unlock()

	if s, ok := o.scrapers[platform]; ok {
		return s, nil
	}

	cred, err := o.creds.Retrieve(platform)
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrorTypeAuth, "no credential available").WithPlatform(platform.String())
	}

	s, err := o.factory(platform, cred)
	if err != nil {
		return nil, err
	}
	if err := s.Initialize(ctx); err != nil {
		_ = s.Cleanup()
		return nil, err
	}

	o.scrapers[platform] = s
	o.log.InfoWithFields("platform client ready", map[string]interface{}{
		"platform": platform.String(),
	})
	return s, nil
}

// Shutdown releases every cached platform client. Cleanup runs on all of
// them even when one fails; the first error is returned.
func (o *Orchestrator) Shutdown() error {
	o.scrapersMu.Lock()
	defer o.scrapersMu.Unlock()

	var firstErr error
	for platform, s := range o.scrapers {
		if err := s.Cleanup(); err != nil {
			o.log.WithError(err).WithField("platform", platform.String()).Warn("platform client cleanup failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	o.scrapers = make(map[models.Platform]scraper.Scraper)

	logger.LogComponentStop("orchestrator", "shutdown")
	return firstErr
}
