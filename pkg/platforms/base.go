package platforms

import (
	"sync"

	"commentscraper/pkg/auth"
	"commentscraper/pkg/config"
	errs "commentscraper/pkg/errors"
	"commentscraper/pkg/logger"
	"commentscraper/pkg/models"
	"commentscraper/pkg/ratelimit"
	"commentscraper/pkg/scraper"
)

// base carries the lifecycle and plumbing every platform scraper shares.
type base struct {
	platform models.Platform
	cred     *auth.Credential
	cfg      *config.Config
	http     *httpClient
	stats    *models.StatsCounter
	log      logger.Logger

	mu          sync.Mutex
	initialized bool
	closed      bool
}

func newBase(platform models.Platform, cfg *config.Config, cred *auth.Credential, limits *ratelimit.Registry, log logger.Logger) base {
	stats := models.NewStatsCounter(platform)
	plog := log.WithField("platform", platform.String())
	return base{
		platform: platform,
		cred:     cred,
		cfg:      cfg,
		http:     newHTTPClient(cfg.Scraper, limits, stats, plog),
		stats:    stats,
		log:      plog,
	}
}

func (b *base) Platform() models.Platform {
	return b.platform
}

func (b *base) Stats() models.ScraperStats {
	return b.stats.Snapshot()
}

// checkCredential rejects a missing, mismatched, or malformed credential
// before any network call.
func (b *base) checkCredential() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return scraper.ErrClosed
	}

	if b.cred == nil {
		return errs.New(errs.ErrorTypeConfiguration, "no credential configured").
			WithPlatform(b.platform.String())
	}
	if b.cred.Platform != b.platform {
		return errs.Newf(errs.ErrorTypeConfiguration,
			"credential is for %s", b.cred.Platform).WithPlatform(b.platform.String())
	}
	if err := b.cred.Validate(); err != nil {
		return errs.Wrap(err, errs.ErrorTypeConfiguration, "credential rejected").
			WithPlatform(b.platform.String())
	}
	return nil
}

func (b *base) markInitialized() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.initialized = true
}

// ensureReady gates Scrape on the uninitialized -> ready -> closed lifecycle.
func (b *base) ensureReady() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return scraper.ErrClosed
	}
	if !b.initialized {
		return scraper.ErrNotInitialized
	}
	return nil
}

// Cleanup closes the scraper. Idempotent and safe after a failed Initialize.
func (b *base) Cleanup() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	b.initialized = false
	b.http.client.CloseIdleConnections()
	b.log.Debug("scraper closed")
	return nil
}

// validateRequest applies defaults and runs the shared request checks.
func (b *base) validateRequest(req *models.ScrapeRequest) (models.ScrapeRequest, error) {
	if req == nil {
		return models.ScrapeRequest{}, errs.New(errs.ErrorTypeValidation, "nil request").
			WithPlatform(b.platform.String())
	}
	r := req.WithDefaults()
	if err := r.Validate(); err != nil {
		return models.ScrapeRequest{}, errs.Wrap(err, errs.ErrorTypeValidation, "invalid request").
			WithPlatform(b.platform.String())
	}
	if r.Platform != b.platform {
		return models.ScrapeRequest{}, errs.Newf(errs.ErrorTypeValidation,
			"request for %s routed to the %s scraper", r.Platform, b.platform).
			WithPlatform(b.platform.String())
	}
	return r, nil
}

// allDigits reports whether s is non-empty and entirely ASCII digits.
func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}
