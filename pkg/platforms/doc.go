// Package platforms implements the scraper.Scraper contract for YouTube,
// Instagram, TikTok, and Facebook.
//
// All four clients share one HTTP core that owns the per-page pipeline:
// daily-quota check, rate-limit capacity wait, request spacing, the bounded
// retry loop (exponential backoff on 5xx and timeouts, Retry-After honored
// exactly once on 429), status-to-error mapping, and JSON decoding. The
// platform files contribute only what genuinely differs: URL construction,
// payload shapes, content-id validation, and the connectivity probe.
//
// Scrapers are built through New, the factory the orchestrator uses:
//
//	sc, err := platforms.New(models.PlatformYouTube, cfg, cred, limits, log)
//	if err != nil {
//	    return err
//	}
//	if err := sc.Initialize(ctx); err != nil {
//	    return err
//	}
//	st, err := sc.Scrape(ctx, req)
package platforms
