// Package orchestrator coordinates scraping runs across the platform
// clients.
//
// It owns three things: a cache of initialized clients (one per platform,
// built lazily through pkg/platforms on first use), an in-memory job
// registry with cooperative page-boundary cancellation, and the semaphore
// that bounds concurrent scrapes. Single scrapes, multi-platform fan-outs,
// and batches all draw their slots from that one semaphore, so the
// configured limit holds no matter how work arrives.
//
//	o := orchestrator.New(cfg, auth.NewManager(), log)
//	defer o.Shutdown()
//
//	snap, err := o.ScrapeComments(ctx, models.ScrapeRequest{
//	    Platform:  models.PlatformYouTube,
//	    ContentID: "dQw4w9WgXcQ",
//	})
package orchestrator
