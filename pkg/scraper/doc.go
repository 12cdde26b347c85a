// Package scraper defines the per-platform scraping contract and the lazy
// comment stream shared by every platform client.
//
// A Scraper is created by the platform factory, initialized once (credential
// validation plus a cheap connectivity probe), used for any number of Scrape
// calls, and cleaned up when the owning orchestrator shuts down.
//
// Scrape returns a Stream, a pull-based iterator in the sql.Rows idiom:
//
//	st, err := s.Scrape(ctx, req)
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
//	for st.Next() {
//	    rec := st.Record()
//	    // ...
//	}
//	if err := st.Err(); err != nil {
//	    return err
//	}
//
// Nothing is fetched until the first Next call. Each page fetch pays the
// platform's rate-limit cost; records the caller never pulls are pages the
// API never serves. Filters (language, date window, replies) run locally
// after each fetch and never trigger additional requests.
package scraper
