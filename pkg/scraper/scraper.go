package scraper

import (
	"context"
	"errors"

	"commentscraper/pkg/models"
)

// Lifecycle errors shared by all platform clients.
var (
	// ErrNotInitialized is returned by Scrape when Initialize has not
	// succeeded yet.
	ErrNotInitialized = errors.New("scraper not initialized")

	// ErrClosed is returned by Scrape and Initialize after Cleanup.
	ErrClosed = errors.New("scraper closed")
)

// Scraper is the contract every platform client implements. Implementations
// are safe for concurrent Scrape calls after a successful Initialize.
type Scraper interface {
	// Platform identifies which platform this scraper talks to.
	Platform() models.Platform

	// Initialize validates the credential and probes connectivity. It must
	// be called once before Scrape; a credential that fails shape validation
	// is rejected before any network call is made.
	Initialize(ctx context.Context) error

	// ValidateContentID checks the id against the platform's id shape
	// without touching the network.
	ValidateContentID(id string) error

	// Scrape validates the request and returns a lazy stream over its
	// comments. The stream fetches nothing until the first Next call.
	Scrape(ctx context.Context, req *models.ScrapeRequest) (*Stream, error)

	// Stats returns a snapshot of this scraper's counters.
	Stats() models.ScraperStats

	// Cleanup releases resources. It is idempotent and always safe to call,
	// including after a failed Initialize.
	Cleanup() error

	// Probe performs the same cheap connectivity check Initialize uses,
	// for health reporting.
	Probe(ctx context.Context) error
}
