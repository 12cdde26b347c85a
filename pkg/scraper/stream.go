package scraper

import (
	"context"

	"commentscraper/pkg/logger"
	"commentscraper/pkg/models"
)

// Page is one fetched page of comments plus its pagination state.
type Page struct {
	Records    []models.CommentRecord
	NextCursor string
	HasMore    bool
}

// PageFunc fetches the page at the given cursor. An empty cursor means the
// first page. Implementations own rate limiting, retries, and parsing; the
// stream owns buffering, filtering, and termination.
type PageFunc func(ctx context.Context, cursor string) (*Page, error)

// Stream is a lazy, finite, non-restartable sequence of comment records.
// It fetches pages on demand as the caller pulls records and never fetches
// ahead of consumption. A Stream is not safe for concurrent use.
type Stream struct {
	ctx    context.Context
	fetch  PageFunc
	filter *Filter
	max    int // 0 means no cap
	log    logger.Logger

	buf     []models.CommentRecord
	pos     int
	current models.CommentRecord
	cursor  string
	more    bool
	pages   int
	emitted int
	done    bool
	closed  bool
	err     error
}

// NewStream builds a stream over fetch. The filter may be nil for an
// unfiltered stream; max caps the number of records emitted (0 = all).
func NewStream(ctx context.Context, fetch PageFunc, filter *Filter, max int, log logger.Logger) *Stream {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Stream{
		ctx:    ctx,
		fetch:  fetch,
		filter: filter,
		max:    max,
		more:   true,
		log:    log,
	}
}

// Next advances the stream to the next record. It returns false when the
// sequence ends: max reached, no more pages, a fetch error, or cancellation
// observed at a page boundary. After false, Err tells a clean end from a
// failure. Once Next has returned false it never returns true again.
func (s *Stream) Next() bool {
	if s.closed || s.done {
		return false
	}

	for {
		if s.pos < len(s.buf) {
			s.current = s.buf[s.pos]
			s.pos++
			s.emitted++
			if s.max > 0 && s.emitted >= s.max {
				// Mid-page cut-off: leftover buffered records are
				// dropped and no further page is fetched.
				s.finish()
			}
			return true
		}

		if !s.more {
			s.finish()
			return false
		}

		// Cancellation is honored only between pages; an in-flight page
		// always lands intact.
		if err := s.ctx.Err(); err != nil {
			s.err = err
			s.finish()
			return false
		}

		page, err := s.fetch(s.ctx, s.cursor)
		if err != nil {
			s.err = err
			s.finish()
			return false
		}

		s.pages++
		kept := page.Records
		if s.filter != nil {
			kept = s.filter.Apply(kept)
		}
		s.log.DebugWithFields("page buffered", map[string]interface{}{
			"page":     s.pages,
			"fetched":  len(page.Records),
			"kept":     len(kept),
			"has_more": page.HasMore,
		})

		s.buf = kept
		s.pos = 0
		s.cursor = page.NextCursor
		s.more = page.HasMore
		// A fully filtered page loops straight into the next fetch.
	}
}

// Record returns the record produced by the last successful Next call.
func (s *Stream) Record() models.CommentRecord {
	return s.current
}

// Err returns the error that terminated the stream, or nil if it ended
// cleanly (or has not ended yet).
func (s *Stream) Err() error {
	return s.err
}

// Close marks the stream done and releases its buffer. It is idempotent;
// Next returns false after Close.
func (s *Stream) Close() error {
	s.closed = true
	s.finish()
	return nil
}

// Collect drains the remaining records into a slice and closes the stream.
func (s *Stream) Collect() ([]models.CommentRecord, error) {
	defer s.Close()

	var records []models.CommentRecord
	for s.Next() {
		records = append(records, s.Record())
	}
	return records, s.Err()
}

// Pages returns the number of pages fetched so far.
func (s *Stream) Pages() int {
	return s.pages
}

// Emitted returns the number of records returned by Next so far.
func (s *Stream) Emitted() int {
	return s.emitted
}

func (s *Stream) finish() {
	s.done = true
	s.more = false
	s.buf = nil
	s.pos = 0
}
