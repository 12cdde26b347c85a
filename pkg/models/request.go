package models

import (
	"fmt"
	"time"
)

// ScrapeRequest describes one scraping run against a single piece of content.
// MaxComments of zero means no cap. Zero Since/Until leave the date range
// open on that side. Languages empty means no language filtering.
type ScrapeRequest struct {
	Platform       Platform    `json:"platform" yaml:"platform"`
	ContentID      string      `json:"content_id" yaml:"content_id"`
	ContentType    ContentType `json:"content_type,omitempty" yaml:"content_type,omitempty"`
	MaxComments    int         `json:"max_comments,omitempty" yaml:"max_comments,omitempty"`
	IncludeReplies bool        `json:"include_replies,omitempty" yaml:"include_replies,omitempty"`
	Languages      []string    `json:"languages,omitempty" yaml:"languages,omitempty"`
	Since          time.Time   `json:"since,omitempty" yaml:"since,omitempty"`
	Until          time.Time   `json:"until,omitempty" yaml:"until,omitempty"`
}

// Validate checks the request shape. Platform-specific content id formats
// are validated by the platform clients, not here.
func (r ScrapeRequest) Validate() error {
	if !r.Platform.Valid() {
		return fmt.Errorf("unknown platform %q", r.Platform)
	}
	if r.ContentID == "" {
		return fmt.Errorf("content id is required")
	}
	if r.MaxComments < 0 {
		return fmt.Errorf("max comments must not be negative, got %d", r.MaxComments)
	}
	if !r.Since.IsZero() && !r.Until.IsZero() && r.Until.Before(r.Since) {
		return fmt.Errorf("until (%s) is before since (%s)", r.Until.Format(time.RFC3339), r.Since.Format(time.RFC3339))
	}
	return nil
}

// WithDefaults returns a copy with the platform's default content type
// filled in when the request left it empty.
func (r ScrapeRequest) WithDefaults() ScrapeRequest {
	if r.ContentType == "" {
		r.ContentType = DefaultContentType(r.Platform)
	}
	return r
}

// MultiPlatformRequest fans one logical scrape out across several platforms,
// each with its own content id. Options apply to every platform.
type MultiPlatformRequest struct {
	ContentIDs     map[Platform]string `json:"content_ids" yaml:"content_ids"`
	MaxComments    int                 `json:"max_comments,omitempty" yaml:"max_comments,omitempty"`
	IncludeReplies bool                `json:"include_replies,omitempty" yaml:"include_replies,omitempty"`
	Languages      []string            `json:"languages,omitempty" yaml:"languages,omitempty"`
	Since          time.Time           `json:"since,omitempty" yaml:"since,omitempty"`
	Until          time.Time           `json:"until,omitempty" yaml:"until,omitempty"`
}

// Requests expands the multi-platform request into one ScrapeRequest per
// platform, in stable platform order.
func (m MultiPlatformRequest) Requests() []ScrapeRequest {
	out := make([]ScrapeRequest, 0, len(m.ContentIDs))
	for _, p := range AllPlatforms() {
		id, ok := m.ContentIDs[p]
		if !ok {
			continue
		}
		out = append(out, ScrapeRequest{
			Platform:       p,
			ContentID:      id,
			MaxComments:    m.MaxComments,
			IncludeReplies: m.IncludeReplies,
			Languages:      m.Languages,
			Since:          m.Since,
			Until:          m.Until,
		})
	}
	return out
}

// BatchItem is the outcome of one request inside a batch, in request order.
type BatchItem struct {
	Request  ScrapeRequest   `json:"request"`
	JobID    string          `json:"job_id,omitempty"`
	Comments []CommentRecord `json:"comments,omitempty"`
	Err      error           `json:"-"`
	ErrMsg   string          `json:"error,omitempty"`
}

// BatchResult aggregates a batch run. Items preserve the order of the
// submitted requests regardless of completion order.
type BatchResult struct {
	Items     []BatchItem `json:"items"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
}
