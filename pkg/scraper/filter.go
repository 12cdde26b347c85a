package scraper

import (
	"strings"
	"time"

	"commentscraper/pkg/models"
)

// Filter is the local, post-fetch record filter. All conditions compose as
// a conjunction and the filter is a pure predicate: applying it twice
// yields the same records as applying it once.
type Filter struct {
	languages      map[string]struct{}
	since          time.Time
	until          time.Time
	includeReplies bool
}

// NewFilter builds the filter for a validated request.
func NewFilter(req *models.ScrapeRequest) *Filter {
	f := &Filter{
		since:          req.Since,
		until:          req.Until,
		includeReplies: req.IncludeReplies,
	}
	if len(req.Languages) > 0 {
		f.languages = make(map[string]struct{}, len(req.Languages))
		for _, lang := range req.Languages {
			tag := strings.ToLower(strings.TrimSpace(lang))
			if tag != "" {
				f.languages[tag] = struct{}{}
			}
		}
	}
	return f
}

// Match reports whether the record passes every condition.
func (f *Filter) Match(rec models.CommentRecord) bool {
	if !f.includeReplies && rec.IsReply() {
		return false
	}
	if !f.matchLanguage(rec.Language) {
		return false
	}
	return f.matchDate(rec.PublishedAt)
}

// Apply filters the page in place and returns the surviving records.
func (f *Filter) Apply(records []models.CommentRecord) []models.CommentRecord {
	kept := records[:0]
	for _, rec := range records {
		if f.Match(rec) {
			kept = append(kept, rec)
		}
	}
	return kept
}

// matchLanguage matches the record's language tag against the requested
// set. A record with no language tag always passes: unknown language is
// not excludable. A full tag matches either exactly ("en-us") or on its
// primary subtag ("en" matches "en-US").
func (f *Filter) matchLanguage(lang string) bool {
	if len(f.languages) == 0 || lang == "" {
		return true
	}

	tag := strings.ToLower(lang)
	if _, ok := f.languages[tag]; ok {
		return true
	}
	if base, _, found := strings.Cut(tag, "-"); found {
		if _, ok := f.languages[base]; ok {
			return true
		}
	}
	return false
}

// matchDate keeps since <= published < until, with zero bounds open. A
// record with no published timestamp passes, matching the language rule
// for unknown metadata.
func (f *Filter) matchDate(published time.Time) bool {
	if published.IsZero() {
		return true
	}
	if !f.since.IsZero() && published.Before(f.since) {
		return false
	}
	if !f.until.IsZero() && !published.Before(f.until) {
		return false
	}
	return true
}
