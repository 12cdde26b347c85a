package scraper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"commentscraper/pkg/models"
)

func TestFilterLanguage(t *testing.T) {
	filter := NewFilter(&models.ScrapeRequest{
		Languages:      []string{"en", "FI"},
		IncludeReplies: true,
	})

	tests := []struct {
		name string
		lang string
		want bool
	}{
		{"exact match", "en", true},
		{"case insensitive", "EN", true},
		{"regional variant matches base", "en-US", true},
		{"second requested language", "fi", true},
		{"no tag passes", "", true},
		{"other language dropped", "es", false},
		{"other regional variant dropped", "es-MX", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filter.Match(models.CommentRecord{ID: "c1", Language: tt.lang})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilterExactRegionalTag(t *testing.T) {
	// Requesting "pt-br" must not drift to plain "pt" records.
	filter := NewFilter(&models.ScrapeRequest{
		Languages:      []string{"pt-BR"},
		IncludeReplies: true,
	})

	assert.True(t, filter.Match(models.CommentRecord{Language: "pt-BR"}))
	assert.False(t, filter.Match(models.CommentRecord{Language: "pt"}))
	assert.False(t, filter.Match(models.CommentRecord{Language: "pt-PT"}))
}

func TestFilterDateWindow(t *testing.T) {
	since := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	filter := NewFilter(&models.ScrapeRequest{
		Since:          since,
		Until:          until,
		IncludeReplies: true,
	})

	tests := []struct {
		name      string
		published time.Time
		want      bool
	}{
		{"before window", since.Add(-time.Second), false},
		{"at since is included", since, true},
		{"inside window", since.AddDate(0, 0, 15), true},
		{"at until is excluded", until, false},
		{"after window", until.Add(time.Hour), false},
		{"no timestamp passes", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filter.Match(models.CommentRecord{ID: "c1", PublishedAt: tt.published})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilterOpenBounds(t *testing.T) {
	old := models.CommentRecord{PublishedAt: time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)}

	onlySince := NewFilter(&models.ScrapeRequest{
		Since:          time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		IncludeReplies: true,
	})
	assert.False(t, onlySince.Match(old))

	unbounded := NewFilter(&models.ScrapeRequest{IncludeReplies: true})
	assert.True(t, unbounded.Match(old))
}

func TestFilterReplies(t *testing.T) {
	topLevel := models.CommentRecord{ID: "c1"}
	reply := models.CommentRecord{ID: "c2", ParentCommentID: "c1"}

	withReplies := NewFilter(&models.ScrapeRequest{IncludeReplies: true})
	assert.True(t, withReplies.Match(topLevel))
	assert.True(t, withReplies.Match(reply))

	withoutReplies := NewFilter(&models.ScrapeRequest{IncludeReplies: false})
	assert.True(t, withoutReplies.Match(topLevel))
	assert.False(t, withoutReplies.Match(reply))
}

func TestFilterConjunction(t *testing.T) {
	filter := NewFilter(&models.ScrapeRequest{
		Languages:      []string{"en"},
		Since:          time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		IncludeReplies: false,
	})

	inWindow := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	outOfWindow := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	// Passing one condition is not enough; all must hold.
	assert.True(t, filter.Match(models.CommentRecord{Language: "en", PublishedAt: inWindow}))
	assert.False(t, filter.Match(models.CommentRecord{Language: "es", PublishedAt: inWindow}))
	assert.False(t, filter.Match(models.CommentRecord{Language: "en", PublishedAt: outOfWindow}))
	assert.False(t, filter.Match(models.CommentRecord{
		Language:        "en",
		PublishedAt:     inWindow,
		ParentCommentID: "parent",
	}))
}

func TestFilterIdempotent(t *testing.T) {
	filter := NewFilter(&models.ScrapeRequest{
		Languages: []string{"en"},
		Since:     time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	})

	page := []models.CommentRecord{
		{ID: "a", Language: "en", PublishedAt: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)},
		{ID: "b", Language: "es", PublishedAt: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)},
		{ID: "c", Language: "", PublishedAt: time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)},
		{ID: "d", Language: "en", PublishedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	once := filter.Apply(append([]models.CommentRecord(nil), page...))
	twice := filter.Apply(append([]models.CommentRecord(nil), once...))

	assert.Equal(t, once, twice, "second application must change nothing")

	var ids []string
	for _, rec := range once {
		ids = append(ids, rec.ID)
	}
	assert.Equal(t, []string{"a", "c"}, ids)
}
