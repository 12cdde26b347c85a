package platforms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"commentscraper/pkg/auth"
	"commentscraper/pkg/config"
	errs "commentscraper/pkg/errors"
	"commentscraper/pkg/logger"
	"commentscraper/pkg/models"
	"commentscraper/pkg/ratelimit"
	"commentscraper/pkg/scraper"
)

const (
	youtubeBaseURL = "https://www.googleapis.com/youtube/v3"

	// EndpointYouTubeComments is the rate-limit key for comment thread pages.
	EndpointYouTubeComments = "commentThreads"

	youtubeVideoIDLength = 11
)

// youtubeScraper talks to the YouTube Data API v3. Comment threads carry the
// top-level comment plus its replies in one payload, so replies never cost
// an extra request. The API is daily-metered: every page spends quota units
// against the project's daily allowance.
type youtubeScraper struct {
	base
	baseURL string
}

func newYouTubeScraper(cfg *config.Config, cred *auth.Credential, limits *ratelimit.Registry, log logger.Logger) *youtubeScraper {
	return &youtubeScraper{
		base:    newBase(models.PlatformYouTube, cfg, cred, limits, log),
		baseURL: youtubeBaseURL,
	}
}

func (y *youtubeScraper) Initialize(ctx context.Context) error {
	if err := y.checkCredential(); err != nil {
		return err
	}
	if err := y.Probe(ctx); err != nil {
		return err
	}
	y.markInitialized()
	y.log.Info("scraper initialized")
	return nil
}

// Probe lists the API's supported languages, the cheapest authenticated
// call the Data API offers.
func (y *youtubeScraper) Probe(ctx context.Context) error {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("key", y.cred.APIKey)
	probeURL := fmt.Sprintf("%s/i18nLanguages?%s", y.baseURL, params.Encode())

	return y.http.probeJSON(ctx, models.PlatformYouTube, getRequest(probeURL), nil)
}

// ValidateContentID checks the 11-character video id shape.
func (y *youtubeScraper) ValidateContentID(id string) error {
	if len(id) != youtubeVideoIDLength || !validYouTubeID(id) {
		return errs.Newf(errs.ErrorTypeValidation,
			"invalid video id %q: want %d characters of [A-Za-z0-9_-]", id, youtubeVideoIDLength).
			WithPlatform("youtube")
	}
	return nil
}

func validYouTubeID(id string) bool {
	for _, ch := range id {
		if !((ch >= 'a' && ch <= 'z') ||
			(ch >= 'A' && ch <= 'Z') ||
			(ch >= '0' && ch <= '9') ||
			ch == '-' || ch == '_') {
			return false
		}
	}
	return true
}

func (y *youtubeScraper) Scrape(ctx context.Context, req *models.ScrapeRequest) (*scraper.Stream, error) {
	if err := y.ensureReady(); err != nil {
		return nil, err
	}
	r, err := y.validateRequest(req)
	if err != nil {
		return nil, err
	}
	if err := y.ValidateContentID(r.ContentID); err != nil {
		return nil, err
	}

	y.log.InfoWithFields("starting scrape", map[string]interface{}{
		"content_id":      r.ContentID,
		"max_comments":    r.MaxComments,
		"include_replies": r.IncludeReplies,
	})

	page := 0
	fetch := func(ctx context.Context, cursor string) (*scraper.Page, error) {
		page++
		return y.fetchPage(ctx, r, cursor, page)
	}
	return scraper.NewStream(ctx, fetch, scraper.NewFilter(&r), r.MaxComments, y.log), nil
}

func (y *youtubeScraper) fetchPage(ctx context.Context, r models.ScrapeRequest, cursor string, page int) (*scraper.Page, error) {
	start := time.Now()

	var payload ytCommentThreadsResponse
	status, err := y.http.getJSON(ctx, models.PlatformYouTube, EndpointYouTubeComments, y.pageURL(r, cursor), &payload)
	if err != nil {
		y.stats.RecordError()
		return nil, err
	}

	scrapedAt := time.Now().UTC()
	records := make([]models.CommentRecord, 0, len(payload.Items))
	for _, raw := range payload.Items {
		var thread ytThread
		if err := json.Unmarshal(raw, &thread); err != nil {
			y.stats.RecordError()
			return nil, errs.Wrap(err, errs.ErrorTypeParsing, "malformed comment thread").WithPlatform("youtube")
		}

		top, err := parseYouTubeComment(thread.Snippet.TopLevelComment, r.ContentID, scrapedAt)
		if err != nil {
			y.stats.RecordError()
			return nil, err
		}
		top.ReplyCount = thread.Snippet.TotalReplyCount
		records = append(records, top)

		for _, rawReply := range thread.Replies.Comments {
			reply, err := parseYouTubeComment(rawReply, r.ContentID, scrapedAt)
			if err != nil {
				y.stats.RecordError()
				return nil, err
			}
			records = append(records, reply)
		}
	}

	y.stats.RecordPage(len(records))
	logger.LogPageFetch("youtube", EndpointYouTubeComments, page, len(records), status, time.Since(start))

	return &scraper.Page{
		Records:    records,
		NextCursor: payload.NextPageToken,
		HasMore:    payload.NextPageToken != "",
	}, nil
}

func (y *youtubeScraper) pageURL(r models.ScrapeRequest, cursor string) string {
	parts := "snippet"
	if r.IncludeReplies {
		parts = "snippet,replies"
	}

	params := url.Values{}
	params.Set("part", parts)
	params.Set("videoId", r.ContentID)
	params.Set("maxResults", strconv.Itoa(y.cfg.Scraper.PageSize))
	params.Set("textFormat", "plainText")
	params.Set("key", y.cred.APIKey)
	if cursor != "" {
		params.Set("pageToken", cursor)
	}
	return fmt.Sprintf("%s/commentThreads?%s", y.baseURL, params.Encode())
}

// Data API v3 payload shapes. Items stay raw so each record keeps its
// original provider payload.
type ytCommentThreadsResponse struct {
	NextPageToken string            `json:"nextPageToken"`
	Items         []json.RawMessage `json:"items"`
}

type ytThread struct {
	ID      string `json:"id"`
	Snippet struct {
		VideoID         string          `json:"videoId"`
		TotalReplyCount int             `json:"totalReplyCount"`
		TopLevelComment json.RawMessage `json:"topLevelComment"`
	} `json:"snippet"`
	Replies struct {
		Comments []json.RawMessage `json:"comments"`
	} `json:"replies"`
}

type ytComment struct {
	ID      string `json:"id"`
	Snippet struct {
		ParentID          string `json:"parentId"`
		TextOriginal      string `json:"textOriginal"`
		TextDisplay       string `json:"textDisplay"`
		AuthorDisplayName string `json:"authorDisplayName"`
		AuthorChannelID   struct {
			Value string `json:"value"`
		} `json:"authorChannelId"`
		LikeCount   int       `json:"likeCount"`
		PublishedAt time.Time `json:"publishedAt"`
	} `json:"snippet"`
}

func parseYouTubeComment(raw json.RawMessage, contentID string, scrapedAt time.Time) (models.CommentRecord, error) {
	var c ytComment
	if err := json.Unmarshal(raw, &c); err != nil {
		return models.CommentRecord{}, errs.Wrap(err, errs.ErrorTypeParsing, "malformed comment").WithPlatform("youtube")
	}

	text := c.Snippet.TextOriginal
	if text == "" {
		text = c.Snippet.TextDisplay
	}

	return models.CommentRecord{
		ID:              c.ID,
		Platform:        models.PlatformYouTube,
		ContentID:       contentID,
		ParentCommentID: c.Snippet.ParentID,
		Text:            text,
		AuthorID:        c.Snippet.AuthorChannelID.Value,
		AuthorName:      c.Snippet.AuthorDisplayName,
		LikeCount:       c.Snippet.LikeCount,
		PublishedAt:     c.Snippet.PublishedAt,
		ScrapedAt:       scrapedAt,
		Raw:             raw,
	}, nil
}
