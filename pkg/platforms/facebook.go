package platforms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
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
	// EndpointFacebookComments is the rate-limit key for post comment pages.
	EndpointFacebookComments = "comments"

	fbCommentFields = "id,message,from,like_count,comment_count,created_time,is_hidden,parent{id}"
)

// facebookScraper reads page post comments through the Graph API. The
// filter parameter decides server-side whether replies ride along: "stream"
// flattens the whole tree into one chronological feed, "toplevel" keeps
// replies out entirely.
type facebookScraper struct {
	base
	baseURL string
}

func newFacebookScraper(cfg *config.Config, cred *auth.Credential, limits *ratelimit.Registry, log logger.Logger) *facebookScraper {
	return &facebookScraper{
		base:    newBase(models.PlatformFacebook, cfg, cred, limits, log),
		baseURL: graphBaseURL,
	}
}

func (f *facebookScraper) Initialize(ctx context.Context) error {
	if err := f.checkCredential(); err != nil {
		return err
	}
	if err := f.Probe(ctx); err != nil {
		return err
	}
	f.markInitialized()
	f.log.Info("scraper initialized")
	return nil
}

func (f *facebookScraper) Probe(ctx context.Context) error {
	params := url.Values{}
	params.Set("fields", "id")
	params.Set("access_token", f.cred.AccessToken)
	probeURL := fmt.Sprintf("%s/me?%s", f.baseURL, params.Encode())

	return f.http.probeJSON(ctx, models.PlatformFacebook, getRequest(probeURL), nil)
}

// ValidateContentID checks the composite pageid_postid shape.
func (f *facebookScraper) ValidateContentID(id string) error {
	pageID, postID, ok := strings.Cut(id, "_")
	if !ok || pageID == "" || postID == "" || !allDigits(pageID) || !allDigits(postID) {
		return errs.Newf(errs.ErrorTypeValidation,
			"invalid post id %q: want pageid_postid with both parts numeric", id).
			WithPlatform("facebook")
	}
	return nil
}

func (f *facebookScraper) Scrape(ctx context.Context, req *models.ScrapeRequest) (*scraper.Stream, error) {
	if err := f.ensureReady(); err != nil {
		return nil, err
	}
	r, err := f.validateRequest(req)
	if err != nil {
		return nil, err
	}
	if err := f.ValidateContentID(r.ContentID); err != nil {
		return nil, err
	}

	f.log.InfoWithFields("starting scrape", map[string]interface{}{
		"content_id":      r.ContentID,
		"max_comments":    r.MaxComments,
		"include_replies": r.IncludeReplies,
	})

	page := 0
	fetch := func(ctx context.Context, cursor string) (*scraper.Page, error) {
		page++
		return f.fetchPage(ctx, r, cursor, page)
	}
	return scraper.NewStream(ctx, fetch, scraper.NewFilter(&r), r.MaxComments, f.log), nil
}

func (f *facebookScraper) fetchPage(ctx context.Context, r models.ScrapeRequest, cursor string, page int) (*scraper.Page, error) {
	start := time.Now()

	var payload graphList
	status, err := f.http.getJSON(ctx, models.PlatformFacebook, EndpointFacebookComments, f.pageURL(r, cursor), &payload)
	if err != nil {
		f.stats.RecordError()
		return nil, err
	}

	scrapedAt := time.Now().UTC()
	records := make([]models.CommentRecord, 0, len(payload.Data))
	for _, raw := range payload.Data {
		rec, err := parseFacebookComment(raw, r.ContentID, scrapedAt)
		if err != nil {
			f.stats.RecordError()
			return nil, err
		}
		records = append(records, rec)
	}

	f.stats.RecordPage(len(records))
	logger.LogPageFetch("facebook", EndpointFacebookComments, page, len(records), status, time.Since(start))

	return &scraper.Page{
		Records:    records,
		NextCursor: payload.Paging.Cursors.After,
		HasMore:    payload.Paging.hasMore(),
	}, nil
}

func (f *facebookScraper) pageURL(r models.ScrapeRequest, cursor string) string {
	filter := "toplevel"
	if r.IncludeReplies {
		filter = "stream"
	}

	params := url.Values{}
	params.Set("fields", fbCommentFields)
	params.Set("filter", filter)
	params.Set("order", "chronological")
	params.Set("limit", strconv.Itoa(f.cfg.Scraper.PageSize))
	params.Set("access_token", f.cred.AccessToken)
	if cursor != "" {
		params.Set("after", cursor)
	}
	return fmt.Sprintf("%s/%s/comments?%s", f.baseURL, r.ContentID, params.Encode())
}

type fbComment struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	From    struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"from"`
	LikeCount    int       `json:"like_count"`
	CommentCount int       `json:"comment_count"`
	CreatedTime  graphTime `json:"created_time"`
	IsHidden     bool      `json:"is_hidden"`
	Parent       struct {
		ID string `json:"id"`
	} `json:"parent"`
}

func parseFacebookComment(raw json.RawMessage, contentID string, scrapedAt time.Time) (models.CommentRecord, error) {
	var c fbComment
	if err := json.Unmarshal(raw, &c); err != nil {
		return models.CommentRecord{}, errs.Wrap(err, errs.ErrorTypeParsing, "malformed comment").WithPlatform("facebook")
	}

	return models.CommentRecord{
		ID:              c.ID,
		Platform:        models.PlatformFacebook,
		ContentID:       contentID,
		ParentCommentID: c.Parent.ID,
		Text:            c.Message,
		AuthorID:        c.From.ID,
		AuthorName:      c.From.Name,
		LikeCount:       c.LikeCount,
		ReplyCount:      c.CommentCount,
		PublishedAt:     c.CreatedTime.Time,
		ScrapedAt:       scrapedAt,
		IsSpam:          c.IsHidden,
		Raw:             raw,
	}, nil
}
