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
	// EndpointInstagramComments is the rate-limit key for media comment pages.
	EndpointInstagramComments = "comments"

	igCommentFields = "id,text,username,from,like_count,timestamp,hidden"
)

// instagramScraper reads comments through the Instagram Graph API. Replies
// arrive as a nested edge on each top-level comment, so a comment page
// carries its reply trees inline and replies never cost an extra request.
type instagramScraper struct {
	base
	baseURL string
}

func newInstagramScraper(cfg *config.Config, cred *auth.Credential, limits *ratelimit.Registry, log logger.Logger) *instagramScraper {
	return &instagramScraper{
		base:    newBase(models.PlatformInstagram, cfg, cred, limits, log),
		baseURL: graphBaseURL,
	}
}

func (i *instagramScraper) Initialize(ctx context.Context) error {
	if err := i.checkCredential(); err != nil {
		return err
	}
	if err := i.Probe(ctx); err != nil {
		return err
	}
	i.markInitialized()
	i.log.Info("scraper initialized")
	return nil
}

// Probe resolves the token's own account, which any valid token can do
// regardless of granted scopes.
func (i *instagramScraper) Probe(ctx context.Context) error {
	params := url.Values{}
	params.Set("fields", "id")
	params.Set("access_token", i.cred.AccessToken)
	probeURL := fmt.Sprintf("%s/me?%s", i.baseURL, params.Encode())

	return i.http.probeJSON(ctx, models.PlatformInstagram, getRequest(probeURL), nil)
}

func (i *instagramScraper) ValidateContentID(id string) error {
	if id == "" || !allDigits(id) {
		return errs.Newf(errs.ErrorTypeValidation, "invalid media id %q: want digits only", id).
			WithPlatform("instagram")
	}
	return nil
}

func (i *instagramScraper) Scrape(ctx context.Context, req *models.ScrapeRequest) (*scraper.Stream, error) {
	if err := i.ensureReady(); err != nil {
		return nil, err
	}
	r, err := i.validateRequest(req)
	if err != nil {
		return nil, err
	}
	if err := i.ValidateContentID(r.ContentID); err != nil {
		return nil, err
	}

	i.log.InfoWithFields("starting scrape", map[string]interface{}{
		"content_id":      r.ContentID,
		"max_comments":    r.MaxComments,
		"include_replies": r.IncludeReplies,
	})

	page := 0
	fetch := func(ctx context.Context, cursor string) (*scraper.Page, error) {
		page++
		return i.fetchPage(ctx, r, cursor, page)
	}
	return scraper.NewStream(ctx, fetch, scraper.NewFilter(&r), r.MaxComments, i.log), nil
}

func (i *instagramScraper) fetchPage(ctx context.Context, r models.ScrapeRequest, cursor string, page int) (*scraper.Page, error) {
	start := time.Now()

	var payload graphList
	status, err := i.http.getJSON(ctx, models.PlatformInstagram, EndpointInstagramComments, i.pageURL(r, cursor), &payload)
	if err != nil {
		i.stats.RecordError()
		return nil, err
	}

	scrapedAt := time.Now().UTC()
	records := make([]models.CommentRecord, 0, len(payload.Data))
	for _, raw := range payload.Data {
		top, replyRaws, err := parseInstagramComment(raw, r.ContentID, "", scrapedAt)
		if err != nil {
			i.stats.RecordError()
			return nil, err
		}
		records = append(records, top)

		for _, rawReply := range replyRaws {
			reply, _, err := parseInstagramComment(rawReply, r.ContentID, top.ID, scrapedAt)
			if err != nil {
				i.stats.RecordError()
				return nil, err
			}
			records = append(records, reply)
		}
	}

	i.stats.RecordPage(len(records))
	logger.LogPageFetch("instagram", EndpointInstagramComments, page, len(records), status, time.Since(start))

	return &scraper.Page{
		Records:    records,
		NextCursor: payload.Paging.Cursors.After,
		HasMore:    payload.Paging.hasMore(),
	}, nil
}

func (i *instagramScraper) pageURL(r models.ScrapeRequest, cursor string) string {
	fields := igCommentFields
	if r.IncludeReplies {
		fields = fmt.Sprintf("%s,replies{%s}", igCommentFields, igCommentFields)
	}

	params := url.Values{}
	params.Set("fields", fields)
	params.Set("limit", strconv.Itoa(i.cfg.Scraper.PageSize))
	params.Set("access_token", i.cred.AccessToken)
	if cursor != "" {
		params.Set("after", cursor)
	}
	return fmt.Sprintf("%s/%s/comments?%s", i.baseURL, r.ContentID, params.Encode())
}

type igComment struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Username string `json:"username"`
	From     struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"from"`
	LikeCount int       `json:"like_count"`
	Timestamp graphTime `json:"timestamp"`
	Hidden    bool      `json:"hidden"`
	Replies   struct {
		Data []json.RawMessage `json:"data"`
	} `json:"replies"`
}

// parseInstagramComment builds a record from one Graph comment node and
// hands back the raw nested replies for the caller to parse with the
// comment's id as their parent.
func parseInstagramComment(raw json.RawMessage, contentID, parentID string, scrapedAt time.Time) (models.CommentRecord, []json.RawMessage, error) {
	var c igComment
	if err := json.Unmarshal(raw, &c); err != nil {
		return models.CommentRecord{}, nil, errs.Wrap(err, errs.ErrorTypeParsing, "malformed comment").WithPlatform("instagram")
	}

	author := c.Username
	if author == "" {
		author = c.From.Username
	}

	return models.CommentRecord{
		ID:              c.ID,
		Platform:        models.PlatformInstagram,
		ContentID:       contentID,
		ParentCommentID: parentID,
		Text:            c.Text,
		AuthorID:        c.From.ID,
		AuthorName:      author,
		LikeCount:       c.LikeCount,
		ReplyCount:      len(c.Replies.Data),
		PublishedAt:     c.Timestamp.Time,
		ScrapedAt:       scrapedAt,
		IsSpam:          c.Hidden,
		Raw:             raw,
	}, c.Replies.Data, nil
}
