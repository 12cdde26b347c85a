package platforms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"commentscraper/pkg/auth"
	"commentscraper/pkg/config"
	errs "commentscraper/pkg/errors"
	"commentscraper/pkg/logger"
	"commentscraper/pkg/models"
	"commentscraper/pkg/ratelimit"
	"commentscraper/pkg/retry"
	"commentscraper/pkg/scraper"
)

const (
	tiktokBaseURL = "https://open.tiktokapis.com/v2"

	// EndpointTikTokComments is the rate-limit key for comment list pages.
	EndpointTikTokComments = "comment/list"

	tiktokVideoIDLength = 19

	tiktokCommentFields = "id,video_id,text,like_count,reply_count,parent_comment_id,create_time"

	// Tokens refresh a minute before the platform would expire them.
	tiktokTokenSlack = time.Minute
)

// tiktokScraper drives the Research API. Access tokens are client-credential
// grants minted on demand and cached until shortly before expiry. Comment
// pages are POST queries over an integer cursor, and replies arrive in the
// same feed flagged by parent id, so reply exclusion is left to the local
// filter.
type tiktokScraper struct {
	base
	baseURL string

	tokenMu  sync.Mutex
	token    string
	tokenExp time.Time
}

func newTikTokScraper(cfg *config.Config, cred *auth.Credential, limits *ratelimit.Registry, log logger.Logger) *tiktokScraper {
	return &tiktokScraper{
		base:    newBase(models.PlatformTikTok, cfg, cred, limits, log),
		baseURL: tiktokBaseURL,
	}
}

func (t *tiktokScraper) Initialize(ctx context.Context) error {
	if err := t.checkCredential(); err != nil {
		return err
	}
	if err := t.Probe(ctx); err != nil {
		return err
	}
	t.markInitialized()
	t.log.Info("scraper initialized")
	return nil
}

// Probe mints (or reuses) an access token, which exercises both the key
// pair and the network path.
func (t *tiktokScraper) Probe(ctx context.Context) error {
	_, err := t.ensureToken(ctx)
	return err
}

// ValidateContentID checks the 19-digit video id shape.
func (t *tiktokScraper) ValidateContentID(id string) error {
	if len(id) != tiktokVideoIDLength || !allDigits(id) {
		return errs.Newf(errs.ErrorTypeValidation,
			"invalid video id %q: want %d digits", id, tiktokVideoIDLength).
			WithPlatform("tiktok")
	}
	return nil
}

func (t *tiktokScraper) Scrape(ctx context.Context, req *models.ScrapeRequest) (*scraper.Stream, error) {
	if err := t.ensureReady(); err != nil {
		return nil, err
	}
	r, err := t.validateRequest(req)
	if err != nil {
		return nil, err
	}
	if err := t.ValidateContentID(r.ContentID); err != nil {
		return nil, err
	}

	t.log.InfoWithFields("starting scrape", map[string]interface{}{
		"content_id":      r.ContentID,
		"max_comments":    r.MaxComments,
		"include_replies": r.IncludeReplies,
	})

	page := 0
	fetch := func(ctx context.Context, cursor string) (*scraper.Page, error) {
		page++
		return t.fetchPage(ctx, r, cursor, page)
	}
	return scraper.NewStream(ctx, fetch, scraper.NewFilter(&r), r.MaxComments, t.log), nil
}

func (t *tiktokScraper) fetchPage(ctx context.Context, r models.ScrapeRequest, cursor string, page int) (*scraper.Page, error) {
	start := time.Now()

	var cur int64
	if cursor != "" {
		v, err := strconv.ParseInt(cursor, 10, 64)
		if err != nil {
			return nil, errs.Wrap(err, errs.ErrorTypeParsing, "malformed page cursor").WithPlatform("tiktok")
		}
		cur = v
	}

	// Video ids overflow float64, so the id travels as a raw JSON number.
	body, err := json.Marshal(tiktokCommentsQuery{
		VideoID:  json.RawMessage(r.ContentID),
		MaxCount: t.cfg.Scraper.PageSize,
		Cursor:   cur,
	})
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrorTypeParsing, "failed to encode comment query").WithPlatform("tiktok")
	}

	params := url.Values{}
	params.Set("fields", tiktokCommentFields)
	u := fmt.Sprintf("%s/research/video/comment/list/?%s", t.baseURL, params.Encode())

	build := func(ctx context.Context) (*http.Request, error) {
		token, err := t.ensureToken(ctx)
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}

	var payload tiktokCommentsResponse
	status, err := t.http.fetchJSON(ctx, models.PlatformTikTok, EndpointTikTokComments, build, &payload)
	if err != nil {
		t.stats.RecordError()
		return nil, err
	}
	if !payload.Error.ok() {
		t.stats.RecordError()
		return nil, tiktokEnvelopeError(payload.Error)
	}

	scrapedAt := time.Now().UTC()
	records := make([]models.CommentRecord, 0, len(payload.Data.Comments))
	for _, raw := range payload.Data.Comments {
		rec, err := parseTikTokComment(raw, r.ContentID, scrapedAt)
		if err != nil {
			t.stats.RecordError()
			return nil, err
		}
		records = append(records, rec)
	}

	t.stats.RecordPage(len(records))
	logger.LogPageFetch("tiktok", EndpointTikTokComments, page, len(records), status, time.Since(start))

	next := ""
	if payload.Data.HasMore {
		next = strconv.FormatInt(payload.Data.Cursor, 10)
	}
	return &scraper.Page{
		Records:    records,
		NextCursor: next,
		HasMore:    payload.Data.HasMore,
	}, nil
}

// ensureToken returns the cached access token, minting a fresh one when
// missing or about to expire. Minting is single-flight under tokenMu.
func (t *tiktokScraper) ensureToken(ctx context.Context) (string, error) {
	t.tokenMu.Lock()
	defer t.tokenMu.Unlock()

	if t.token != "" && time.Now().Before(t.tokenExp) {
		return t.token, nil
	}

	tok, err := t.mintToken(ctx)
	if err != nil {
		return "", err
	}

	t.token = tok.AccessToken
	t.tokenExp = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second).Add(-tiktokTokenSlack)
	t.log.DebugWithFields("access token minted", map[string]interface{}{
		"expires_in": tok.ExpiresIn,
	})
	return t.token, nil
}

func (t *tiktokScraper) mintToken(ctx context.Context) (tiktokTokenResponse, error) {
	form := url.Values{}
	form.Set("client_key", t.cred.ClientKey)
	form.Set("client_secret", t.cred.ClientSecret)
	form.Set("grant_type", "client_credentials")
	body := form.Encode()

	build := func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/oauth/token/", strings.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	}

	cfg := retry.DefaultConfig()
	cfg.Context = ctx
	cfg.Logger = t.log

	return retry.DoWithResult(func() (tiktokTokenResponse, error) {
		var tok tiktokTokenResponse
		if err := t.http.probeJSON(ctx, models.PlatformTikTok, build, &tok); err != nil {
			return tiktokTokenResponse{}, err
		}
		if tok.AccessToken == "" {
			msg := tok.ErrorDescription
			if msg == "" {
				msg = "no access token in response"
			}
			return tiktokTokenResponse{}, errs.Newf(errs.ErrorTypeAuth, "token request rejected: %s", msg).
				WithPlatform("tiktok")
		}
		return tok, nil
	}, cfg)
}

// Research API payload shapes. Comments stay raw so each record keeps its
// original provider payload.
type tiktokCommentsQuery struct {
	VideoID  json.RawMessage `json:"video_id"`
	MaxCount int             `json:"max_count"`
	Cursor   int64           `json:"cursor"`
}

type tiktokCommentsResponse struct {
	Data struct {
		Comments []json.RawMessage `json:"comments"`
		Cursor   int64             `json:"cursor"`
		HasMore  bool              `json:"has_more"`
	} `json:"data"`
	Error tiktokError `json:"error"`
}

// tiktokError is the envelope every Research API response carries, even
// successful ones, where the code reads "ok".
type tiktokError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	LogID   string `json:"log_id"`
}

func (e tiktokError) ok() bool {
	return e.Code == "" || e.Code == "ok"
}

func tiktokEnvelopeError(e tiktokError) error {
	typ := errs.ErrorTypeUnknown
	switch e.Code {
	case "access_token_invalid", "scope_not_authorized":
		typ = errs.ErrorTypeAuth
	case "rate_limit_exceeded":
		typ = errs.ErrorTypeRateLimit
	case "invalid_params":
		typ = errs.ErrorTypeValidation
	case "internal_error":
		typ = errs.ErrorTypeServerError
	}
	return errs.Newf(typ, "api error %s: %s (log id %s)", e.Code, e.Message, e.LogID).
		WithPlatform("tiktok")
}

type tiktokTokenResponse struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int    `json:"expires_in"`
	TokenType        string `json:"token_type"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

type tiktokComment struct {
	ID              int64  `json:"id"`
	VideoID         int64  `json:"video_id"`
	Text            string `json:"text"`
	LikeCount       int    `json:"like_count"`
	ReplyCount      int    `json:"reply_count"`
	ParentCommentID int64  `json:"parent_comment_id"`
	CreateTime      int64  `json:"create_time"`
}

func parseTikTokComment(raw json.RawMessage, contentID string, scrapedAt time.Time) (models.CommentRecord, error) {
	var c tiktokComment
	if err := json.Unmarshal(raw, &c); err != nil {
		return models.CommentRecord{}, errs.Wrap(err, errs.ErrorTypeParsing, "malformed comment").WithPlatform("tiktok")
	}

	// Top-level comments report the video itself as their parent.
	parent := ""
	if c.ParentCommentID != 0 {
		if p := strconv.FormatInt(c.ParentCommentID, 10); p != contentID {
			parent = p
		}
	}

	var published time.Time
	if c.CreateTime != 0 {
		published = time.Unix(c.CreateTime, 0).UTC()
	}

	return models.CommentRecord{
		ID:              strconv.FormatInt(c.ID, 10),
		Platform:        models.PlatformTikTok,
		ContentID:       contentID,
		ParentCommentID: parent,
		Text:            c.Text,
		LikeCount:       c.LikeCount,
		ReplyCount:      c.ReplyCount,
		PublishedAt:     published,
		ScrapedAt:       scrapedAt,
		Raw:             raw,
	}, nil
}
