package platforms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commentscraper/pkg/auth"
	"commentscraper/pkg/config"
	errs "commentscraper/pkg/errors"
	"commentscraper/pkg/logger"
	"commentscraper/pkg/models"
	"commentscraper/pkg/ratelimit"
)

const ttVideoID = "7200000000000000001"

const ttPageOne = `{
  "data": {
    "comments": [
      {
        "id": 7300000000000000001,
        "video_id": 7200000000000000001,
        "text": "fire",
        "like_count": 10,
        "reply_count": 1,
        "parent_comment_id": 7200000000000000001,
        "create_time": 1717243200
      },
      {
        "id": 7300000000000000002,
        "video_id": 7200000000000000001,
        "text": "agreed",
        "like_count": 2,
        "reply_count": 0,
        "parent_comment_id": 7300000000000000001,
        "create_time": 1717243260
      }
    ],
    "cursor": 2,
    "has_more": true
  },
  "error": {"code": "ok", "message": "", "log_id": "log1"}
}`

const ttPageTwo = `{
  "data": {
    "comments": [
      {
        "id": 7300000000000000003,
        "video_id": 7200000000000000001,
        "text": "late take",
        "like_count": 0,
        "reply_count": 0,
        "parent_comment_id": 7200000000000000001,
        "create_time": 1717329600
      }
    ],
    "cursor": 3,
    "has_more": false
  },
  "error": {"code": "ok", "message": "", "log_id": "log2"}
}`

type tiktokMock struct {
	server     *httptest.Server
	mintCalls  int32
	pageCalls  int32
	expiresIn  int
	rejectAuth bool
}

func newTikTokMock(t *testing.T) *tiktokMock {
	m := &tiktokMock{expiresIn: 7200}

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&m.mintCalls, 1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "ck", r.PostForm.Get("client_key"))
		assert.Equal(t, "cs", r.PostForm.Get("client_secret"))

		if m.rejectAuth {
			w.Write([]byte(`{"error":"invalid_client","error_description":"client key rejected"}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "tt-token",
			"expires_in":   m.expiresIn,
			"token_type":   "Bearer",
		})
	})
	mux.HandleFunc("/research/video/comment/list/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&m.pageCalls, 1)
		assert.Equal(t, "Bearer tt-token", r.Header.Get("Authorization"))

		var q struct {
			VideoID  json.RawMessage `json:"video_id"`
			MaxCount int             `json:"max_count"`
			Cursor   int64           `json:"cursor"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&q))
		assert.Equal(t, ttVideoID, string(q.VideoID))
		assert.Equal(t, 50, q.MaxCount)

		if q.Cursor == 0 {
			w.Write([]byte(ttPageOne))
			return
		}
		assert.Equal(t, int64(2), q.Cursor)
		w.Write([]byte(ttPageTwo))
	})

	m.server = httptest.NewServer(mux)
	return m
}

func newTestTikTok(serverURL string) *tiktokScraper {
	log := logger.NewNopLogger()
	cfg := &config.Config{Scraper: testScraperConfig()}
	cred := &auth.Credential{Platform: models.PlatformTikTok, ClientKey: "ck", ClientSecret: "cs"}
	s := newTikTokScraper(cfg, cred, ratelimit.NewRegistry(nil, nil, log), log)
	if serverURL != "" {
		s.baseURL = serverURL
	}
	return s
}

func TestTikTokScrapeMintsTokenOnce(t *testing.T) {
	m := newTikTokMock(t)
	defer m.server.Close()

	s := newTestTikTok(m.server.URL)
	ctx := context.Background()
	require.NoError(t, s.Initialize(ctx))

	stream, err := s.Scrape(ctx, &models.ScrapeRequest{
		Platform:       models.PlatformTikTok,
		ContentID:      ttVideoID,
		IncludeReplies: true,
	})
	require.NoError(t, err)

	records, err := stream.Collect()
	require.NoError(t, err)
	require.Len(t, records, 3)

	top := records[0]
	assert.Equal(t, "7300000000000000001", top.ID)
	assert.Empty(t, top.ParentCommentID, "video-parented comments are top level")
	assert.Equal(t, 1, top.ReplyCount)
	assert.Equal(t, time.Unix(1717243200, 0).UTC(), top.PublishedAt)
	assert.Empty(t, top.AuthorID, "the research API does not expose commenter identity")

	reply := records[1]
	assert.Equal(t, "7300000000000000001", reply.ParentCommentID)
	assert.True(t, reply.IsReply())

	assert.Equal(t, int32(1), atomic.LoadInt32(&m.mintCalls))
	assert.Equal(t, int32(2), atomic.LoadInt32(&m.pageCalls))
}

func TestTikTokTokenRefreshAfterExpiry(t *testing.T) {
	m := newTikTokMock(t)
	defer m.server.Close()
	// Tokens that expire inside the refresh slack are stale immediately.
	m.expiresIn = 0

	s := newTestTikTok(m.server.URL)
	ctx := context.Background()
	require.NoError(t, s.Initialize(ctx))

	stream, err := s.Scrape(ctx, &models.ScrapeRequest{
		Platform:       models.PlatformTikTok,
		ContentID:      ttVideoID,
		IncludeReplies: true,
		MaxComments:    2,
	})
	require.NoError(t, err)

	_, err = stream.Collect()
	require.NoError(t, err)

	// One mint for the probe, another for the page fetch.
	assert.Equal(t, int32(2), atomic.LoadInt32(&m.mintCalls))
}

func TestTikTokRejectedClientSurfacesAuthError(t *testing.T) {
	m := newTikTokMock(t)
	defer m.server.Close()
	m.rejectAuth = true

	s := newTestTikTok(m.server.URL)
	err := s.Initialize(context.Background())

	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeAuth))
	assert.Equal(t, int32(1), atomic.LoadInt32(&m.mintCalls), "auth rejections are not retried")
}

func TestTikTokScrapeSurfacesEnvelopeError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"tt-token","expires_in":7200,"token_type":"Bearer"}`))
	})
	mux.HandleFunc("/research/video/comment/list/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{},"error":{"code":"invalid_params","message":"bad cursor","log_id":"log9"}}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	s := newTestTikTok(server.URL)
	ctx := context.Background()
	require.NoError(t, s.Initialize(ctx))

	stream, err := s.Scrape(ctx, &models.ScrapeRequest{Platform: models.PlatformTikTok, ContentID: ttVideoID})
	require.NoError(t, err)

	_, err = stream.Collect()
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeValidation))
	assert.Contains(t, err.Error(), "bad cursor")
}

func TestTikTokEnvelopeErrorMapping(t *testing.T) {
	cases := []struct {
		code string
		want errs.ErrorType
	}{
		{"access_token_invalid", errs.ErrorTypeAuth},
		{"scope_not_authorized", errs.ErrorTypeAuth},
		{"rate_limit_exceeded", errs.ErrorTypeRateLimit},
		{"invalid_params", errs.ErrorTypeValidation},
		{"internal_error", errs.ErrorTypeServerError},
		{"something_new", errs.ErrorTypeUnknown},
	}
	for _, tc := range cases {
		err := tiktokEnvelopeError(tiktokError{Code: tc.code, Message: "m", LogID: "l"})
		assert.True(t, errs.IsType(err, tc.want), "code %q", tc.code)
	}
}

func TestTikTokValidateContentID(t *testing.T) {
	s := newTestTikTok("")

	assert.NoError(t, s.ValidateContentID(ttVideoID))
	for _, id := range []string{"", "123", "72000000000000000011", "720000000000000000a"} {
		err := s.ValidateContentID(id)
		require.Error(t, err, "id %q", id)
		assert.True(t, errs.IsType(err, errs.ErrorTypeValidation))
	}
}

func TestParseTikTokComment(t *testing.T) {
	raw := json.RawMessage(`{"id":7300000000000000009,"video_id":7200000000000000001,"text":"hi","parent_comment_id":7200000000000000001,"create_time":0}`)

	rec, err := parseTikTokComment(raw, ttVideoID, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, "7300000000000000009", rec.ID)
	assert.Empty(t, rec.ParentCommentID)
	assert.True(t, rec.PublishedAt.IsZero(), "missing create_time stays zero")
}
