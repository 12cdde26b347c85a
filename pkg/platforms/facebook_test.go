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

const fbPostID = "123456789_987654321"

const fbPageOne = `{
  "data": [
    {
      "id": "111_1",
      "message": "great post",
      "from": {"id": "55", "name": "Ann"},
      "like_count": 7,
      "comment_count": 1,
      "created_time": "2024-07-01T10:00:00+0000"
    },
    {
      "id": "111_2",
      "message": "replying here",
      "from": {"id": "56", "name": "Ben"},
      "like_count": 0,
      "comment_count": 0,
      "created_time": "2024-07-01T10:30:00+0000",
      "parent": {"id": "111_1"}
    }
  ],
  "paging": {
    "cursors": {"after": "WTI5"},
    "next": "https://graph.facebook.com/v19.0/123456789_987654321/comments?after=WTI5"
  }
}`

const fbPageTwo = `{
  "data": [
    {
      "id": "111_3",
      "message": "buy followers now",
      "from": {"id": "57", "name": "Spam Account"},
      "like_count": 0,
      "comment_count": 0,
      "created_time": "2024-07-02T09:00:00+0000",
      "is_hidden": true
    }
  ],
  "paging": {
    "cursors": {"after": "WTI6"}
  }
}`

func newTestFacebook(serverURL string) *facebookScraper {
	log := logger.NewNopLogger()
	cfg := &config.Config{Scraper: testScraperConfig()}
	cred := &auth.Credential{Platform: models.PlatformFacebook, AccessToken: "fb-token"}
	s := newFacebookScraper(cfg, cred, ratelimit.NewRegistry(nil, nil, log), log)
	if serverURL != "" {
		s.baseURL = serverURL
	}
	return s
}

func TestFacebookScrapeFlattenedStream(t *testing.T) {
	var pageCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"me"}`))
	})
	mux.HandleFunc("/"+fbPostID+"/comments", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "stream", r.URL.Query().Get("filter"))
		assert.Equal(t, "chronological", r.URL.Query().Get("order"))
		assert.Equal(t, "fb-token", r.URL.Query().Get("access_token"))

		if atomic.AddInt32(&pageCalls, 1) == 1 {
			w.Write([]byte(fbPageOne))
			return
		}
		assert.Equal(t, "WTI5", r.URL.Query().Get("after"))
		w.Write([]byte(fbPageTwo))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	s := newTestFacebook(server.URL)
	ctx := context.Background()
	require.NoError(t, s.Initialize(ctx))

	stream, err := s.Scrape(ctx, &models.ScrapeRequest{
		Platform:       models.PlatformFacebook,
		ContentID:      fbPostID,
		IncludeReplies: true,
	})
	require.NoError(t, err)

	records, err := stream.Collect()
	require.NoError(t, err)
	require.Len(t, records, 3)

	top := records[0]
	assert.Equal(t, "111_1", top.ID)
	assert.Equal(t, "Ann", top.AuthorName)
	assert.Equal(t, 1, top.ReplyCount)
	assert.False(t, top.IsReply())
	assert.Equal(t, time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC), top.PublishedAt.UTC())

	reply := records[1]
	assert.Equal(t, "111_1", reply.ParentCommentID)
	assert.True(t, reply.IsReply())

	assert.True(t, records[2].IsSpam, "hidden comments are flagged")
	assert.Equal(t, int32(2), atomic.LoadInt32(&pageCalls))
}

func TestFacebookTopLevelFilterParam(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"me"}`))
	})
	mux.HandleFunc("/"+fbPostID+"/comments", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "toplevel", r.URL.Query().Get("filter"))
		w.Write([]byte(fbPageTwo))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	s := newTestFacebook(server.URL)
	ctx := context.Background()
	require.NoError(t, s.Initialize(ctx))

	stream, err := s.Scrape(ctx, &models.ScrapeRequest{
		Platform:  models.PlatformFacebook,
		ContentID: fbPostID,
	})
	require.NoError(t, err)

	records, err := stream.Collect()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestFacebookValidateContentID(t *testing.T) {
	s := newTestFacebook("")

	assert.NoError(t, s.ValidateContentID(fbPostID))
	for _, id := range []string{"", "123456789", "_987", "123_", "12a_456", "123_45b", "1_2_3"} {
		err := s.ValidateContentID(id)
		require.Error(t, err, "id %q", id)
		assert.True(t, errs.IsType(err, errs.ErrorTypeValidation))
	}
}

func TestParseFacebookComment(t *testing.T) {
	raw := json.RawMessage(`{
		"id": "9_9",
		"message": "hello",
		"from": {"id": "12", "name": "Zoe"},
		"like_count": 3,
		"comment_count": 2,
		"created_time": "2024-02-03T04:05:06+0000",
		"parent": {"id": "9_1"}
	}`)

	rec, err := parseFacebookComment(raw, fbPostID, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, "9_9", rec.ID)
	assert.Equal(t, "9_1", rec.ParentCommentID)
	assert.Equal(t, "Zoe", rec.AuthorName)
	assert.Equal(t, 2, rec.ReplyCount)
	assert.False(t, rec.IsSpam)
	assert.Equal(t, time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC), rec.PublishedAt.UTC())
}

func TestParseFacebookCommentMalformed(t *testing.T) {
	_, err := parseFacebookComment(json.RawMessage(`{`), fbPostID, time.Now())
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeParsing))
}
