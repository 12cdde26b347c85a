package platforms

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commentscraper/pkg/config"
	errs "commentscraper/pkg/errors"
	"commentscraper/pkg/logger"
	"commentscraper/pkg/models"
	"commentscraper/pkg/ratelimit"
)

func TestNewBuildsEveryPlatform(t *testing.T) {
	log := logger.NewNopLogger()
	cfg := &config.Config{Scraper: testScraperConfig()}
	limits := ratelimit.NewRegistry(nil, nil, log)

	for _, platform := range models.AllPlatforms() {
		s, err := New(platform, cfg, nil, limits, log)
		require.NoError(t, err, "platform %s", platform)
		assert.Equal(t, platform, s.Platform())
	}
}

func TestNewRejectsUnknownPlatform(t *testing.T) {
	log := logger.NewNopLogger()
	cfg := &config.Config{Scraper: testScraperConfig()}

	_, err := New(models.Platform("myspace"), cfg, nil, ratelimit.NewRegistry(nil, nil, log), log)
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeValidation))
}

func TestRateLimitRules(t *testing.T) {
	cfg := config.RateLimitsConfig{
		YouTube:   config.PlatformLimits{RequestsPerWindow: 10, Window: time.Minute, DailyCap: 100},
		Instagram: config.PlatformLimits{DailyCap: 200},
		TikTok:    config.PlatformLimits{RequestsPerWindow: 5, Window: time.Second},
	}

	rules, daily := RateLimitRules(cfg)

	require.Len(t, rules, 2)
	yt := rules[ratelimit.Key{Platform: models.PlatformYouTube, Endpoint: EndpointYouTubeComments}]
	assert.Equal(t, 10, yt.Requests)
	assert.Equal(t, time.Minute, yt.Window)
	tt := rules[ratelimit.Key{Platform: models.PlatformTikTok, Endpoint: EndpointTikTokComments}]
	assert.Equal(t, 5, tt.Requests)

	assert.Equal(t, map[models.Platform]int{
		models.PlatformYouTube:   100,
		models.PlatformInstagram: 200,
	}, daily)
}
