package orchestrator

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commentscraper/pkg/auth"
	errs "commentscraper/pkg/errors"
	"commentscraper/pkg/logger"
	"commentscraper/pkg/models"
)

func TestHealthReportsAvailablePlatforms(t *testing.T) {
	mock := &mockScraper{
		platform: models.PlatformYouTube,
		pages:    [][]models.CommentRecord{mockPage("vid-1", "c1")},
	}
	o, factoryCalls := newTestOrchestrator(t, testConfig(), map[models.Platform]*mockScraper{
		models.PlatformYouTube: mock,
	})
	defer o.Shutdown()

	report := o.Health(context.Background())

	assert.Equal(t, models.HealthStatusHealthy, report.Status)
	assert.Equal(t, []models.Platform{models.PlatformYouTube}, report.AvailablePlatforms)
	assert.Len(t, report.Platforms, 4)
	assert.Len(t, report.RateLimits, 4)
	assert.False(t, report.Timestamp.IsZero())
	assert.Zero(t, report.Jobs.Total())

	yt := report.Platforms[models.PlatformYouTube]
	assert.True(t, yt.CredentialValid)
	assert.True(t, yt.ProbeOK)
	assert.False(t, yt.ProbedAt.IsZero())
	assert.True(t, yt.Available())

	ig := report.Platforms[models.PlatformInstagram]
	assert.False(t, ig.CredentialValid)
	assert.NotEmpty(t, ig.Detail)
	assert.False(t, ig.Available())

	// Probing built the client through the normal path, so it is cached
	// for the scrapes that follow.
	assert.Equal(t, int32(1), atomic.LoadInt32(factoryCalls))
	snap, err := o.ScrapeComments(context.Background(), models.ScrapeRequest{
		Platform:  models.PlatformYouTube,
		ContentID: "vid-1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.JobStateCompleted, snap.State)
	assert.Equal(t, int32(1), atomic.LoadInt32(factoryCalls))
}

func TestHealthDegradedWhenNothingAvailable(t *testing.T) {
	o := New(testConfig(), auth.NewMockManagerWithStores(auth.NewMockStore()), logger.NewNopLogger())
	defer o.Shutdown()

	report := o.Health(context.Background())

	assert.Equal(t, models.HealthStatusDegraded, report.Status)
	assert.Empty(t, report.AvailablePlatforms)
	for _, platform := range models.AllPlatforms() {
		health := report.Platforms[platform]
		assert.False(t, health.CredentialValid)
		assert.Contains(t, health.Detail, "credentials not found")
	}
}

func TestHealthProbeFailureMarksUnavailable(t *testing.T) {
	mock := &mockScraper{
		platform: models.PlatformYouTube,
		initErr:  errs.New(errs.ErrorTypeServerError, "api unreachable"),
	}
	o, factoryCalls := newTestOrchestrator(t, testConfig(), map[models.Platform]*mockScraper{
		models.PlatformYouTube: mock,
	})
	defer o.Shutdown()

	report := o.Health(context.Background())

	yt := report.Platforms[models.PlatformYouTube]
	assert.True(t, yt.CredentialValid)
	assert.False(t, yt.ProbeOK)
	assert.Contains(t, yt.Detail, "api unreachable")
	assert.Equal(t, models.HealthStatusDegraded, report.Status)

	// A failed probe leaves nothing cached; the next health check tries
	// construction again.
	_ = o.Health(context.Background())
	assert.Equal(t, int32(2), atomic.LoadInt32(factoryCalls))
	assert.Equal(t, int32(2), atomic.LoadInt32(&mock.initCalls))
}

func TestHealthReusesCachedClient(t *testing.T) {
	mock := &mockScraper{
		platform: models.PlatformYouTube,
		pages:    [][]models.CommentRecord{mockPage("vid-1", "c1")},
	}
	o, factoryCalls := newTestOrchestrator(t, testConfig(), map[models.Platform]*mockScraper{
		models.PlatformYouTube: mock,
	})
	defer o.Shutdown()

	_, err := o.ScrapeComments(context.Background(), models.ScrapeRequest{
		Platform:  models.PlatformYouTube,
		ContentID: "vid-1",
	})
	require.NoError(t, err)

	report := o.Health(context.Background())

	assert.Contains(t, report.AvailablePlatforms, models.PlatformYouTube)
	assert.Equal(t, int32(1), atomic.LoadInt32(factoryCalls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&mock.initCalls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&mock.probeCalls))
}

func TestHealthCountsJobsByState(t *testing.T) {
	mock := &mockScraper{
		platform: models.PlatformYouTube,
		echo:     true,
		failIDs: map[string]error{
			"vid-bad": errs.New(errs.ErrorTypeNotFound, "video deleted"),
		},
	}
	o, _ := newTestOrchestrator(t, testConfig(), map[models.Platform]*mockScraper{
		models.PlatformYouTube: mock,
	})
	defer o.Shutdown()

	_, err := o.ScrapeComments(context.Background(), models.ScrapeRequest{
		Platform:  models.PlatformYouTube,
		ContentID: "vid-good",
	})
	require.NoError(t, err)
	_, err = o.ScrapeComments(context.Background(), models.ScrapeRequest{
		Platform:  models.PlatformYouTube,
		ContentID: "vid-bad",
	})
	require.Error(t, err)

	report := o.Health(context.Background())
	assert.Equal(t, 1, report.Jobs.Completed)
	assert.Equal(t, 1, report.Jobs.Failed)
	assert.Zero(t, report.Jobs.Pending)
	assert.Zero(t, report.Jobs.Running)
	assert.Equal(t, 2, report.Jobs.Total())
}
