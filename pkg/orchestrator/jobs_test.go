package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "commentscraper/pkg/errors"
	"commentscraper/pkg/models"
)

type scrapeOutcome struct {
	snap models.JobSnapshot
	err  error
}

func TestScrapeCommentsCompletesJob(t *testing.T) {
	mock := &mockScraper{
		platform: models.PlatformYouTube,
		pages: [][]models.CommentRecord{
			mockPage("vid-1", "c1", "c2"),
			mockPage("vid-1", "c3"),
		},
	}
	o, _ := newTestOrchestrator(t, testConfig(), map[models.Platform]*mockScraper{
		models.PlatformYouTube: mock,
	})
	defer o.Shutdown()

	snap, err := o.ScrapeComments(context.Background(), models.ScrapeRequest{
		Platform:  models.PlatformYouTube,
		ContentID: "vid-1",
	})
	require.NoError(t, err)

	assert.Equal(t, models.JobStateCompleted, snap.State)
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, 3, snap.CommentsScraped)
	assert.Equal(t, 2, snap.PagesFetched)
	require.Len(t, snap.Comments, 3)
	assert.Equal(t, "c1", snap.Comments[0].ID)
	assert.Equal(t, "c3", snap.Comments[2].ID)
	assert.False(t, snap.StartedAt.IsZero())
	assert.False(t, snap.CompletedAt.IsZero())
	assert.Empty(t, snap.Error)

	stored, err := o.Job(snap.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStateCompleted, stored.State)
	assert.Len(t, o.Jobs(), 1)
}

func TestScrapeCommentsStreamErrorFailsJob(t *testing.T) {
	mock := &mockScraper{
		platform: models.PlatformYouTube,
		pages: [][]models.CommentRecord{
			mockPage("vid-1", "c1", "c2"),
			mockPage("vid-1", "c3"),
		},
		errPage: 2,
		pageErr: errs.New(errs.ErrorTypeServerError, "backend exploded"),
	}
	o, _ := newTestOrchestrator(t, testConfig(), map[models.Platform]*mockScraper{
		models.PlatformYouTube: mock,
	})
	defer o.Shutdown()

	snap, err := o.ScrapeComments(context.Background(), models.ScrapeRequest{
		Platform:  models.PlatformYouTube,
		ContentID: "vid-1",
	})
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeServerError))

	// The first page survives the failure of the second.
	assert.Equal(t, models.JobStateFailed, snap.State)
	assert.Equal(t, 2, snap.CommentsScraped)
	assert.Equal(t, 1, snap.PagesFetched)
	assert.Contains(t, snap.Error, "backend exploded")
}

func TestScrapeCommentsValidatesRequest(t *testing.T) {
	o, factoryCalls := newTestOrchestrator(t, testConfig(), map[models.Platform]*mockScraper{})
	defer o.Shutdown()

	_, err := o.ScrapeComments(context.Background(), models.ScrapeRequest{
		Platform:  "myspace",
		ContentID: "x",
	})
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeValidation))

	_, err = o.ScrapeComments(context.Background(), models.ScrapeRequest{
		Platform: models.PlatformYouTube,
	})
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeValidation))

	// Rejected requests never become jobs.
	assert.Empty(t, o.Jobs())
	assert.Zero(t, *factoryCalls)
}

func TestCancelRunningJobStopsAtPageBoundary(t *testing.T) {
	gate := make(chan struct{}, 2)
	gate <- struct{}{}
	gate <- struct{}{}
	mock := &mockScraper{
		platform: models.PlatformYouTube,
		gate:     gate,
		pages: [][]models.CommentRecord{
			mockPage("vid-1", "c1", "c2"),
			mockPage("vid-1", "c3", "c4"),
			mockPage("vid-1", "c5", "c6"),
		},
	}
	o, _ := newTestOrchestrator(t, testConfig(), map[models.Platform]*mockScraper{
		models.PlatformYouTube: mock,
	})
	defer o.Shutdown()

	done := make(chan scrapeOutcome, 1)
	go func() {
		snap, err := o.ScrapeComments(context.Background(), models.ScrapeRequest{
			Platform:  models.PlatformYouTube,
			ContentID: "vid-1",
		})
		done <- scrapeOutcome{snap, err}
	}()

	// Two pages are released; the third blocks on the gate. Cancel once the
	// first page has landed on the job.
	var jobID string
	require.Eventually(t, func() bool {
		jobs := o.Jobs()
		if len(jobs) == 0 || jobs[0].PagesFetched < 1 {
			return false
		}
		jobID = jobs[0].ID
		return true
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, o.CancelJob(jobID))

	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, models.JobStateCancelled, res.snap.State)
	assert.Equal(t, 4, res.snap.CommentsScraped)
	assert.Equal(t, 2, res.snap.PagesFetched)
}

func TestCancelPendingJobCancelsImmediately(t *testing.T) {
	cfg := testConfig()
	cfg.Orchestrator.MaxConcurrentScrapes = 1

	gate := make(chan struct{}, 1)
	gate <- struct{}{}
	mock := &mockScraper{
		platform: models.PlatformYouTube,
		gate:     gate,
		pages: [][]models.CommentRecord{
			mockPage("vid-1", "c1", "c2"),
			mockPage("vid-1", "c3", "c4"),
		},
	}
	o, _ := newTestOrchestrator(t, cfg, map[models.Platform]*mockScraper{
		models.PlatformYouTube: mock,
	})
	defer o.Shutdown()

	first := make(chan scrapeOutcome, 1)
	go func() {
		snap, err := o.ScrapeComments(context.Background(), models.ScrapeRequest{
			Platform:  models.PlatformYouTube,
			ContentID: "vid-1",
		})
		first <- scrapeOutcome{snap, err}
	}()

	var firstID string
	require.Eventually(t, func() bool {
		jobs := o.Jobs()
		if len(jobs) != 1 || jobs[0].State != models.JobStateRunning {
			return false
		}
		firstID = jobs[0].ID
		return true
	}, 2*time.Second, 5*time.Millisecond)

	// The second job cannot get the only slot and stays pending.
	second := make(chan scrapeOutcome, 1)
	go func() {
		snap, err := o.ScrapeComments(context.Background(), models.ScrapeRequest{
			Platform:  models.PlatformYouTube,
			ContentID: "vid-2",
		})
		second <- scrapeOutcome{snap, err}
	}()

	var secondID string
	require.Eventually(t, func() bool {
		for _, snap := range o.Jobs() {
			if snap.State == models.JobStatePending {
				secondID = snap.ID
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, o.CancelJob(secondID))
	res := <-second
	require.NoError(t, res.err)
	assert.Equal(t, models.JobStateCancelled, res.snap.State)
	assert.Zero(t, res.snap.CommentsScraped)

	require.NoError(t, o.CancelJob(firstID))
	res = <-first
	require.NoError(t, res.err)
	assert.Equal(t, models.JobStateCancelled, res.snap.State)
	assert.Equal(t, 2, res.snap.CommentsScraped)
}

func TestCancelTerminalJobRejected(t *testing.T) {
	mock := &mockScraper{
		platform: models.PlatformYouTube,
		pages:    [][]models.CommentRecord{mockPage("vid-1", "c1")},
	}
	o, _ := newTestOrchestrator(t, testConfig(), map[models.Platform]*mockScraper{
		models.PlatformYouTube: mock,
	})
	defer o.Shutdown()

	snap, err := o.ScrapeComments(context.Background(), models.ScrapeRequest{
		Platform:  models.PlatformYouTube,
		ContentID: "vid-1",
	})
	require.NoError(t, err)

	err = o.CancelJob(snap.ID)
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeValidation))

	stored, err := o.Job(snap.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStateCompleted, stored.State)
}

func TestCancelUnknownJob(t *testing.T) {
	o, _ := newTestOrchestrator(t, testConfig(), map[models.Platform]*mockScraper{})
	defer o.Shutdown()

	err := o.CancelJob("no-such-job")
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeNotFound))

	_, err = o.Job("no-such-job")
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeNotFound))
}

func TestJobsOrderedByCreation(t *testing.T) {
	mock := &mockScraper{platform: models.PlatformYouTube, echo: true}
	o, _ := newTestOrchestrator(t, testConfig(), map[models.Platform]*mockScraper{
		models.PlatformYouTube: mock,
	})
	defer o.Shutdown()

	for _, id := range []string{"vid-0", "vid-1", "vid-2"} {
		_, err := o.ScrapeComments(context.Background(), models.ScrapeRequest{
			Platform:  models.PlatformYouTube,
			ContentID: id,
		})
		require.NoError(t, err)
	}

	jobs := o.Jobs()
	require.Len(t, jobs, 3)
	assert.Equal(t, "vid-0", jobs[0].ContentID)
	assert.Equal(t, "vid-1", jobs[1].ContentID)
	assert.Equal(t, "vid-2", jobs[2].ContentID)
}

func TestScrapeMultiplePlatformsIsolatesFailures(t *testing.T) {
	yt := &mockScraper{
		platform: models.PlatformYouTube,
		pages:    [][]models.CommentRecord{mockPage("vid-yt", "c1", "c2")},
	}
	tk := &mockScraper{
		platform: models.PlatformTikTok,
		initErr:  errs.New(errs.ErrorTypeAuth, "token mint failed"),
	}
	o, _ := newTestOrchestrator(t, testConfig(), map[models.Platform]*mockScraper{
		models.PlatformYouTube: yt,
		models.PlatformTikTok:  tk,
	})
	defer o.Shutdown()

	results := o.ScrapeMultiplePlatforms(context.Background(), models.MultiPlatformRequest{
		ContentIDs: map[models.Platform]string{
			models.PlatformYouTube: "vid-yt",
			models.PlatformTikTok:  "7200000000000000001",
		},
	})
	require.Len(t, results, 2)

	ytRes := results[models.PlatformYouTube]
	require.NoError(t, ytRes.Err)
	assert.Equal(t, models.JobStateCompleted, ytRes.Snapshot.State)
	assert.Equal(t, 2, ytRes.Snapshot.CommentsScraped)

	tkRes := results[models.PlatformTikTok]
	require.Error(t, tkRes.Err)
	assert.True(t, errs.IsType(tkRes.Err, errs.ErrorTypeAuth))
	assert.Equal(t, models.JobStateFailed, tkRes.Snapshot.State)

	counts := 0
	for _, snap := range o.Jobs() {
		if snap.State == models.JobStateCompleted || snap.State == models.JobStateFailed {
			counts++
		}
	}
	assert.Equal(t, 2, counts)
}
