package orchestrator

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	errs "commentscraper/pkg/errors"
	"commentscraper/pkg/logger"
	"commentscraper/pkg/models"
)

// ScrapeComments runs one scraping job to completion and returns its final
// snapshot. The job is visible through Job and Jobs for the whole run, so
// other goroutines can watch progress or cancel it. The returned error is
// non-nil only when the job failed; a cancelled job comes back with a nil
// error and whatever pages landed before the cancel.
func (o *Orchestrator) ScrapeComments(ctx context.Context, req models.ScrapeRequest) (models.JobSnapshot, error) {
	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		return models.JobSnapshot{}, errs.Wrap(err, errs.ErrorTypeValidation, "invalid scrape request").WithPlatform(req.Platform.String())
	}

	job, jobCtx := o.registerJob(ctx, req)
	err := o.runJob(jobCtx, job, req)
	return job.Snapshot(), err
}

// registerJob creates a pending job and its cancel hook in one step, so a
// job that is visible through Jobs can always be cancelled.
func (o *Orchestrator) registerJob(ctx context.Context, req models.ScrapeRequest) (*models.Job, context.Context) {
	job := models.NewJob(uuid.New().String(), req.Platform, req.ContentID)
	jobCtx, cancel := context.WithCancel(ctx)

	o.jobsMu.Lock()
	o.jobs[job.ID()] = job
	o.cancels[job.ID()] = cancel
	o.jobsMu.Unlock()

	o.log.InfoWithFields("job registered", map[string]interface{}{
		"job_id":     job.ID(),
		"platform":   req.Platform.String(),
		"content_id": req.ContentID,
	})
	return job, jobCtx
}

// runJob drives one job through its lifecycle. A semaphore slot gates the
// run so the configured concurrency bound holds across every scrape path.
func (o *Orchestrator) runJob(ctx context.Context, job *models.Job, req models.ScrapeRequest) error {
	defer func() {
		o.jobsMu.Lock()
		cancel := o.cancels[job.ID()]
		delete(o.cancels, job.ID())
		o.jobsMu.Unlock()
		if cancel != nil {
			cancel()
		}
	}()

	if err := o.sem.Acquire(ctx, 1); err != nil {
		// Interrupted while queued. Nothing ran, so the job ends cancelled
		// rather than failed. When CancelJob was the trigger the job is
		// already terminal and the interruption is not an error; when the
		// caller's context was, it is.
		if cancelErr := job.RequestCancel(); cancelErr == nil {
			logger.LogJobTransition(job.ID(), req.Platform.String(), string(models.JobStatePending), string(models.JobStateCancelled))
			return err
		}
		return nil
	}
	defer o.sem.Release(1)

	if err := job.Start(); err != nil {
		// CancelJob moved the job to cancelled while it was queued.
		return nil
	}
	logger.LogJobTransition(job.ID(), req.Platform.String(), string(models.JobStatePending), string(models.JobStateRunning))

	s, err := o.getScraper(ctx, req.Platform)
	if err != nil {
		return o.finishJob(job, req, err)
	}

	stream, err := s.Scrape(ctx, &req)
	if err != nil {
		return o.finishJob(job, req, err)
	}
	defer stream.Close()

	// Records land on the job one page at a time, keeping progress and the
	// cancellation boundary page-aligned.
	var batch []models.CommentRecord
	scraped := 0
	lastPage := 0
	for stream.Next() {
		if p := stream.Pages(); p != lastPage {
			if len(batch) > 0 {
				job.AddComments(batch)
				scraped += len(batch)
				logger.LogScrapeProgress(req.Platform.String(), req.ContentID, scraped, req.MaxComments)
				batch = nil
			}
			lastPage = p
		}
		batch = append(batch, stream.Record())
	}
	if len(batch) > 0 {
		job.AddComments(batch)
	}

	return o.finishJob(job, req, stream.Err())
}

// finishJob settles the terminal state: a requested cancel beats both
// success and failure, stream errors fail the job, everything else
// completes it. The returned error is what ScrapeComments surfaces.
func (o *Orchestrator) finishJob(job *models.Job, req models.ScrapeRequest, runErr error) error {
	id := job.ID()
	platform := req.Platform.String()

	if job.CancelRequested() {
		_ = job.ConfirmCancel()
		logger.LogJobTransition(id, platform, string(models.JobStateRunning), string(models.JobStateCancelled))
		return nil
	}

	if runErr != nil {
		_ = job.Fail(runErr)
		logger.LogJobTransition(id, platform, string(models.JobStateRunning), string(models.JobStateFailed))
		o.log.ErrorWithFields("scrape job failed", map[string]interface{}{
			"job_id":     id,
			"platform":   platform,
			"content_id": req.ContentID,
			"error":      runErr.Error(),
		})
		return runErr
	}

	_ = job.Complete()
	snap := job.Snapshot()
	logger.LogJobTransition(id, platform, string(models.JobStateRunning), string(models.JobStateCompleted))
	o.log.InfoWithFields("scrape job completed", map[string]interface{}{
		"job_id":   id,
		"platform": platform,
		"comments": snap.CommentsScraped,
		"pages":    snap.PagesFetched,
	})
	return nil
}

// CancelJob asks a job to stop. Pending jobs cancel immediately; running
// jobs stop at the next page boundary and keep everything scraped so far.
// Terminal jobs cannot be cancelled.
func (o *Orchestrator) CancelJob(id string) error {
	o.jobsMu.Lock()
	job, ok := o.jobs[id]
	cancel := o.cancels[id]
	o.jobsMu.Unlock()

	if !ok {
		return errs.Newf(errs.ErrorTypeNotFound, "no job with id %s", id)
	}

	wasPending := job.State() == models.JobStatePending
	if err := job.RequestCancel(); err != nil {
		return errs.Wrap(err, errs.ErrorTypeValidation, "cannot cancel job")
	}
	if cancel != nil {
		cancel()
	}

	if wasPending && job.State() == models.JobStateCancelled {
		logger.LogJobTransition(id, job.Platform().String(), string(models.JobStatePending), string(models.JobStateCancelled))
	} else {
		o.log.InfoWithFields("job cancellation requested", map[string]interface{}{
			"job_id": id,
		})
	}
	return nil
}

// Job returns a snapshot of the job with the given id.
func (o *Orchestrator) Job(id string) (models.JobSnapshot, error) {
	o.jobsMu.RLock()
	job, ok := o.jobs[id]
	o.jobsMu.RUnlock()

	if !ok {
		return models.JobSnapshot{}, errs.Newf(errs.ErrorTypeNotFound, "no job with id %s", id)
	}
	return job.Snapshot(), nil
}

// Jobs returns snapshots of every registered job, oldest first.
func (o *Orchestrator) Jobs() []models.JobSnapshot {
	o.jobsMu.RLock()
	jobs := make([]*models.Job, 0, len(o.jobs))
	for _, job := range o.jobs {
		jobs = append(jobs, job)
	}
	o.jobsMu.RUnlock()

	snaps := make([]models.JobSnapshot, 0, len(jobs))
	for _, job := range jobs {
		snaps = append(snaps, job.Snapshot())
	}
	sort.Slice(snaps, func(i, j int) bool {
		if snaps[i].CreatedAt.Equal(snaps[j].CreatedAt) {
			return snaps[i].ID < snaps[j].ID
		}
		return snaps[i].CreatedAt.Before(snaps[j].CreatedAt)
	})
	return snaps
}

// PlatformResult is one platform's outcome from a multi-platform scrape.
type PlatformResult struct {
	Snapshot models.JobSnapshot
	Err      error
}

// ScrapeMultiplePlatforms runs one job per platform named in the request.
// The scrapes run concurrently under the shared concurrency bound, and
// each platform succeeds or fails on its own; callers get every outcome
// keyed by platform.
func (o *Orchestrator) ScrapeMultiplePlatforms(ctx context.Context, req models.MultiPlatformRequest) map[models.Platform]PlatformResult {
	requests := req.Requests()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[models.Platform]PlatformResult, len(requests))
	)
	for _, r := range requests {
		wg.Add(1)
		go func(r models.ScrapeRequest) {
			defer wg.Done()
			snap, err := o.ScrapeComments(ctx, r)
			mu.Lock()
			results[r.Platform] = PlatformResult{Snapshot: snap, Err: err}
			mu.Unlock()
		}(r)
	}
	wg.Wait()

	return results
}
