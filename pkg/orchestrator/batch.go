package orchestrator

import (
	"context"

	"commentscraper/internal/scrapepool"
	errs "commentscraper/pkg/errors"
	"commentscraper/pkg/models"
)

// BatchScrape runs every request through the worker pool and returns the
// outcomes in request order. Items fail independently; one bad request
// never cancels its neighbours. When at least one item failed, the result
// still carries every outcome and the call returns a partial-batch error
// so callers can branch without walking the items themselves.
func (o *Orchestrator) BatchScrape(ctx context.Context, requests []models.ScrapeRequest) (*models.BatchResult, error) {
	result := &models.BatchResult{Items: make([]models.BatchItem, len(requests))}
	if len(requests) == 0 {
		return result, nil
	}

	workers := int(o.maxConcurrent)
	if len(requests) < workers {
		workers = len(requests)
	}
	o.log.InfoWithFields("starting batch scrape", map[string]interface{}{
		"requests": len(requests),
		"workers":  workers,
	})

	runner := scrapepool.RunnerFunc(func(ctx context.Context, req models.ScrapeRequest) (string, []models.CommentRecord, error) {
		snap, err := o.ScrapeComments(ctx, req)
		return snap.ID, snap.Comments, err
	})
	pool := scrapepool.New(ctx, workers, runner, o.log)
	pool.Start()

	// Submissions run in their own goroutine because Submit blocks on a
	// full queue. Stop must not overlap a Submit, so the collector waits
	// for this goroutine before stopping the pool.
	submitDone := make(chan struct{})
	go func() {
		defer close(submitDone)
		for i, req := range requests {
			if err := pool.Submit(scrapepool.Task{Index: i, Request: req}); err != nil {
				return
			}
		}
	}()

	seen := make([]bool, len(requests))
	received := 0
collect:
	for received < len(requests) {
		select {
		case res := <-pool.Results():
			recordBatchItem(result, seen, res)
			received++
		case <-ctx.Done():
			break collect
		}
	}

	<-submitDone
	pool.Stop()

	// Results that landed between the context firing and the pool draining.
	for res := range pool.Results() {
		if !seen[res.Task.Index] {
			recordBatchItem(result, seen, res)
		}
	}
	if err := ctx.Err(); err != nil {
		for i := range requests {
			if !seen[i] {
				result.Items[i] = models.BatchItem{Request: requests[i], Err: err, ErrMsg: err.Error()}
			}
		}
	}

	for _, item := range result.Items {
		if item.Err != nil {
			result.Failed++
		} else {
			result.Succeeded++
		}
	}
	o.log.InfoWithFields("batch scrape finished", map[string]interface{}{
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
	})

	if result.Failed > 0 {
		return result, errs.Newf(errs.ErrorTypePartialBatch, "%d of %d batch requests failed", result.Failed, len(requests))
	}
	return result, nil
}

func recordBatchItem(result *models.BatchResult, seen []bool, res scrapepool.Result) {
	item := models.BatchItem{
		Request:  res.Task.Request,
		JobID:    res.JobID,
		Comments: res.Records,
		Err:      res.Err,
	}
	if res.Err != nil {
		item.ErrMsg = res.Err.Error()
	}
	result.Items[res.Task.Index] = item
	seen[res.Task.Index] = true
}
