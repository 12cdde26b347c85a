package scrapepool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"commentscraper/pkg/logger"
	"commentscraper/pkg/models"
)

// Task is one scrape request queued for execution, tagged with its
// position in the source batch so results can be reordered.
type Task struct {
	Index   int
	Request models.ScrapeRequest
}

// Result is the outcome of one task.
type Result struct {
	Task     Task
	JobID    string
	Records  []models.CommentRecord
	Err      error
	Duration time.Duration
}

// Runner executes one scrape request and reports the job id it ran under.
type Runner interface {
	RunScrape(ctx context.Context, req models.ScrapeRequest) (string, []models.CommentRecord, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, req models.ScrapeRequest) (string, []models.CommentRecord, error)

func (f RunnerFunc) RunScrape(ctx context.Context, req models.ScrapeRequest) (string, []models.CommentRecord, error) {
	return f(ctx, req)
}

// Pool fans scrape tasks out over a fixed set of workers. Tasks carry no
// deadline of their own; the pool's context governs every run.
type Pool struct {
	workers int
	tasks   chan Task
	results chan Result
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	runner  Runner
	log     logger.Logger
}

// New builds a pool executing tasks through runner. The pool's lifetime is
// bounded by ctx: cancelling it stops workers between tasks.
func New(ctx context.Context, workers int, runner Runner, log logger.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}
	ctx, cancel := context.WithCancel(ctx)

	return &Pool{
		workers: workers,
		tasks:   make(chan Task, workers*2),
		results: make(chan Result, workers),
		ctx:     ctx,
		cancel:  cancel,
		runner:  runner,
		log:     log,
	}
}

// Start launches the workers.
func (p *Pool) Start() {
	p.log.InfoWithFields("starting scrape pool", map[string]interface{}{
		"workers": p.workers,
	})
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop closes the task queue, waits for in-flight tasks to finish, then
// closes the results channel. No Submit may follow.
func (p *Pool) Stop() {
	close(p.tasks)
	p.wg.Wait()
	close(p.results)
	p.cancel()
	p.log.Debug("scrape pool stopped")
}

// Submit queues a task. It blocks while the queue is full and fails once
// the pool's context is cancelled.
func (p *Pool) Submit(task Task) error {
	select {
	case p.tasks <- task:
		return nil
	case <-p.ctx.Done():
		return fmt.Errorf("scrape pool is shutting down: %w", p.ctx.Err())
	}
}

// Results returns the channel task outcomes arrive on. Stop closes it
// after the last worker exits.
func (p *Pool) Results() <-chan Result {
	return p.results
}

// QueueDepth returns the number of queued tasks not yet picked up.
func (p *Pool) QueueDepth() int {
	return len(p.tasks)
}

// Workers returns the worker count.
func (p *Pool) Workers() int {
	return p.workers
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for task := range p.tasks {
		select {
		case <-p.ctx.Done():
			p.log.DebugWithFields("worker stopping, context cancelled", map[string]interface{}{
				"worker_id": id,
			})
			return
		default:
		}

		result := p.runTask(task, id)

		select {
		case p.results <- result:
		case <-p.ctx.Done():
			return
		}
	}
}

func (p *Pool) runTask(task Task, workerID int) Result {
	start := time.Now()

	p.log.DebugWithFields("worker picked up task", map[string]interface{}{
		"worker_id":  workerID,
		"platform":   task.Request.Platform.String(),
		"content_id": task.Request.ContentID,
	})

	jobID, records, err := p.runner.RunScrape(p.ctx, task.Request)
	result := Result{
		Task:     task,
		JobID:    jobID,
		Records:  records,
		Err:      err,
		Duration: time.Since(start),
	}

	if err != nil {
		p.log.WarnWithFields("scrape task failed", map[string]interface{}{
			"worker_id":  workerID,
			"platform":   task.Request.Platform.String(),
			"content_id": task.Request.ContentID,
			"error":      err.Error(),
		})
		return result
	}

	p.log.DebugWithFields("scrape task finished", map[string]interface{}{
		"worker_id": workerID,
		"records":   len(records),
		"duration":  result.Duration.String(),
	})
	return result
}
