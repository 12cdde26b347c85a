package models

import (
	"fmt"
	"sync"
	"time"
)

// JobState is the lifecycle state of a scraping job.
type JobState string

const (
	JobStatePending   JobState = "pending"
	JobStateRunning   JobState = "running"
	JobStateCompleted JobState = "completed"
	JobStateFailed    JobState = "failed"
	JobStateCancelled JobState = "cancelled"
)

// IsTerminal reports whether the state admits no further transitions.
func (s JobState) IsTerminal() bool {
	switch s {
	case JobStateCompleted, JobStateFailed, JobStateCancelled:
		return true
	}
	return false
}

// Job tracks one scraping run. All mutation goes through the transition
// methods so that illegal state changes are rejected and terminal states
// stay frozen. Cancellation is a cooperative flag: setting it never
// interrupts work in flight, the runner checks it between pages.
type Job struct {
	mu sync.Mutex

	id        string
	platform  Platform
	contentID string

	state      JobState
	cancelFlag bool

	comments     []CommentRecord
	pagesFetched int
	errMsg       string

	createdAt   time.Time
	startedAt   time.Time
	completedAt time.Time
}

// NewJob creates a pending job.
func NewJob(id string, platform Platform, contentID string) *Job {
	return &Job{
		id:        id,
		platform:  platform,
		contentID: contentID,
		state:     JobStatePending,
		createdAt: time.Now(),
	}
}

// Start moves the job from pending to running.
func (j *Job) Start() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state != JobStatePending {
		return fmt.Errorf("cannot start job %s in state %s", j.id, j.state)
	}
	j.state = JobStateRunning
	j.startedAt = time.Now()
	return nil
}

// Complete moves a running job to completed.
func (j *Job) Complete() error {
	return j.finish(JobStateCompleted, "")
}

// Fail moves a running job to failed and records the error message.
func (j *Job) Fail(err error) error {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return j.finish(JobStateFailed, msg)
}

func (j *Job) finish(state JobState, errMsg string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state != JobStateRunning {
		return fmt.Errorf("cannot finish job %s in state %s", j.id, j.state)
	}
	j.state = state
	j.errMsg = errMsg
	j.completedAt = time.Now()
	return nil
}

// RequestCancel sets the cooperative cancellation flag. A pending job is
// cancelled immediately; a running job keeps running until its runner
// observes the flag at the next page boundary and calls ConfirmCancel.
// Cancelling a terminal job is an error.
func (j *Job) RequestCancel() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state.IsTerminal() {
		return fmt.Errorf("cannot cancel job %s in state %s", j.id, j.state)
	}
	j.cancelFlag = true
	if j.state == JobStatePending {
		j.state = JobStateCancelled
		j.completedAt = time.Now()
	}
	return nil
}

// CancelRequested reports whether cancellation has been asked for.
func (j *Job) CancelRequested() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.cancelFlag
}

// ConfirmCancel moves a running job with a pending cancel flag to cancelled.
func (j *Job) ConfirmCancel() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state != JobStateRunning || !j.cancelFlag {
		return fmt.Errorf("cannot confirm cancel of job %s in state %s", j.id, j.state)
	}
	j.state = JobStateCancelled
	j.completedAt = time.Now()
	return nil
}

// AddComments appends scraped records and counts one fetched page.
func (j *Job) AddComments(records []CommentRecord) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.comments = append(j.comments, records...)
	j.pagesFetched++
}

// ID returns the job id.
func (j *Job) ID() string { return j.id }

// Platform returns the platform the job scrapes.
func (j *Job) Platform() Platform { return j.platform }

// State returns the current state.
func (j *Job) State() JobState {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Snapshot returns a point-in-time copy of the job for callers. The
// comments slice is copied so the caller cannot race with the runner.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	comments := make([]CommentRecord, len(j.comments))
	copy(comments, j.comments)
	return JobSnapshot{
		ID:              j.id,
		Platform:        j.platform,
		ContentID:       j.contentID,
		State:           j.state,
		CommentsScraped: len(j.comments),
		PagesFetched:    j.pagesFetched,
		Comments:        comments,
		Error:           j.errMsg,
		CreatedAt:       j.createdAt,
		StartedAt:       j.startedAt,
		CompletedAt:     j.completedAt,
	}
}

// JobSnapshot is an immutable view of a Job.
type JobSnapshot struct {
	ID              string          `json:"id"`
	Platform        Platform        `json:"platform"`
	ContentID       string          `json:"content_id"`
	State           JobState        `json:"state"`
	CommentsScraped int             `json:"comments_scraped"`
	PagesFetched    int             `json:"pages_fetched"`
	Comments        []CommentRecord `json:"comments,omitempty"`
	Error           string          `json:"error,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	StartedAt       time.Time       `json:"started_at,omitempty"`
	CompletedAt     time.Time       `json:"completed_at,omitempty"`
}
