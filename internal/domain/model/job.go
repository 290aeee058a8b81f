package model

import "time"

// JobStatus is the lifecycle state of an asynchronous analysis.
type JobStatus string

const (
	JobQueued  JobStatus = "queued"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// Terminal reports whether no further transition is possible.
func (s JobStatus) Terminal() bool { return s == JobDone || s == JobFailed }

// Job is the tracked state of one submitted session.
type Job struct {
	ID          string     `json:"id"`
	Status      JobStatus  `json:"status"`
	SubmittedAt time.Time  `json:"submittedAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	FinishedAt  *time.Time `json:"finishedAt,omitempty"`
	Result      *Analysis  `json:"result,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// Task is a queued unit of work: a session to analyse under a job ID.
type Task struct {
	JobID   string
	Session Session
	Enrich  bool
}
