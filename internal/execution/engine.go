package execution

import (
	"context"
	"errors"
	"time"
)

// Engine errors
var (
	// ErrRateLimited marks a throttled dispatch; the queue retries these
	// with backoff. Every other failure is final for the job.
	ErrRateLimited = errors.New("execution engine rate limited")
	// ErrMissingCredentials means the engine is not configured; it is
	// returned before any network call is attempted.
	ErrMissingCredentials = errors.New("execution engine credentials missing")
)

// Job is one code-execution request
type Job struct {
	SourceCode  string
	Language    string
	Stdin       string
	SubmittedAt time.Time
}

// Result is the outcome of a finished job
type Result struct {
	Output  string
	IsError bool
}

// Engine runs a single job to completion. Implementations: the remote
// Judge0 client and the local subprocess runner.
type Engine interface {
	Execute(ctx context.Context, job Job) (Result, error)
}
