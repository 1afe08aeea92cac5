package boot

import (
	"sync"
	"time"
)

// Outcome is the final verdict of a launch attempt or a health probe.
type Outcome string

const (
	// OutcomeSuccess means the service started (and exited zero, if awaited).
	OutcomeSuccess Outcome = "success"
	// OutcomeFailure means the service could not start or exited non-zero.
	OutcomeFailure Outcome = "failure"
	// OutcomeTimedOut means no verdict was reached in time.
	OutcomeTimedOut Outcome = "timed_out"
)

// NoExitCode marks a result whose process has not exited (or never existed).
const NoExitCode = -1

// ServiceResult records a single launch attempt.
// The outcome is set exactly once; termination of a long-running
// service may be recorded later without touching the outcome.
type ServiceResult struct {
	// Spec is the service that was launched.
	Spec ServiceSpec
	// StartedAt is when the launch was attempted.
	StartedAt time.Time

	mu       sync.Mutex
	outcome  Outcome
	exitCode int
	endedAt  time.Time
	pid      int
	err      error
}

// NewServiceResult opens a result for a launch attempted at startedAt.
func NewServiceResult(spec ServiceSpec, startedAt time.Time) *ServiceResult {
	return &ServiceResult{
		Spec:      spec.Clone(),
		StartedAt: startedAt,
		exitCode:  NoExitCode,
	}
}

// Finish sets the outcome. It reports false and changes nothing when the
// outcome was already set. A zero endedAt means the process is still running.
func (r *ServiceResult) Finish(outcome Outcome, exitCode int, endedAt time.Time, err error) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.outcome != "" {
		return false
	}

	r.outcome = outcome
	r.exitCode = exitCode
	r.endedAt = endedAt
	r.err = err

	return true
}

// RecordExit notes the termination of a process whose outcome is already known.
func (r *ServiceResult) RecordExit(exitCode int, endedAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.endedAt.IsZero() {
		return
	}

	r.exitCode = exitCode
	r.endedAt = endedAt
}

// SetPID records the child's process id.
func (r *ServiceResult) SetPID(pid int) {
	r.mu.Lock()
	r.pid = pid
	r.mu.Unlock()
}

// Outcome returns the verdict, empty while the launch is still in progress.
func (r *ServiceResult) Outcome() Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.outcome
}

// Succeeded reports whether the outcome is OutcomeSuccess.
func (r *ServiceResult) Succeeded() bool {
	return r.Outcome() == OutcomeSuccess
}

// ExitCode returns the exit code, or NoExitCode while the process runs.
func (r *ServiceResult) ExitCode() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.exitCode
}

// EndedAt returns when the process exited, zero while it runs.
func (r *ServiceResult) EndedAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.endedAt
}

// PID returns the child's process id, zero when no child was created.
func (r *ServiceResult) PID() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.pid
}

// Err returns the diagnostic attached to a non-successful outcome.
func (r *ServiceResult) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.err
}
