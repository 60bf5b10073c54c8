package pipeline

import "errors"

var (
	// ErrAlreadyRunning is returned by Start while the pipeline runs.
	// Callers treat it as a no-op failure.
	ErrAlreadyRunning = errors.New("pipeline: already running")

	// ErrNotRunning is returned by Stop when there is nothing to stop.
	ErrNotRunning = errors.New("pipeline: not running")

	// ErrNotReady is returned by Start before Initialize has succeeded.
	ErrNotReady = errors.New("pipeline: not initialized")

	// ErrAdapterInit wraps failures to construct or wire a service adapter.
	ErrAdapterInit = errors.New("pipeline: adapter init")

	// ErrTransientService wraps per-call failures of an external service.
	// The pipeline keeps running when one of these occurs.
	ErrTransientService = errors.New("pipeline: transient service failure")

	// ErrRecognitionSession wraps a recognition session that died and could
	// not be restarted.
	ErrRecognitionSession = errors.New("pipeline: recognition session")

	// ErrInvariantViolation marks a broken internal assumption. Reaching it
	// is a bug.
	ErrInvariantViolation = errors.New("pipeline: invariant violation")
)
