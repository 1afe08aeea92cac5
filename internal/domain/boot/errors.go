package boot

import "errors"

var (
	// ErrStartFailure means an executable could not be started.
	ErrStartFailure = errors.New("start failure")
	// ErrHealthTimeout means a service did not become ready in time.
	ErrHealthTimeout = errors.New("health timeout")
	// ErrSyncNetwork means the bundle remote could not be reached.
	ErrSyncNetwork = errors.New("sync network error")
	// ErrSyncConflict means fetched updates could not be applied.
	ErrSyncConflict = errors.New("sync conflict")
	// ErrPrimaryLaunchFailure means the primary action failed to start or exited non-zero.
	ErrPrimaryLaunchFailure = errors.New("primary launch failure")
)
