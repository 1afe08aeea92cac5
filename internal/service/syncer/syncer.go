package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/oshokin/fieldboot/internal/domain/boot"
)

var errUnknownMethod = errors.New("unknown sync method")

// Syncer updates the working copy at localPath to remoteRef.
type Syncer interface {
	Sync(ctx context.Context, localPath, remoteRef string) *domain.SyncOutcome
}

// New returns the syncer selected by spec.Method.
func New(spec domain.SyncSpec) (Syncer, error) {
	switch spec.Method {
	case domain.SyncMethodGit, "":
		return &Git{
			Remote:  spec.Remote,
			URL:     spec.URL,
			Timeout: spec.Timeout,
		}, nil
	case domain.SyncMethodManifest:
		return &Manifest{
			BaseURL: spec.ManifestURL,
			Timeout: spec.Timeout,
		}, nil
	default:
		return nil, fmt.Errorf("%q: %w", spec.Method, errUnknownMethod)
	}
}

// withTimeout bounds ctx when timeout is positive.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, timeout)
}

// networkError fills outcome as a NetworkError.
func networkError(outcome *domain.SyncOutcome, err error) *domain.SyncOutcome {
	outcome.Status = domain.SyncNetworkError
	outcome.NewRef = outcome.PreviousRef
	outcome.Changed = false
	outcome.Err = fmt.Errorf("%w: %w", domain.ErrSyncNetwork, err)

	return outcome
}

// conflict fills outcome as a Conflict.
func conflict(outcome *domain.SyncOutcome, err error) *domain.SyncOutcome {
	outcome.Status = domain.SyncConflict
	outcome.Err = fmt.Errorf("%w: %w", domain.ErrSyncConflict, err)

	return outcome
}

// finish fills outcome as Updated or UpToDate.
func finish(outcome *domain.SyncOutcome, newRef string, changed bool) *domain.SyncOutcome {
	outcome.NewRef = newRef
	outcome.Changed = changed || outcome.PreviousRef != newRef

	if outcome.Changed {
		outcome.Status = domain.SyncUpdated
	} else {
		outcome.Status = domain.SyncUpToDate
	}

	return outcome
}
