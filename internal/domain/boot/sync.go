package boot

import "time"

// SyncStatus classifies the result of a bundle sync.
type SyncStatus string

const (
	// SyncUpToDate means the local copy already matched the remote.
	SyncUpToDate SyncStatus = "up_to_date"
	// SyncUpdated means the local copy advanced.
	SyncUpdated SyncStatus = "updated"
	// SyncConflict means the update could not be applied after fetching.
	SyncConflict SyncStatus = "conflict"
	// SyncNetworkError means the remote could not be reached; nothing changed.
	SyncNetworkError SyncStatus = "network_error"
)

// SyncMethod selects the syncer implementation.
type SyncMethod string

const (
	// SyncMethodGit keeps a git working copy in step with a remote ref.
	SyncMethodGit SyncMethod = "git"
	// SyncMethodManifest applies files listed in an HTTP-hosted manifest.
	SyncMethodManifest SyncMethod = "manifest"
)

// SyncOutcome describes what a sync did.
type SyncOutcome struct {
	// PreviousRef is the revision before the sync.
	PreviousRef string
	// NewRef is the revision after the sync.
	NewRef string
	// Changed reports whether the revision moved.
	Changed bool
	// Status is the classified outcome.
	Status SyncStatus
	// Err explains Conflict and NetworkError outcomes.
	Err error
}

// SyncSpec configures the bundle sync stage.
type SyncSpec struct {
	// Enabled turns the stage into a no-op when false.
	Enabled bool
	// Method selects git or manifest.
	Method SyncMethod
	// LocalPath is the working copy or bundle directory.
	LocalPath string
	// Remote is the git remote name.
	Remote string
	// RemoteRef is the branch or tag to advance to.
	RemoteRef string
	// URL is cloned when LocalPath holds no working copy yet.
	URL string
	// ManifestURL is the folder hosting the bundle manifest.
	ManifestURL string
	// Timeout bounds the whole sync.
	Timeout time.Duration
}
