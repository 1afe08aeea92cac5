// Package syncer brings a local working copy up to date with a remote.
//
// Two methods are supported. Git shells out to the git binary and runs
// fetch, a hard reset and a fast-forward pull. Manifest downloads a
// published bundle description over HTTP and replaces every file whose
// checksum differs. Both report a domain.SyncOutcome and never panic or
// abort the caller: every failure is folded into the outcome's status.
package syncer
