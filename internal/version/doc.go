// Package version exposes build metadata for fieldboot.
//
// Version, Commit and BuildTime are injected with -ldflags at build time.
package version
