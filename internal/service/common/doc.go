// Package common holds helpers shared by several services.
//
// It looks processes up in the OS process table (used by the launcher to
// reuse already running daemons and by the process health probe) and builds
// child environments.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
