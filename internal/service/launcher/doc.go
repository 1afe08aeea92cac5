// Package launcher starts external commands for the boot sequence and
// records the outcome of every attempt in a boot.ServiceResult.
//
// Run-to-completion commands are awaited; long-running services are started
// in their own process group, confirmed alive after a short delay and left
// running. Their termination, if it happens, is recorded in the same result.
package launcher
