// Package boot contains core domain types for the boot sequence.
//
// It defines what a service launch looks like (ServiceSpec), what came out of
// it (ServiceResult), what a bundle sync produced (SyncOutcome), the immutable
// BootPlan handed to the sequencer, the sequencer stages and the documented
// process exit codes.
package boot
