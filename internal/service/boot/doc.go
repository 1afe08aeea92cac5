// Package boot is the entry point of the fieldboot command.
//
// Run loads the plan file, builds the launcher, the health probes, the
// syncer and the journal from it, and hands them to the sequencer.
package boot
