// Package sequencer runs the boot state machine.
//
// A Sequencer walks a fixed BootPlan through the stages
// init, starting_dependency, syncing_repo, launching_primary, then success
// or launching_fallback, and finally done. The transition table below is
// the complete list of moves; which failures end the boot early is decided
// by the plan's Policy. Every transition is reported to the observers.
package sequencer
