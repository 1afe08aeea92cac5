package boot

import "time"

// Transition records the sequencer entering a stage.
type Transition struct {
	// From is the stage that just ended.
	From Stage
	// To is the stage being entered.
	To Stage
	// At is when the transition happened.
	At time.Time
	// Outcome says why To was chosen, e.g. "success" or "network_error".
	Outcome string
	// ExitCode is the final code, set when To is StageDone.
	ExitCode ExitCode
}
