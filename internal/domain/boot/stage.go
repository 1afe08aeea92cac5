package boot

// Stage is a state of the boot sequence.
type Stage string

const (
	// StageInit is the state before any work has started.
	StageInit Stage = "init"
	// StageStartingDependency launches and probes the dependency services.
	StageStartingDependency Stage = "starting_dependency"
	// StageSyncingRepo brings the working copy up to date.
	StageSyncingRepo Stage = "syncing_repo"
	// StageLaunchingPrimary starts the primary action.
	StageLaunchingPrimary Stage = "launching_primary"
	// StageSuccess is reached when the primary action succeeded.
	StageSuccess Stage = "success"
	// StageLaunchingFallback starts the fallback after the primary failed.
	StageLaunchingFallback Stage = "launching_fallback"
	// StageDone is terminal; the exit code is decided.
	StageDone Stage = "done"
)

// ExitCode is the process exit status of a boot run.
type ExitCode int

// Exit codes form the contract with the init system and operators.
const (
	ExitOK               ExitCode = 0   // Primary or fallback succeeded.
	ExitInvalidPlan      ExitCode = 2   // Plan missing or invalid.
	ExitDependencyStart  ExitCode = 3   // Required dependency failed to start.
	ExitDependencyHealth ExitCode = 4   // Required dependency unhealthy and policy aborts.
	ExitActionsFailed    ExitCode = 5   // Primary and fallback both failed.
	ExitInterrupted      ExitCode = 130 // Operator signal.
)

// Int returns the code as an int for os.Exit.
func (c ExitCode) Int() int {
	return int(c)
}
