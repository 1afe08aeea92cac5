package boot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestServiceResult_FinishOnce verifies the outcome cannot be overwritten.
func TestServiceResult_FinishOnce(t *testing.T) {
	t.Parallel()

	r := NewServiceResult(ServiceSpec{Name: "gpsd", Command: "gpsd"}, time.Now())
	require.Empty(t, r.Outcome())
	require.Equal(t, NoExitCode, r.ExitCode())

	ended := time.Now()
	require.True(t, r.Finish(OutcomeFailure, 1, ended, ErrStartFailure))
	require.False(t, r.Finish(OutcomeSuccess, 0, time.Now(), nil))

	require.Equal(t, OutcomeFailure, r.Outcome())
	require.Equal(t, 1, r.ExitCode())
	require.Equal(t, ended, r.EndedAt())
	require.ErrorIs(t, r.Err(), ErrStartFailure)
	require.False(t, r.Succeeded())
}

// TestServiceResult_RecordExitKeepsOutcome checks that a late termination only fills exit data.
func TestServiceResult_RecordExitKeepsOutcome(t *testing.T) {
	t.Parallel()

	r := NewServiceResult(ServiceSpec{Name: "gpsd", Command: "gpsd", LongRunning: true}, time.Now())
	require.True(t, r.Finish(OutcomeSuccess, NoExitCode, time.Time{}, nil))
	require.True(t, r.EndedAt().IsZero())

	ended := time.Now()
	r.RecordExit(2, ended)
	r.RecordExit(3, ended.Add(time.Second))

	require.Equal(t, OutcomeSuccess, r.Outcome())
	require.Equal(t, 2, r.ExitCode())
	require.Equal(t, ended, r.EndedAt())
}

// TestServiceResult_SpecIsCopied ensures the result does not share the caller's slices.
func TestServiceResult_SpecIsCopied(t *testing.T) {
	t.Parallel()

	spec := ServiceSpec{Name: "app", Command: "python", Args: []string{"app.py"}}
	r := NewServiceResult(spec, time.Now())

	spec.Args[0] = "other.py"
	require.Equal(t, "app.py", r.Spec.Args[0])
}
