//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"errors"
	"os"
	"testing"

	"github.com/mitchellh/go-ps"
	"github.com/stretchr/testify/require"
)

// fakeProcess is a minimal ps.Process for table lookups.
type fakeProcess struct {
	pid  int
	name string
}

func (p fakeProcess) Pid() int           { return p.pid }
func (p fakeProcess) PPid() int          { return 1 }
func (p fakeProcess) Executable() string { return p.name }

func listOf(processes ...ps.Process) ProcessLister {
	return func() ([]ps.Process, error) {
		return processes, nil
	}
}

// TestFindProcess matches by base name and skips the current process.
func TestFindProcess(t *testing.T) {
	t.Parallel()

	list := listOf(
		fakeProcess{pid: os.Getpid(), name: "gpsd"},
		fakeProcess{pid: 7, name: "mongod"},
		fakeProcess{pid: 9, name: "gpsd"},
	)

	pid, found, err := FindProcess(list, "/usr/sbin/gpsd")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 9, pid)

	_, found, err = FindProcess(list, "chronyd")
	require.NoError(t, err)
	require.False(t, found)
}

// TestFindProcess_ListError surfaces process table failures.
func TestFindProcess_ListError(t *testing.T) {
	t.Parallel()

	boom := errors.New("proc unavailable")

	_, _, err := FindProcess(func() ([]ps.Process, error) { return nil, boom }, "gpsd")
	require.ErrorIs(t, err, boom)
}

// TestSameExecutable covers truncated kernel names and Windows suffixes.
func TestSameExecutable(t *testing.T) {
	t.Parallel()

	require.True(t, SameExecutable("gpsd", "gpsd"))
	require.True(t, SameExecutable("gpsd.exe", "gpsd"))
	require.True(t, SameExecutable("agrivision-disp", "agrivision-display"))
	require.False(t, SameExecutable("agrivision", "agrivision-display"))
	require.False(t, SameExecutable("gpsd", "gpspipe"))
}

// TestEnviron_Overlay replaces inherited keys and appends new ones in order.
func TestEnviron_Overlay(t *testing.T) {
	t.Setenv("FIELDBOOT_TEST_KEY", "inherited")

	env := Environ(map[string]string{"FIELDBOOT_TEST_KEY": "overlay", "B_KEY": "b", "A_KEY": "a"})

	require.NotContains(t, env, "FIELDBOOT_TEST_KEY=inherited")
	require.Equal(t, []string{"A_KEY=a", "B_KEY=b", "FIELDBOOT_TEST_KEY=overlay"}, env[len(env)-3:])
}

// TestHasDisplay detects X11 and Wayland sessions and ignores empty values.
func TestHasDisplay(t *testing.T) {
	t.Parallel()

	require.True(t, HasDisplay([]string{"PATH=/bin", "DISPLAY=:0"}))
	require.True(t, HasDisplay([]string{"WAYLAND_DISPLAY=wayland-0"}))
	require.False(t, HasDisplay([]string{"DISPLAY="}))
	require.False(t, HasDisplay([]string{"PATH=/bin"}))
}
