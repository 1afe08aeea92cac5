package boot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestBootPlan_Immutable verifies that neither the input nor the accessors can change the plan.
func TestBootPlan_Immutable(t *testing.T) {
	t.Parallel()

	services := []ServiceSpec{
		{
			Name:    "gpsd",
			Command: "gpsd",
			Env:     map[string]string{"GPSD_SOCKET": "/var/run/gpsd.sock"},
			Probe:   &ProbeSpec{Kind: ProbeFile, Path: "/dev/ttyUSB0", Timeout: time.Second},
		},
		{Name: "mongod", Command: "mongod"},
	}

	plan := NewBootPlan(
		services,
		ServiceSpec{Name: "session", Command: "startx"},
		ServiceSpec{Name: "headless", Command: "python", Args: []string{"agrivision.py"}},
		SyncSpec{Enabled: true, Method: SyncMethodGit, LocalPath: "/opt/app", RemoteRef: "master"},
		Policy{AbortOnUnhealthy: true},
	)

	services[0].Name = "changed"
	services[0].Env["GPSD_SOCKET"] = "changed"
	services[0].Probe.Path = "changed"

	got := plan.Services()
	require.Len(t, got, 2)
	require.Equal(t, "gpsd", got[0].Name)
	require.Equal(t, "/var/run/gpsd.sock", got[0].Env["GPSD_SOCKET"])
	require.Equal(t, "/dev/ttyUSB0", got[0].Probe.Path)
	require.Equal(t, "mongod", got[1].Name)

	got[0], got[1] = got[1], got[0]
	require.Equal(t, "gpsd", plan.Services()[0].Name)

	fallback := plan.Fallback()
	fallback.Args[0] = "changed"
	require.Equal(t, "agrivision.py", plan.Fallback().Args[0])

	require.True(t, plan.Policy().AbortOnUnhealthy)
	require.Equal(t, "master", plan.Sync().RemoteRef)
	require.True(t, plan.Primary().Defined())
}
