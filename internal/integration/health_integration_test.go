package integration

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/oshokin/fieldboot/internal/config"
	domain "github.com/oshokin/fieldboot/internal/domain/boot"
)

// grpcPlan returns a plan whose required dependency is checked over gRPC.
func grpcPlan(address string, policy config.Policy, marker string) *config.Config {
	dependency := shell("receiver", "exit 0")
	dependency.RequiredForBoot = true
	dependency.Probe = &config.Probe{
		Kind:     string(domain.ProbeGRPC),
		Address:  address,
		Interval: 50 * time.Millisecond,
		Timeout:  300 * time.Millisecond,
	}

	return &config.Config{
		Policy:   policy,
		Services: []config.Service{dependency},
		Primary:  shell("guidance", "touch "+marker),
		Fallback: shell("terminal", "exit 0"),
	}
}

// TestHealth_ServingDependency boots once the dependency reports SERVING.
func TestHealth_ServingDependency(t *testing.T) {
	t.Parallel()

	address, healthServer := startGRPC(t)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	marker := filepath.Join(t.TempDir(), "guidance.started")

	require.Equal(t, domain.ExitOK, runPlan(t, grpcPlan(address, config.Policy{}, marker)))
	require.FileExists(t, marker)
}

// TestHealth_UnhealthyDependency checks both health failure policies.
func TestHealth_UnhealthyDependency(t *testing.T) {
	t.Parallel()

	address, healthServer := startGRPC(t)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)

	// Default policy logs and continues.
	marker := filepath.Join(t.TempDir(), "guidance.started")
	require.Equal(t, domain.ExitOK, runPlan(t, grpcPlan(address, config.Policy{}, marker)))
	require.FileExists(t, marker)

	// Strict policy aborts before the primary.
	marker = filepath.Join(t.TempDir(), "guidance.started")
	code := runPlan(t, grpcPlan(address, config.Policy{AbortOnUnhealthy: true}, marker))
	require.Equal(t, domain.ExitDependencyHealth, code)
	require.NoFileExists(t, marker)
}
