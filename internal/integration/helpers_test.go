package integration

import (
	"context"
	"net"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/oshokin/fieldboot/internal/config"
	domain "github.com/oshokin/fieldboot/internal/domain/boot"
	"github.com/oshokin/fieldboot/internal/service/boot"
)

// shell returns a service running script through sh.
func shell(name, script string) config.Service {
	return config.Service{Name: name, Command: "sh", Args: []string{"-c", script}}
}

// runPlan saves cfg and boots it.
func runPlan(t *testing.T, cfg *config.Config) domain.ExitCode {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("sh is not available on windows")
	}

	path := filepath.Join(t.TempDir(), config.DefaultConfigFilename)
	require.NoError(t, config.Save(path, cfg))

	code, err := boot.Run(context.Background(), &boot.Options{ConfigPath: path})
	require.NoError(t, err)

	return code
}

// startGRPC starts a gRPC server exposing the health service.
func startGRPC(t *testing.T) (string, *health.Server) {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	server := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(server, healthServer)

	go func() {
		_ = server.Serve(l) //nolint:errcheck // Serve returns when the test stops the server.
	}()

	t.Cleanup(server.Stop)

	return l.Addr().String(), healthServer
}
