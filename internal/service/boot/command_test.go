package boot

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/fieldboot/internal/config"
	domain "github.com/oshokin/fieldboot/internal/domain/boot"
	"github.com/oshokin/fieldboot/internal/repository/journal"
)

// shell returns a service running script through sh.
func shell(name, script string) config.Service {
	return config.Service{Name: name, Command: "sh", Args: []string{"-c", script}}
}

// savePlan writes cfg into a temp dir and returns its path.
func savePlan(t *testing.T, cfg *config.Config) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("sh is not available on windows")
	}

	path := filepath.Join(t.TempDir(), "fieldboot.yaml")
	require.NoError(t, config.Save(path, cfg))

	return path
}

// TestRun_PrimarySucceeds checks a full boot with a journal.
func TestRun_PrimarySucceeds(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	journalPath := filepath.Join(dir, "journal")
	marker := filepath.Join(dir, "gpsd.ready")

	path := savePlan(t, &config.Config{
		Journal: journalPath,
		Services: []config.Service{{
			Name:            "gpsd",
			Command:         "sh",
			Args:            []string{"-c", "touch " + marker},
			RequiredForBoot: true,
			Probe:           &config.Probe{Kind: "file", Path: marker},
		}},
		Primary:  shell("guidance", "exit 0"),
		Fallback: shell("terminal", "exit 0"),
	})

	code, err := Run(context.Background(), &Options{ConfigPath: path})
	require.NoError(t, err)
	require.Equal(t, domain.ExitOK, code)

	entries, err := journal.NewFileRepository(journalPath).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 5)
	require.Equal(t, domain.StageStartingDependency, entries[0].Stage)
	require.Equal(t, domain.StageSuccess, entries[3].Stage)
	require.Equal(t, domain.StageDone, entries[4].Stage)
	require.Equal(t, "ok (exit 0)", entries[4].Outcome)
}

// TestRun_Fallback checks that a failing primary is replaced by the fallback.
func TestRun_Fallback(t *testing.T) {
	t.Parallel()

	path := savePlan(t, &config.Config{
		Primary:  shell("guidance", "exit 1"),
		Fallback: shell("terminal", "exit 0"),
	})

	code, err := Run(context.Background(), &Options{ConfigPath: path})
	require.NoError(t, err)
	require.Equal(t, domain.ExitOK, code)

	path = savePlan(t, &config.Config{
		Primary:  shell("guidance", "exit 1"),
		Fallback: shell("terminal", "exit 2"),
	})

	code, err = Run(context.Background(), &Options{ConfigPath: path})
	require.NoError(t, err)
	require.Equal(t, domain.ExitActionsFailed, code)
}

// TestRun_NoFallbackConfigured fails the boot when the primary fails and the
// plan names no fallback.
func TestRun_NoFallbackConfigured(t *testing.T) {
	t.Parallel()

	journalPath := filepath.Join(t.TempDir(), "journal")
	path := savePlan(t, &config.Config{
		Journal: journalPath,
		Primary: shell("guidance", "exit 1"),
	})

	code, err := Run(context.Background(), &Options{ConfigPath: path})
	require.NoError(t, err)
	require.Equal(t, domain.ExitActionsFailed, code)

	entries, err := journal.NewFileRepository(journalPath).Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, domain.StageDone, entries[len(entries)-1].Stage)
	require.Equal(t, "no_fallback (exit 5)", entries[len(entries)-1].Outcome)
}

// TestRun_MissingRequiredDependency checks the abort exit code.
func TestRun_MissingRequiredDependency(t *testing.T) {
	t.Parallel()

	path := savePlan(t, &config.Config{
		Services: []config.Service{{
			Name:            "gpsd",
			Command:         filepath.Join(t.TempDir(), "no-such-gpsd"),
			RequiredForBoot: true,
		}},
		Primary:  shell("guidance", "exit 0"),
		Fallback: shell("terminal", "exit 0"),
	})

	code, err := Run(context.Background(), &Options{ConfigPath: path})
	require.NoError(t, err)
	require.Equal(t, domain.ExitDependencyStart, code)
}

// TestRun_SyncNetworkErrorProceeds checks that an unreachable remote still
// launches the primary and leaves the working copy alone.
func TestRun_SyncNetworkErrorProceeds(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git is not installed")
	}

	local := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(local, "route.plan"), []byte("committed"), 0o600))

	for _, args := range [][]string{
		{"init", "-b", "main"},
		{"add", "route.plan"},
		{"-c", "user.email=field@example.com", "-c", "user.name=Field", "-c", "commit.gpgsign=false",
			"commit", "-m", "initial"},
		{"remote", "add", "origin", filepath.Join(t.TempDir(), "unreachable")},
	} {
		out, err := exec.Command("git", append([]string{"-C", local}, args...)...).CombinedOutput()
		require.NoError(t, err, string(out))
	}

	require.NoError(t, os.WriteFile(filepath.Join(local, "route.plan"), []byte("local"), 0o600))

	journalPath := filepath.Join(t.TempDir(), "journal")
	path := savePlan(t, &config.Config{
		Journal:  journalPath,
		Sync:     config.Sync{Enabled: true, Method: "git", LocalPath: local, Ref: "main"},
		Primary:  shell("guidance", "exit 0"),
		Fallback: shell("terminal", "exit 0"),
	})

	code, err := Run(context.Background(), &Options{ConfigPath: path})
	require.NoError(t, err)
	require.Equal(t, domain.ExitOK, code)

	contents, err := os.ReadFile(filepath.Join(local, "route.plan"))
	require.NoError(t, err)
	require.Equal(t, "local", string(contents))

	entries, err := journal.NewFileRepository(journalPath).Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, domain.StageLaunchingPrimary, entries[2].Stage)
	require.Equal(t, string(domain.SyncNetworkError), entries[2].Outcome)
}

// TestRun_InvalidPlan checks the plan error exit code.
func TestRun_InvalidPlan(t *testing.T) {
	t.Parallel()

	code, err := Run(context.Background(), &Options{ConfigPath: filepath.Join(t.TempDir(), "missing.yaml")})
	require.Error(t, err)
	require.Equal(t, domain.ExitInvalidPlan, code)

	path := filepath.Join(t.TempDir(), "fieldboot.yaml")
	require.NoError(t, os.WriteFile(path, []byte("primary:\n  command: \"\"\n"), 0o600))

	code, err = Run(context.Background(), &Options{ConfigPath: path})
	require.Error(t, err)
	require.Equal(t, domain.ExitInvalidPlan, code)
}
