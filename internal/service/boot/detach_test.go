package boot

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/fieldboot/internal/config"
)

// envOrchestratorPlan makes the test binary act as the orchestrator for the plan it names.
const envOrchestratorPlan = "FIELDBOOT_TEST_ORCHESTRATOR_PLAN"

// TestMain lets tests re-exec this binary as a real orchestrator process that
// exits once the boot is over, the way the CLI does.
func TestMain(m *testing.M) {
	if path := os.Getenv(envOrchestratorPlan); path != "" {
		code, err := Run(context.Background(), &Options{ConfigPath: path})
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
		}

		os.Exit(code.Int())
	}

	os.Exit(m.Run())
}

// TestRun_ServicesOutliveOrchestrator checks that a long-running primary keeps
// running and writing output after the orchestrator process has exited.
func TestRun_ServicesOutliveOrchestrator(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		// withOutputFile sets the service output file instead of inheriting.
		withOutputFile bool
	}{
		"output file":      {withOutputFile: true},
		"inherited stdout": {withOutputFile: false},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			marker := filepath.Join(dir, "still-alive")
			serviceOutput := filepath.Join(dir, "guidance.out")

			primary := shell("guidance", fmt.Sprintf("sleep 2; echo tick; echo tock; touch '%s'; sleep 1", marker))
			primary.LongRunning = true
			primary.AliveDelay = 300 * time.Millisecond

			if tc.withOutputFile {
				primary.Output = serviceOutput
			}

			path := savePlan(t, &config.Config{Primary: primary})

			orchestratorOutput, err := os.Create(filepath.Join(dir, "fieldboot.out"))
			require.NoError(t, err)

			defer orchestratorOutput.Close()

			cmd := exec.Command(os.Args[0], "-test.run=^$")
			cmd.Env = append(os.Environ(), envOrchestratorPlan+"="+path)
			cmd.Stdout = orchestratorOutput
			cmd.Stderr = orchestratorOutput

			require.NoError(t, cmd.Run())
			require.NoFileExists(t, marker, "orchestrator returned before the service finished its work")

			require.Eventually(t, func() bool {
				_, statErr := os.Stat(marker)
				return statErr == nil
			}, 10*time.Second, 50*time.Millisecond)

			written := orchestratorOutput.Name()
			if tc.withOutputFile {
				written = serviceOutput
			}

			contents, err := os.ReadFile(written)
			require.NoError(t, err)
			require.Contains(t, string(contents), "tick\ntock\n")
		})
	}
}
