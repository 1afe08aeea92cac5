package journal

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/fieldboot/internal/domain/boot"
)

// TestFileRepository_NotFound verifies Load returns ErrNotFound for a missing file.
func TestFileRepository_NotFound(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "missing.log"))
	entries, err := repo.Load(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
	require.Nil(t, entries)
}

// TestFileRepository_AppendLoad ensures appended lines read back in order.
func TestFileRepository_AppendLoad(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "var", "fieldboot.journal")
	repo := NewFileRepository(file)
	at := time.Date(2026, 4, 2, 6, 30, 0, 0, time.UTC)

	require.NoError(t, repo.Append(context.Background(), Entry{Time: at, Stage: domain.StageStartingDependency, Outcome: "ok"}))
	require.NoError(t, repo.Append(context.Background(), Entry{
		Time:    at.Add(time.Second),
		Stage:   domain.StageLaunchingPrimary,
		Outcome: "network_error:\tno route\nto host",
	}))

	contents, err := os.ReadFile(file)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(string(contents), "\n"), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "2026-04-02T06:30:00Z\tstarting_dependency\tok", lines[0])

	entries, err := NewFileRepository(file).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.True(t, at.Equal(entries[0].Time))
	require.Equal(t, domain.StageLaunchingPrimary, entries[1].Stage)
	require.Equal(t, "network_error: no route to host", entries[1].Outcome)
}

// TestFileRepository_Observe checks transitions are journaled with exit codes.
func TestFileRepository_Observe(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "journal"))
	ctx := context.Background()
	at := time.Now()

	repo.Observe(ctx, domain.Transition{
		From:    domain.StageLaunchingPrimary,
		To:      domain.StageLaunchingFallback,
		At:      at,
		Outcome: "failure",
	})
	repo.Observe(ctx, domain.Transition{
		From:     domain.StageLaunchingFallback,
		To:       domain.StageDone,
		At:       at,
		Outcome:  "success",
		ExitCode: domain.ExitOK,
	})

	entries, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "failure", entries[0].Outcome)
	require.Equal(t, domain.StageDone, entries[1].Stage)
	require.Equal(t, "success (exit 0)", entries[1].Outcome)
}

// TestFileRepository_Malformed ensures corrupt lines are reported.
func TestFileRepository_Malformed(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "journal")
	require.NoError(t, os.WriteFile(file, []byte("yesterday\tinit\n"), 0o600))

	_, err := NewFileRepository(file).Load(context.Background())
	require.ErrorIs(t, err, errMalformedLine)

	require.NoError(t, os.WriteFile(file, []byte("yesterday\tinit\tok\n"), 0o600))

	_, err = NewFileRepository(file).Load(context.Background())
	require.ErrorIs(t, err, errMalformedLine)
}
