package syncer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	domain "github.com/oshokin/fieldboot/internal/domain/boot"
	"github.com/oshokin/fieldboot/internal/logger"
	"github.com/oshokin/fieldboot/internal/service/common"
)

// DefaultRemote is fetched when Git.Remote is empty.
const DefaultRemote = "origin"

var (
	errNoWorkingCopy = errors.New("no git working copy and no clone url")
	errNotEmpty      = errors.New("directory is not empty and is not a git working copy")
)

// Git synchronises a git working copy.
type Git struct {
	// Remote is the remote name to fetch from.
	Remote string
	// URL is cloned when the local path holds no working copy yet.
	URL string
	// Timeout bounds the whole sync.
	Timeout time.Duration
	// Binary is the git executable, "git" when empty.
	Binary string
}

// Sync fetches, hard-resets and fast-forwards the working copy at localPath
// to remoteRef. A failed fetch leaves the working copy untouched.
func (g *Git) Sync(ctx context.Context, localPath, remoteRef string) *domain.SyncOutcome {
	ctx = logger.WithKV(ctx, "path", localPath, "ref", remoteRef)

	ctx, cancel := withTimeout(ctx, g.Timeout)
	defer cancel()

	outcome := new(domain.SyncOutcome)

	if _, err := os.Stat(filepath.Join(localPath, ".git")); err != nil {
		return g.cloneMissing(ctx, outcome, localPath, remoteRef, err)
	}

	previous, err := g.head(ctx, localPath)
	if err != nil {
		return conflict(outcome, err)
	}

	outcome.PreviousRef = previous
	remote := g.remote()

	logger.InfoKV(ctx, "Fetching remote", "remote", remote)

	if _, err = g.run(ctx, localPath, "fetch", remote); err != nil {
		logger.WarnKV(ctx, "Fetch failed, working copy left as is", "error", err)
		return networkError(outcome, fmt.Errorf("git fetch: %w", err))
	}

	if _, err = g.run(ctx, localPath, "reset", "--hard", "HEAD"); err != nil {
		return conflict(outcome, fmt.Errorf("git reset: %w", err))
	}

	if _, err = g.run(ctx, localPath, "pull", "--ff-only", remote, remoteRef); err != nil {
		logger.WarnKV(ctx, "Pull failed", "error", err)
		outcome.NewRef = previous

		return conflict(outcome, fmt.Errorf("git pull: %w", err))
	}

	current, err := g.head(ctx, localPath)
	if err != nil {
		return conflict(outcome, err)
	}

	finish(outcome, current, false)
	logger.InfoKV(ctx, "Working copy synchronised",
		"status", outcome.Status, "previous", outcome.PreviousRef, "current", outcome.NewRef)

	return outcome
}

// cloneMissing clones URL into localPath when it holds no working copy.
func (g *Git) cloneMissing(
	ctx context.Context,
	outcome *domain.SyncOutcome,
	localPath, remoteRef string,
	headErr error,
) *domain.SyncOutcome {
	if g.URL == "" {
		return conflict(outcome, fmt.Errorf("%w: %w", errNoWorkingCopy, headErr))
	}

	entries, err := os.ReadDir(localPath)
	if err == nil && len(entries) > 0 {
		return conflict(outcome, fmt.Errorf("%s: %w", localPath, errNotEmpty))
	}

	if err = os.MkdirAll(filepath.Dir(filepath.Clean(localPath)), 0o750); err != nil {
		return conflict(outcome, fmt.Errorf("create parent directory: %w", err))
	}

	logger.InfoKV(ctx, "Cloning working copy", "url", g.URL)

	if _, err = g.run(ctx, "", "clone", "--origin", g.remote(), "--branch", remoteRef, g.URL, localPath); err != nil {
		return networkError(outcome, fmt.Errorf("git clone: %w", err))
	}

	current, err := g.head(ctx, localPath)
	if err != nil {
		return conflict(outcome, err)
	}

	return finish(outcome, current, true)
}

// head returns the commit checked out at dir.
func (g *Git) head(ctx context.Context, dir string) (string, error) {
	out, err := g.run(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}

	return strings.TrimSpace(out), nil
}

// run executes git with args, in dir when dir is set, and returns stdout.
// Stderr is included in the error.
func (g *Git) run(ctx context.Context, dir string, args ...string) (string, error) {
	if dir != "" {
		args = append([]string{"-C", dir}, args...)
	}

	binary := g.Binary
	if binary == "" {
		binary = "git"
	}

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Env = common.Environ(map[string]string{"GIT_TERMINAL_PROMPT": "0"})

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return stdout.String(), nil
}

func (g *Git) remote() string {
	if g.Remote == "" {
		return DefaultRemote
	}

	return g.Remote
}
