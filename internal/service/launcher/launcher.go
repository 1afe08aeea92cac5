package launcher

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	domain "github.com/oshokin/fieldboot/internal/domain/boot"
	"github.com/oshokin/fieldboot/internal/logger"
	"github.com/oshokin/fieldboot/internal/service/common"
)

const (
	// DefaultAliveDelay is used for long-running specs without a delay.
	DefaultAliveDelay = time.Second

	// outputWaitDelay bounds how long Wait keeps draining output pipes
	// held open by grandchildren after the child itself exited.
	outputWaitDelay = 2 * time.Second
)

var (
	errNoDisplay     = errors.New("no display server in environment")
	errExitedEarly   = errors.New("exited before the alive delay elapsed")
	errNonZeroExit   = errors.New("exited with non-zero code")
	errCommandNotSet = errors.New("command is not set")
)

// Launcher starts processes described by boot.ServiceSpec.
type Launcher struct {
	// processes lists the process table for SkipIfRunning specs.
	processes common.ProcessLister
	// now is the clock used for result timestamps.
	now func() time.Time
}

// Option configures a Launcher.
type Option func(*Launcher)

// WithProcessLister replaces the process table source.
func WithProcessLister(list common.ProcessLister) Option {
	return func(l *Launcher) {
		l.processes = list
	}
}

// New creates a Launcher.
func New(opts ...Option) *Launcher {
	l := &Launcher{
		now: time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Launch starts the service and returns the result of the attempt.
// It never returns nil and never panics on a bad spec: inability to start is
// reported as boot.OutcomeFailure wrapping boot.ErrStartFailure.
func (l *Launcher) Launch(ctx context.Context, spec domain.ServiceSpec) *domain.ServiceResult {
	ctx = logger.WithKV(ctx, "service", spec.Name)
	result := domain.NewServiceResult(spec, l.now())

	if spec.SkipIfRunning && l.reuseRunning(ctx, spec, result) {
		return result
	}

	path, env, err := l.prepare(spec)
	if err != nil {
		l.fail(ctx, result, domain.NoExitCode, fmt.Errorf("%w: %w", domain.ErrStartFailure, err))
		return result
	}

	logger.InfoKV(ctx, "Starting service", "command", path, "args", spec.Args, "long_running", spec.LongRunning)

	if spec.LongRunning {
		l.startDetached(ctx, spec, path, env, result)
	} else {
		l.run(ctx, spec, path, env, result)
	}

	return result
}

// reuseRunning finishes result when the service executable is already running.
func (l *Launcher) reuseRunning(ctx context.Context, spec domain.ServiceSpec, result *domain.ServiceResult) bool {
	pid, found, err := common.FindProcess(l.processes, spec.Command)
	if err != nil {
		logger.WarnKV(ctx, "Could not inspect process table, starting anyway", "error", err)
		return false
	}

	if !found {
		return false
	}

	result.SetPID(pid)
	result.Finish(domain.OutcomeSuccess, domain.NoExitCode, time.Time{}, nil)
	logger.InfoKV(ctx, "Service already running, reusing it", "pid", pid)

	return true
}

// prepare resolves the executable and builds the child environment.
func (l *Launcher) prepare(spec domain.ServiceSpec) (string, []string, error) {
	if spec.Command == "" {
		return "", nil, errCommandNotSet
	}

	command := spec.Command
	if spec.WorkingDir != "" && !filepath.IsAbs(command) && strings.ContainsRune(command, filepath.Separator) {
		command = filepath.Join(spec.WorkingDir, command)
	}

	path, err := exec.LookPath(command)
	if err != nil {
		return "", nil, fmt.Errorf("resolve %s: %w", spec.Command, err)
	}

	env := common.Environ(spec.Env)
	if spec.RequireDisplay && !common.HasDisplay(env) {
		return "", nil, errNoDisplay
	}

	return path, env, nil
}

// run starts the command and blocks until it exits or ctx is cancelled.
func (l *Launcher) run(ctx context.Context, spec domain.ServiceSpec, path string, env []string, result *domain.ServiceResult) {
	cmd := exec.CommandContext(ctx, path, spec.Args...)
	cmd.Dir = spec.WorkingDir
	cmd.Env = env
	cmd.WaitDelay = outputWaitDelay

	var err error

	if spec.Output == "" {
		stdout, stderr := newLineLogger(ctx, "stdout"), newLineLogger(ctx, "stderr")
		defer stdout.Flush()
		defer stderr.Flush()

		cmd.Stdout = stdout
		cmd.Stderr = stderr

		err = cmd.Start()
	} else {
		err = l.startWithOutput(ctx, cmd, spec.Output)
	}

	if err != nil {
		l.fail(ctx, result, domain.NoExitCode, fmt.Errorf("%w: %w", domain.ErrStartFailure, err))
		return
	}

	result.SetPID(cmd.Process.Pid)

	err = cmd.Wait()
	code := exitCode(cmd)

	switch {
	case err == nil, errors.Is(err, exec.ErrWaitDelay) && code == 0:
		result.Finish(domain.OutcomeSuccess, code, l.now(), nil)
		logger.InfoKV(ctx, "Service finished", "exit_code", code)
	case ctx.Err() != nil:
		l.fail(ctx, result, code, fmt.Errorf("interrupted: %w", ctx.Err()))
	case code > 0:
		l.fail(ctx, result, code, fmt.Errorf("%w: %d", errNonZeroExit, code))
	default:
		l.fail(ctx, result, code, fmt.Errorf("wait: %w", err))
	}
}

// startDetached starts a long-running service outside ctx's control and
// confirms it survives the alive delay.
func (l *Launcher) startDetached(
	ctx context.Context,
	spec domain.ServiceSpec,
	path string,
	env []string,
	result *domain.ServiceResult,
) {
	// The service must outlive the boot run, so it is not bound to ctx.
	//nolint:noctx // Intentional, see above.
	cmd := exec.Command(path, spec.Args...)
	cmd.Dir = spec.WorkingDir
	cmd.Env = env
	cmd.SysProcAttr = detachedAttr()

	// The service keeps writing after the orchestrator exits, so it gets a
	// file of its own rather than a pipe read by this process.
	if err := l.startWithOutput(ctx, cmd, spec.Output); err != nil {
		l.fail(ctx, result, domain.NoExitCode, fmt.Errorf("%w: %w", domain.ErrStartFailure, err))
		return
	}

	result.SetPID(cmd.Process.Pid)

	serviceCtx := context.WithoutCancel(ctx)
	exited := make(chan struct{})

	go func() {
		defer close(exited)

		err := cmd.Wait()
		code := exitCode(cmd)
		result.RecordExit(code, l.now())
		logger.WarnKV(serviceCtx, "Service exited", "exit_code", code, "error", err)
	}()

	delay := spec.AliveDelay
	if delay <= 0 {
		delay = DefaultAliveDelay
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-exited:
		code := result.ExitCode()
		l.fail(ctx, result, code, fmt.Errorf("%w: %w (code %d)", domain.ErrStartFailure, errExitedEarly, code))
	case <-timer.C:
		result.Finish(domain.OutcomeSuccess, domain.NoExitCode, time.Time{}, nil)
		logger.InfoKV(ctx, "Service is alive", "pid", cmd.Process.Pid, "alive_delay", delay.String())
	case <-ctx.Done():
		l.fail(ctx, result, domain.NoExitCode, fmt.Errorf("interrupted: %w", ctx.Err()))
	}
}

// startWithOutput starts cmd with stdout and stderr attached to the file at
// path, or to the orchestrator's own streams when path is empty.
func (l *Launcher) startWithOutput(ctx context.Context, cmd *exec.Cmd, path string) error {
	output, err := openOutput(path)
	if err != nil {
		return err
	}

	cmd.Stdout = output.stdout
	cmd.Stderr = output.stderr

	err = cmd.Start()

	// The child holds its own descriptor once started.
	if closeErr := output.Close(); closeErr != nil {
		logger.WarnKV(ctx, "Could not close service output file", "error", closeErr)
	}

	return err
}

// fail finishes result as a failure and logs the diagnostic.
func (l *Launcher) fail(ctx context.Context, result *domain.ServiceResult, code int, err error) {
	result.Finish(domain.OutcomeFailure, code, l.now(), err)
	logger.ErrorKV(ctx, "Service failed", "exit_code", code, "error", err)
}

// exitCode returns the exit code of a waited command, NoExitCode if unknown.
func exitCode(cmd *exec.Cmd) int {
	if cmd.ProcessState == nil {
		return domain.NoExitCode
	}

	return cmd.ProcessState.ExitCode()
}
