package probe

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domain "github.com/oshokin/fieldboot/internal/domain/boot"
	"github.com/oshokin/fieldboot/internal/logger"
)

const (
	// DefaultInterval is the fixed polling interval.
	DefaultInterval = 500 * time.Millisecond

	// DefaultTimeout is used when Await is called without a timeout.
	DefaultTimeout = 10 * time.Second
)

var (
	errUnknownService = errors.New("no probe registered for service")
	errUnknownKind    = errors.New("unknown probe kind")
)

// Checker performs a single readiness check. A nil error means ready;
// an error wrapped with Fatal means the service will never become ready.
type Checker interface {
	Check(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) error

// Check calls f.
func (f CheckerFunc) Check(ctx context.Context) error {
	return f(ctx)
}

// fatalError marks a check error as permanent.
type fatalError struct {
	err error
}

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

// Fatal wraps err so Await stops polling and reports a failure.
func Fatal(err error) error {
	if err == nil {
		return nil
	}

	return &fatalError{err: err}
}

// IsFatal reports whether err was wrapped with Fatal.
func IsFatal(err error) bool {
	var fe *fatalError

	return errors.As(err, &fe)
}

// registration is a checker bound to a service name.
type registration struct {
	checker  Checker
	interval time.Duration
	timeout  time.Duration
}

// Probe polls registered readiness checks.
type Probe struct {
	mu     sync.RWMutex
	checks map[string]registration

	// factory builds checkers from specs; replaced in tests.
	factory func(spec domain.ProbeSpec) (Checker, error)
}

// New creates an empty Probe.
func New() *Probe {
	return &Probe{
		checks:  make(map[string]registration),
		factory: ForSpec,
	}
}

// Register builds the checker described by spec for the service.
func (p *Probe) Register(name string, spec domain.ProbeSpec) error {
	checker, err := p.factory(spec)
	if err != nil {
		return fmt.Errorf("probe %s: %w", name, err)
	}

	p.RegisterChecker(name, checker, spec.Interval, spec.Timeout)

	return nil
}

// RegisterChecker binds checker to the service. Zero durations use defaults.
func (p *Probe) RegisterChecker(name string, checker Checker, interval, timeout time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.checks[name] = registration{
		checker:  checker,
		interval: interval,
		timeout:  timeout,
	}
}

// Has reports whether a checker is registered for the service.
func (p *Probe) Has(name string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	_, ok := p.checks[name]

	return ok
}

// Timeout returns the registered timeout for the service, zero if unset.
func (p *Probe) Timeout(name string) time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.checks[name].timeout
}

// Await polls the service's checker until it is ready, fails permanently or
// timeout elapses. Checks run immediately and then at the fixed interval;
// every check shares the timeout's deadline, so Await returns no later than
// timeout plus one interval. A cancelled ctx also yields OutcomeTimedOut.
func (p *Probe) Await(ctx context.Context, name string, timeout time.Duration) domain.Outcome {
	ctx = logger.WithKV(ctx, "service", name)

	p.mu.RLock()
	reg, ok := p.checks[name]
	p.mu.RUnlock()

	if !ok {
		logger.ErrorKV(ctx, "Health probe failed", "error", errUnknownService)
		return domain.OutcomeFailure
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(reg.interval)
	defer ticker.Stop()

	var (
		attempts int
		lastErr  error
	)

	for {
		attempts++

		err := reg.checker.Check(ctx)
		if err == nil {
			logger.InfoKV(ctx, "Service is ready", "attempts", attempts)
			return domain.OutcomeSuccess
		}

		if IsFatal(err) {
			logger.ErrorKV(ctx, "Health probe failed", "attempts", attempts, "error", err)
			return domain.OutcomeFailure
		}

		lastErr = err
		logger.DebugKV(ctx, "Service not ready yet", "attempt", attempts, "error", err)

		select {
		case <-ctx.Done():
			logger.WarnKV(ctx, "Health probe timed out",
				"timeout", timeout.String(), "attempts", attempts, "last_error", lastErr)

			return domain.OutcomeTimedOut
		case <-ticker.C:
		}
	}
}

// ForSpec builds the checker for a probe spec.
func ForSpec(spec domain.ProbeSpec) (Checker, error) {
	switch spec.Kind {
	case domain.ProbeTCP:
		return &TCP{Address: spec.Address}, nil
	case domain.ProbeHTTP:
		return &HTTP{URL: spec.URL}, nil
	case domain.ProbeGRPC:
		return &GRPC{Address: spec.Address}, nil
	case domain.ProbeFile:
		return &File{Path: spec.Path}, nil
	case domain.ProbeLog:
		return NewLog(spec.Path, spec.Pattern, spec.FailPattern)
	case domain.ProbeProcess:
		return &Process{Name: spec.Process}, nil
	case domain.ProbeNTP:
		return &NTP{Address: spec.Address, MaxOffset: spec.MaxOffset}, nil
	case domain.ProbeLink:
		return &Link{Interface: spec.Interface}, nil
	default:
		return nil, fmt.Errorf("%q: %w", spec.Kind, errUnknownKind)
	}
}
