package sequencer

import (
	"context"
	"fmt"
	"slices"
	"time"

	domain "github.com/oshokin/fieldboot/internal/domain/boot"
	"github.com/oshokin/fieldboot/internal/logger"
)

// Outcomes reported on transitions besides service and sync statuses.
const (
	outcomeOK          = "ok"
	outcomeDegraded    = "degraded"
	outcomeDisabled    = "disabled"
	outcomeInterrupted = "interrupted"
	outcomeNoFallback  = "no_fallback"
)

// transitions lists the stages reachable from each stage. Every stage may
// also end the run when the boot is interrupted.
//
//nolint:gochecknoglobals // Read-only transition table.
var transitions = map[domain.Stage][]domain.Stage{
	domain.StageInit:               {domain.StageStartingDependency, domain.StageDone},
	domain.StageStartingDependency: {domain.StageSyncingRepo, domain.StageDone},
	domain.StageSyncingRepo:        {domain.StageLaunchingPrimary, domain.StageDone},
	domain.StageLaunchingPrimary:   {domain.StageSuccess, domain.StageLaunchingFallback, domain.StageDone},
	domain.StageSuccess:            {domain.StageDone},
	domain.StageLaunchingFallback:  {domain.StageDone},
}

// Launcher starts services.
type Launcher interface {
	Launch(ctx context.Context, spec domain.ServiceSpec) *domain.ServiceResult
}

// Prober waits for services to become ready.
type Prober interface {
	Has(name string) bool
	Timeout(name string) time.Duration
	Await(ctx context.Context, name string, timeout time.Duration) domain.Outcome
}

// Syncer updates the working copy.
type Syncer interface {
	Sync(ctx context.Context, localPath, remoteRef string) *domain.SyncOutcome
}

// Observer is notified of every transition.
type Observer interface {
	Observe(ctx context.Context, transition domain.Transition)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, transition domain.Transition)

// Observe calls f.
func (f ObserverFunc) Observe(ctx context.Context, transition domain.Transition) {
	f(ctx, transition)
}

// Option customises a Sequencer.
type Option func(*Sequencer)

// WithObserver adds an observer.
func WithObserver(o Observer) Option {
	return func(s *Sequencer) {
		s.observers = append(s.observers, o)
	}
}

// WithClock overrides the transition timestamps source.
func WithClock(now func() time.Time) Option {
	return func(s *Sequencer) {
		s.now = now
	}
}

// stageFunc runs one stage and picks the next one.
type stageFunc func(ctx context.Context) (domain.Stage, string)

// Sequencer runs one boot. It is not reusable.
type Sequencer struct {
	plan     *domain.BootPlan
	launcher Launcher
	prober   Prober
	syncer   Syncer

	observers []Observer
	now       func() time.Time

	stage    domain.Stage
	visited  []domain.Stage
	exitCode domain.ExitCode
	results  []*domain.ServiceResult
	sync     *domain.SyncOutcome
}

// New creates a sequencer for plan. prober and syncer may be nil: services
// are then considered ready once launched and the sync stage is a no-op.
func New(plan *domain.BootPlan, launcher Launcher, prober Prober, syncer Syncer, opts ...Option) *Sequencer {
	s := &Sequencer{
		plan:     plan,
		launcher: launcher,
		prober:   prober,
		syncer:   syncer,
		now:      time.Now,
		stage:    domain.StageInit,
		visited:  []domain.Stage{domain.StageInit},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Run walks the plan to StageDone and returns the exit code. A cancelled
// ctx ends the stage in progress and yields domain.ExitInterrupted; services
// already started keep running.
func (s *Sequencer) Run(ctx context.Context) domain.ExitCode {
	ctx = logger.WithName(ctx, "sequencer")

	handlers := map[domain.Stage]stageFunc{
		domain.StageInit:               s.initialize,
		domain.StageStartingDependency: s.startDependencies,
		domain.StageSyncingRepo:        s.syncRepository,
		domain.StageLaunchingPrimary:   s.launchPrimary,
		domain.StageSuccess:            s.succeed,
		domain.StageLaunchingFallback:  s.launchFallback,
	}

	for s.stage != domain.StageDone {
		next, outcome := handlers[s.stage](ctx)

		if ctx.Err() != nil && s.stage != domain.StageSuccess {
			next, outcome = domain.StageDone, outcomeInterrupted
			s.exitCode = domain.ExitInterrupted
		}

		s.advance(ctx, next, outcome)
	}

	logger.InfoKV(ctx, "Boot finished", "exit_code", s.exitCode.Int(), "stages", s.visited)

	return s.exitCode
}

// Stages returns the stages visited so far, in order.
func (s *Sequencer) Stages() []domain.Stage {
	return slices.Clone(s.visited)
}

// Results returns the results of every launch, in order.
func (s *Sequencer) Results() []*domain.ServiceResult {
	return slices.Clone(s.results)
}

// SyncOutcome returns the sync result, nil when the sync did not run.
func (s *Sequencer) SyncOutcome() *domain.SyncOutcome {
	return s.sync
}

// advance moves to the next stage and notifies the observers.
func (s *Sequencer) advance(ctx context.Context, to domain.Stage, outcome string) {
	if !slices.Contains(transitions[s.stage], to) || slices.Contains(s.visited, to) {
		panic(fmt.Sprintf("illegal boot transition %s -> %s", s.stage, to))
	}

	transition := domain.Transition{
		From:     s.stage,
		To:       to,
		At:       s.now(),
		Outcome:  outcome,
		ExitCode: s.exitCode,
	}

	logger.InfoKV(ctx, "Stage transition", "from", transition.From, "to", transition.To, "outcome", outcome)

	s.stage = to
	s.visited = append(s.visited, to)

	for _, o := range s.observers {
		o.Observe(ctx, transition)
	}
}

func (s *Sequencer) initialize(ctx context.Context) (domain.Stage, string) {
	logger.InfoKV(ctx, "Boot started",
		"services", len(s.plan.Services()),
		"primary", s.plan.Primary().Name,
		"sync", s.plan.Sync().Enabled)

	return domain.StageStartingDependency, outcomeOK
}

// startDependencies launches every service in order and waits for it to
// become ready. Failures of required services end the boot according to
// the policy; every other failure is logged and skipped.
func (s *Sequencer) startDependencies(ctx context.Context) (domain.Stage, string) {
	policy := s.plan.Policy()
	outcome := outcomeOK

	for _, svc := range s.plan.Services() {
		if ctx.Err() != nil {
			return domain.StageDone, outcomeInterrupted
		}

		svcCtx := logger.WithKV(ctx, "service", svc.Name, "required", svc.RequiredForBoot)

		result := s.launcher.Launch(ctx, svc)
		s.results = append(s.results, result)

		if !result.Succeeded() {
			if ctx.Err() != nil {
				return domain.StageDone, outcomeInterrupted
			}

			if svc.RequiredForBoot && !policy.Permissive {
				logger.ErrorKV(svcCtx, "Required service failed to start, aborting boot", "error", result.Err())
				s.exitCode = domain.ExitDependencyStart

				return domain.StageDone, fmt.Sprintf("start_failure: %s", svc.Name)
			}

			logger.WarnKV(svcCtx, "Service failed to start, continuing", "error", result.Err())
			outcome = outcomeDegraded

			continue
		}

		if s.prober == nil || !s.prober.Has(svc.Name) {
			continue
		}

		health := s.prober.Await(ctx, svc.Name, s.prober.Timeout(svc.Name))
		if health == domain.OutcomeSuccess {
			continue
		}

		if ctx.Err() != nil {
			return domain.StageDone, outcomeInterrupted
		}

		if svc.RequiredForBoot && policy.AbortOnUnhealthy {
			logger.ErrorKV(svcCtx, "Required service is not ready, aborting boot",
				"error", fmt.Errorf("%w: %s", domain.ErrHealthTimeout, health))
			s.exitCode = domain.ExitDependencyHealth

			return domain.StageDone, fmt.Sprintf("health_timeout: %s", svc.Name)
		}

		logger.WarnKV(svcCtx, "Service is not ready, continuing",
			"error", fmt.Errorf("%w: %s", domain.ErrHealthTimeout, health))

		outcome = outcomeDegraded
	}

	return domain.StageSyncingRepo, outcome
}

// syncRepository updates the working copy. Its result never stops the boot.
func (s *Sequencer) syncRepository(ctx context.Context) (domain.Stage, string) {
	spec := s.plan.Sync()
	if !spec.Enabled || s.syncer == nil {
		logger.Info(ctx, "Repository sync disabled")
		return domain.StageLaunchingPrimary, outcomeDisabled
	}

	s.sync = s.syncer.Sync(ctx, spec.LocalPath, spec.RemoteRef)

	switch s.sync.Status {
	case domain.SyncConflict, domain.SyncNetworkError:
		logger.WarnKV(ctx, "Repository sync failed, continuing with the local copy",
			"status", s.sync.Status, "error", s.sync.Err)
	default:
		logger.InfoKV(ctx, "Repository synchronised",
			"status", s.sync.Status, "ref", s.sync.NewRef)
	}

	return domain.StageLaunchingPrimary, string(s.sync.Status)
}

func (s *Sequencer) launchPrimary(ctx context.Context) (domain.Stage, string) {
	primary := s.plan.Primary()

	result := s.launcher.Launch(ctx, primary)
	s.results = append(s.results, result)

	if result.Succeeded() {
		return domain.StageSuccess, string(result.Outcome())
	}

	logger.WarnKV(logger.WithKV(ctx, "service", primary.Name), "Primary action failed, switching to fallback",
		"error", fmt.Errorf("%w: %w", domain.ErrPrimaryLaunchFailure, result.Err()),
		"exit_code", result.ExitCode())

	return domain.StageLaunchingFallback, string(result.Outcome())
}

func (s *Sequencer) succeed(context.Context) (domain.Stage, string) {
	s.exitCode = domain.ExitOK

	return domain.StageDone, outcomeOK
}

func (s *Sequencer) launchFallback(ctx context.Context) (domain.Stage, string) {
	fallback := s.plan.Fallback()
	if !fallback.Defined() {
		logger.Error(ctx, "Primary action failed and no fallback is configured")
		s.exitCode = domain.ExitActionsFailed

		return domain.StageDone, outcomeNoFallback
	}

	result := s.launcher.Launch(ctx, fallback)
	s.results = append(s.results, result)

	if result.Succeeded() {
		s.exitCode = domain.ExitOK
	} else {
		logger.ErrorKV(logger.WithKV(ctx, "service", fallback.Name), "Fallback action failed",
			"error", result.Err(), "exit_code", result.ExitCode())
		s.exitCode = domain.ExitActionsFailed
	}

	return domain.StageDone, string(result.Outcome())
}
