package boot

import (
	"context"
	"fmt"

	"github.com/oshokin/fieldboot/internal/config"
	domain "github.com/oshokin/fieldboot/internal/domain/boot"
	"github.com/oshokin/fieldboot/internal/logger"
	"github.com/oshokin/fieldboot/internal/repository/journal"
	"github.com/oshokin/fieldboot/internal/service/launcher"
	"github.com/oshokin/fieldboot/internal/service/probe"
	"github.com/oshokin/fieldboot/internal/service/sequencer"
	"github.com/oshokin/fieldboot/internal/service/syncer"
	"github.com/oshokin/fieldboot/internal/version"
)

// Options are inputs accepted by the boot entry point.
type Options struct {
	// ConfigPath is the optional path to the plan YAML file.
	ConfigPath string
}

// Run boots the machine according to the plan and returns the exit code.
// The error is set only when the plan could not be loaded or wired, in which
// case the code is domain.ExitInvalidPlan.
func Run(ctx context.Context, opts *Options) (domain.ExitCode, error) {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "fieldboot")

	logger.InfoKV(ctx, "Starting boot", "version", version.Short(), "plan", opts.ConfigPath)

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return domain.ExitInvalidPlan, fmt.Errorf("load plan: %w", err)
	}

	if level, ok := logger.ParseLogLevel(cfg.LogLevel); ok {
		logger.SetLevel(level)
	}

	seq, err := newSequencer(cfg)
	if err != nil {
		return domain.ExitInvalidPlan, err
	}

	return seq.Run(ctx), nil
}

// newSequencer wires the components described by cfg.
func newSequencer(cfg *config.Config) (*sequencer.Sequencer, error) {
	plan := cfg.Plan()

	prober := probe.New()

	for _, svc := range plan.Services() {
		if svc.Probe == nil {
			continue
		}

		if err := prober.Register(svc.Name, *svc.Probe); err != nil {
			return nil, fmt.Errorf("register probe: %w", err)
		}
	}

	var sync sequencer.Syncer

	if spec := plan.Sync(); spec.Enabled {
		s, err := syncer.New(spec)
		if err != nil {
			return nil, fmt.Errorf("create syncer: %w", err)
		}

		sync = s
	}

	var options []sequencer.Option
	if cfg.Journal != "" {
		options = append(options, sequencer.WithObserver(journal.NewFileRepository(cfg.Journal)))
	}

	return sequencer.New(plan, launcher.New(), prober, sync, options...), nil
}
