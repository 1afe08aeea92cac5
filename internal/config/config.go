package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	domain "github.com/oshokin/fieldboot/internal/domain/boot"
	"github.com/oshokin/fieldboot/internal/logger"
)

// Config is the on-disk boot plan.
type Config struct {
	// LogLevel is the minimum level of console logs.
	LogLevel string `yaml:"log_level,omitempty"`
	// Journal is the append-only stage transition file; empty disables it.
	Journal string `yaml:"journal,omitempty"`
	// Policy holds the recovery decisions.
	Policy Policy `yaml:"policy"`
	// Services are the dependencies, started in the listed order.
	Services []Service `yaml:"services,omitempty"`
	// Sync configures the bundle update stage.
	Sync Sync `yaml:"sync"`
	// Primary is the action the boot exists for.
	Primary Service `yaml:"primary"`
	// Fallback runs when the primary fails; a fallback without a command is not configured.
	Fallback Service `yaml:"fallback,omitempty"`
}

// Policy mirrors domain.Policy in YAML.
type Policy struct {
	// Permissive keeps booting when a required service fails to start.
	Permissive bool `yaml:"permissive,omitempty"`
	// AbortOnUnhealthy stops booting when a required service never becomes ready.
	AbortOnUnhealthy bool `yaml:"abort_on_unhealthy,omitempty"`
}

// Service mirrors domain.ServiceSpec in YAML.
type Service struct {
	Name            string            `yaml:"name"`
	Command         string            `yaml:"command"`
	Args            []string          `yaml:"args,omitempty"`
	WorkingDir      string            `yaml:"working_dir,omitempty"`
	Environment     map[string]string `yaml:"environment,omitempty"`
	RequiredForBoot bool              `yaml:"required_for_boot,omitempty"`
	LongRunning     bool              `yaml:"long_running,omitempty"`
	AliveDelay      time.Duration     `yaml:"alive_delay,omitempty"`
	SkipIfRunning   bool              `yaml:"skip_if_running,omitempty"`
	RequireDisplay  bool              `yaml:"require_display,omitempty"`
	Output          string            `yaml:"output,omitempty"`
	Probe           *Probe            `yaml:"probe,omitempty"`
}

// Probe mirrors domain.ProbeSpec in YAML.
type Probe struct {
	Kind        string        `yaml:"kind"`
	Address     string        `yaml:"address,omitempty"`
	URL         string        `yaml:"url,omitempty"`
	Path        string        `yaml:"path,omitempty"`
	Pattern     string        `yaml:"pattern,omitempty"`
	FailPattern string        `yaml:"fail_pattern,omitempty"`
	Process     string        `yaml:"process,omitempty"`
	Interface   string        `yaml:"interface,omitempty"`
	MaxOffset   time.Duration `yaml:"max_offset,omitempty"`
	Interval    time.Duration `yaml:"interval,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
}

// Sync mirrors domain.SyncSpec in YAML.
type Sync struct {
	Enabled     bool          `yaml:"enabled"`
	Method      string        `yaml:"method,omitempty"`
	LocalPath   string        `yaml:"local_path,omitempty"`
	Remote      string        `yaml:"remote,omitempty"`
	Ref         string        `yaml:"ref,omitempty"`
	URL         string        `yaml:"url,omitempty"`
	ManifestURL string        `yaml:"manifest_url,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
}

const (
	// DefaultConfigFilename is the plan file looked up when no path is given.
	DefaultConfigFilename = "fieldboot.yaml"

	// EnvConfigPath overrides the plan file location.
	EnvConfigPath = "FIELDBOOT_CONFIG"

	// DefaultAliveDelay is how long a long-running service must survive its start.
	DefaultAliveDelay = time.Second

	// DefaultProbeInterval is the fixed polling interval of health probes.
	DefaultProbeInterval = 500 * time.Millisecond

	// DefaultProbeTimeout bounds the wait for readiness.
	DefaultProbeTimeout = 10 * time.Second

	// DefaultNTPMaxOffset is the largest clock offset an ntp probe accepts.
	DefaultNTPMaxOffset = 500 * time.Millisecond

	// DefaultSyncTimeout bounds the bundle sync stage.
	DefaultSyncTimeout = 2 * time.Minute

	// DefaultRemote is the git remote fetched from.
	DefaultRemote = "origin"

	// DefaultFilePermissions is used when saving plan files.
	DefaultFilePermissions = 0o600

	defaultPrimaryName  = "primary"
	defaultFallbackName = "fallback"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errCommandRequired is returned when a service has no command.
	errCommandRequired = errors.New("command must be provided")
	// errNameRequired is returned when a dependency service has no name.
	errNameRequired = errors.New("service name must be provided")
	// errDuplicateName is returned when two services share a name.
	errDuplicateName = errors.New("duplicate service name")
	// errNegativeDuration is returned for negative delays and timeouts.
	errNegativeDuration = errors.New("duration must not be negative")
	// errInvalidLogLevel is returned for an unknown log_level.
	errInvalidLogLevel = errors.New("invalid log level")
)

// Load reads configuration from the provided path and validates it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal plan: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write plan: %w", err)
	}

	return nil
}

// Validate checks the plan and fills in defaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if _, ok := logger.ParseLogLevel(cfg.LogLevel); !ok {
		return fmt.Errorf("log_level %q: %w", cfg.LogLevel, errInvalidLogLevel)
	}

	if cfg.Primary.Name == "" {
		cfg.Primary.Name = defaultPrimaryName
	}

	hasFallback := cfg.Fallback.Command != "" || cfg.Fallback.Name != "" ||
		len(cfg.Fallback.Args) > 0 || cfg.Fallback.WorkingDir != ""
	if hasFallback && cfg.Fallback.Name == "" {
		cfg.Fallback.Name = defaultFallbackName
	}

	seen := make(map[string]struct{}, len(cfg.Services)+2)

	for i := range cfg.Services {
		if cfg.Services[i].Name == "" {
			return fmt.Errorf("services[%d]: %w", i, errNameRequired)
		}
	}

	all := make([]*Service, 0, len(cfg.Services)+2)
	for i := range cfg.Services {
		all = append(all, &cfg.Services[i])
	}

	all = append(all, &cfg.Primary)
	if hasFallback {
		all = append(all, &cfg.Fallback)
	}

	for _, svc := range all {
		if _, dup := seen[svc.Name]; dup {
			return fmt.Errorf("%s: %w", svc.Name, errDuplicateName)
		}

		seen[svc.Name] = struct{}{}

		if err := validateService(svc); err != nil {
			return fmt.Errorf("service %s: %w", svc.Name, err)
		}
	}

	if err := validateSync(&cfg.Sync); err != nil {
		return fmt.Errorf("sync: %w", err)
	}

	return nil
}

func validateService(svc *Service) error {
	if svc.Command == "" {
		return errCommandRequired
	}

	if svc.AliveDelay < 0 {
		return fmt.Errorf("alive_delay: %w", errNegativeDuration)
	}

	if svc.LongRunning && svc.AliveDelay == 0 {
		svc.AliveDelay = DefaultAliveDelay
	}

	if svc.Probe == nil {
		return nil
	}

	if err := validateProbe(svc.Probe); err != nil {
		return fmt.Errorf("probe: %w", err)
	}

	return nil
}

// Plan converts the validated configuration into an immutable boot plan.
func (c *Config) Plan() *domain.BootPlan {
	services := make([]domain.ServiceSpec, 0, len(c.Services))
	for _, svc := range c.Services {
		services = append(services, svc.spec())
	}

	policy := domain.Policy{
		Permissive:       c.Policy.Permissive,
		AbortOnUnhealthy: c.Policy.AbortOnUnhealthy,
	}

	return domain.NewBootPlan(services, c.Primary.spec(), c.Fallback.spec(), c.Sync.spec(), policy)
}

func (s *Service) spec() domain.ServiceSpec {
	spec := domain.ServiceSpec{
		Name:            s.Name,
		Command:         s.Command,
		Args:            s.Args,
		WorkingDir:      s.WorkingDir,
		Env:             s.Environment,
		RequiredForBoot: s.RequiredForBoot,
		LongRunning:     s.LongRunning,
		AliveDelay:      s.AliveDelay,
		SkipIfRunning:   s.SkipIfRunning,
		RequireDisplay:  s.RequireDisplay,
		Output:          s.Output,
	}

	if p := s.Probe; p != nil {
		spec.Probe = &domain.ProbeSpec{
			Kind:        domain.ProbeKind(p.Kind),
			Address:     p.Address,
			URL:         p.URL,
			Path:        p.Path,
			Pattern:     p.Pattern,
			FailPattern: p.FailPattern,
			Process:     p.Process,
			Interface:   p.Interface,
			MaxOffset:   p.MaxOffset,
			Interval:    p.Interval,
			Timeout:     p.Timeout,
		}
	}

	return spec
}

func (s *Sync) spec() domain.SyncSpec {
	return domain.SyncSpec{
		Enabled:     s.Enabled,
		Method:      domain.SyncMethod(s.Method),
		LocalPath:   s.LocalPath,
		Remote:      s.Remote,
		RemoteRef:   s.Ref,
		URL:         s.URL,
		ManifestURL: s.ManifestURL,
		Timeout:     s.Timeout,
	}
}
