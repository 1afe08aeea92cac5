package boot

import (
	"maps"
	"slices"
	"time"
)

// ProbeKind names a readiness signal a health probe can wait for.
type ProbeKind string

const (
	// ProbeTCP waits for a listening TCP port.
	ProbeTCP ProbeKind = "tcp"
	// ProbeHTTP waits for an HTTP endpoint answering below 500.
	ProbeHTTP ProbeKind = "http"
	// ProbeGRPC waits for a gRPC server reporting SERVING.
	ProbeGRPC ProbeKind = "grpc"
	// ProbeFile waits for a path (device node, socket, pid file) to appear.
	ProbeFile ProbeKind = "file"
	// ProbeLog waits for a sentinel line in a log file.
	ProbeLog ProbeKind = "log"
	// ProbeProcess waits for a process with a given executable name.
	ProbeProcess ProbeKind = "process"
	// ProbeNTP waits for an NTP server with an acceptable clock offset.
	ProbeNTP ProbeKind = "ntp"
	// ProbeLink waits for a network interface to come up.
	ProbeLink ProbeKind = "link"
)

// ProbeSpec describes how readiness of a service is detected.
type ProbeSpec struct {
	// Kind selects the readiness signal.
	Kind ProbeKind
	// Address is a host:port for tcp, grpc and ntp probes.
	Address string
	// URL is the endpoint for http probes.
	URL string
	// Path is the file for file and log probes.
	Path string
	// Pattern is the regular expression a log line must match.
	Pattern string
	// FailPattern is a regular expression that marks the service as failed.
	FailPattern string
	// Process is the executable name for process probes.
	Process string
	// Interface is the network interface name for link probes.
	Interface string
	// MaxOffset is the largest acceptable clock offset for ntp probes.
	MaxOffset time.Duration
	// Interval is the fixed polling interval.
	Interval time.Duration
	// Timeout bounds the wait for readiness.
	Timeout time.Duration
}

// ServiceSpec describes one external command started by the sequencer.
type ServiceSpec struct {
	// Name identifies the service in logs, probes and the journal.
	Name string
	// Command is the executable name or path.
	Command string
	// Args are passed to the command verbatim.
	Args []string
	// WorkingDir is the directory the command runs in.
	WorkingDir string
	// Env overlays the inherited environment.
	Env map[string]string
	// RequiredForBoot makes a start failure fatal unless the policy is permissive.
	RequiredForBoot bool
	// LongRunning services are confirmed alive instead of awaited.
	LongRunning bool
	// AliveDelay is how long a long-running service must survive after start.
	AliveDelay time.Duration
	// SkipIfRunning reuses an already running process with the same executable name.
	SkipIfRunning bool
	// RequireDisplay skips the launch when no display server is reachable.
	RequireDisplay bool
	// Output is the file the service appends stdout and stderr to. When empty,
	// long-running services share the orchestrator's stdout and stderr and
	// run-to-completion commands are forwarded to the log line by line.
	Output string
	// Probe is the readiness check, nil when start success is enough.
	Probe *ProbeSpec
}

// Clone returns a deep copy of the spec.
func (s ServiceSpec) Clone() ServiceSpec {
	cloned := s
	cloned.Args = slices.Clone(s.Args)
	cloned.Env = maps.Clone(s.Env)

	if s.Probe != nil {
		probe := *s.Probe
		cloned.Probe = &probe
	}

	return cloned
}

// Defined reports whether the spec names a command.
func (s ServiceSpec) Defined() bool {
	return s.Command != ""
}
