package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"regexp"

	domain "github.com/oshokin/fieldboot/internal/domain/boot"
)

var (
	errUnknownProbeKind  = errors.New("unknown probe kind")
	errProbeField        = errors.New("required probe field is missing")
	errUnknownSyncMethod = errors.New("unknown sync method")
	errSyncField         = errors.New("required sync field is missing")
)

// validateProbe checks kind-specific fields and applies probe defaults.
//
//nolint:cyclop // One case per probe kind reads better than a lookup table.
func validateProbe(p *Probe) error {
	if p.Interval < 0 || p.Timeout < 0 || p.MaxOffset < 0 {
		return errNegativeDuration
	}

	if p.Interval == 0 {
		p.Interval = DefaultProbeInterval
	}

	if p.Timeout == 0 {
		p.Timeout = DefaultProbeTimeout
	}

	switch domain.ProbeKind(p.Kind) {
	case domain.ProbeTCP, domain.ProbeGRPC:
		if _, _, err := net.SplitHostPort(p.Address); err != nil {
			return fmt.Errorf("invalid address %q: %w", p.Address, err)
		}
	case domain.ProbeNTP:
		if p.Address == "" {
			return fmt.Errorf("address: %w", errProbeField)
		}

		if p.MaxOffset == 0 {
			p.MaxOffset = DefaultNTPMaxOffset
		}
	case domain.ProbeHTTP:
		if _, err := url.ParseRequestURI(p.URL); err != nil {
			return fmt.Errorf("invalid url: %w", err)
		}
	case domain.ProbeFile:
		if p.Path == "" {
			return fmt.Errorf("path: %w", errProbeField)
		}
	case domain.ProbeLog:
		if p.Path == "" || p.Pattern == "" {
			return fmt.Errorf("path and pattern: %w", errProbeField)
		}

		if err := compiles(p.Pattern, p.FailPattern); err != nil {
			return err
		}
	case domain.ProbeProcess:
		if p.Process == "" {
			return fmt.Errorf("process: %w", errProbeField)
		}
	case domain.ProbeLink:
		if p.Interface == "" {
			return fmt.Errorf("interface: %w", errProbeField)
		}
	default:
		return fmt.Errorf("%q: %w", p.Kind, errUnknownProbeKind)
	}

	return nil
}

func compiles(patterns ...string) error {
	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}

		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
	}

	return nil
}

// validateSync checks the sync section and applies defaults.
func validateSync(s *Sync) error {
	if !s.Enabled {
		return nil
	}

	if s.Method == "" {
		s.Method = string(domain.SyncMethodGit)
	}

	if s.Timeout < 0 {
		return fmt.Errorf("timeout: %w", errNegativeDuration)
	}

	if s.Timeout == 0 {
		s.Timeout = DefaultSyncTimeout
	}

	if s.LocalPath == "" {
		return fmt.Errorf("local_path: %w", errSyncField)
	}

	switch domain.SyncMethod(s.Method) {
	case domain.SyncMethodGit:
		if s.Ref == "" {
			return fmt.Errorf("ref: %w", errSyncField)
		}

		if s.Remote == "" {
			s.Remote = DefaultRemote
		}
	case domain.SyncMethodManifest:
		if _, err := url.ParseRequestURI(s.ManifestURL); err != nil {
			return fmt.Errorf("invalid manifest_url: %w", err)
		}
	default:
		return fmt.Errorf("%q: %w", s.Method, errUnknownSyncMethod)
	}

	return nil
}
