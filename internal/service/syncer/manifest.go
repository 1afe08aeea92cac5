package syncer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	goupdate "github.com/doitdistributed/go-update"

	domain "github.com/oshokin/fieldboot/internal/domain/boot"
	"github.com/oshokin/fieldboot/internal/logger"
)

var errBadHTTPStatus = errors.New("unexpected http status")

// Manifest synchronises a working copy from a bundle published over HTTP.
type Manifest struct {
	// BaseURL is the folder holding BundleFilename and the bundle files.
	BaseURL string
	// Timeout bounds the whole sync.
	Timeout time.Duration
	// Client defaults to http.DefaultClient.
	Client *http.Client
}

// Sync downloads the bundle description from BaseURL, or from its remoteRef
// sub-folder when remoteRef is set, and replaces every local file whose
// checksum differs. Nothing is written before all changed files are
// downloaded.
func (m *Manifest) Sync(ctx context.Context, localPath, remoteRef string) *domain.SyncOutcome {
	ctx = logger.WithKV(ctx, "path", localPath, "ref", remoteRef)

	ctx, cancel := withTimeout(ctx, m.Timeout)
	defer cancel()

	outcome := &domain.SyncOutcome{PreviousRef: readVersionMarker(localPath)}

	base, err := m.base(remoteRef)
	if err != nil {
		return networkError(outcome, err)
	}

	logger.InfoKV(ctx, "Downloading bundle description", "url", base.String())

	data, err := m.get(ctx, base, BundleFilename)
	if err != nil {
		logger.WarnKV(ctx, "Bundle description unavailable, working copy left as is", "error", err)
		return networkError(outcome, err)
	}

	desc, err := ParseDescription(data)
	if err != nil {
		return networkError(outcome, err)
	}

	stale, err := staleFiles(localPath, desc)
	if err != nil {
		return conflict(outcome, err)
	}

	if len(stale) == 0 && outcome.PreviousRef == desc.Version {
		logger.InfoKV(ctx, "Bundle is up to date", "version", desc.Version)
		return finish(outcome, desc.Version, false)
	}

	downloaded := make(map[string][]byte, len(stale))

	for _, name := range stale {
		if downloaded[name], err = m.get(ctx, base, name); err != nil {
			return networkError(outcome, err)
		}
	}

	for applied, name := range stale {
		logger.InfoKV(ctx, "Updating file", "file", name)

		if err = apply(localPath, name, downloaded[name], desc); err != nil {
			// Files applied so far stay replaced; the marker keeps the old version.
			outcome.NewRef = outcome.PreviousRef
			outcome.Changed = applied > 0

			return conflict(outcome, fmt.Errorf("apply %s (%d of %d files applied): %w", name, applied, len(stale), err))
		}
	}

	if err = writeVersionMarker(localPath, desc.Version); err != nil {
		outcome.NewRef = outcome.PreviousRef
		outcome.Changed = len(stale) > 0

		return conflict(outcome, err)
	}

	finish(outcome, desc.Version, len(stale) > 0)
	logger.InfoKV(ctx, "Bundle applied",
		"status", outcome.Status, "files", len(stale), "version", desc.Version)

	return outcome
}

// base resolves the folder the bundle is published in.
func (m *Manifest) base(remoteRef string) (*url.URL, error) {
	base, err := url.Parse(m.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse manifest url: %w", err)
	}

	if remoteRef != "" {
		base.Path = path.Join(base.Path, remoteRef)
	}

	return base, nil
}

// get downloads a file from the bundle folder.
func (m *Manifest) get(ctx context.Context, base *url.URL, name string) ([]byte, error) {
	fileURL := *base
	// Use path.Join to normalize duplicate slashes when composing the URL path.
	fileURL.Path = path.Join(fileURL.Path, name)
	finalURL := fileURL.String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	client := m.Client
	if client == nil {
		client = http.DefaultClient
	}

	response, err := client.Do(req)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s, %s: %w", finalURL, response.Status, errBadHTTPStatus)
	}

	return io.ReadAll(response.Body)
}

// staleFiles lists the described files that are missing locally or differ.
func staleFiles(localPath string, desc *Description) ([]string, error) {
	var stale []string

	for _, name := range desc.Names() {
		want, err := desc.Checksum(name)
		if err != nil {
			return nil, err
		}

		have, err := FileChecksum(filepath.Join(localPath, filepath.FromSlash(name)))
		if errors.Is(err, fs.ErrNotExist) {
			stale = append(stale, name)
			continue
		}

		if err != nil {
			return nil, err
		}

		if !bytes.Equal(want, have) {
			stale = append(stale, name)
		}
	}

	return stale, nil
}

// apply atomically replaces one file, verifying its checksum.
func apply(localPath, name string, data []byte, desc *Description) error {
	checksum, err := desc.Checksum(name)
	if err != nil {
		return err
	}

	target := filepath.Join(localPath, filepath.FromSlash(name))
	mode := defaultFileMode

	info, err := os.Stat(target)
	created := false

	switch {
	case err == nil:
		mode = info.Mode().Perm()
	case errors.Is(err, fs.ErrNotExist):
		if err = os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
			return err
		}

		var placeholder *os.File

		if placeholder, err = os.OpenFile(target, os.O_CREATE|os.O_WRONLY, mode); err != nil {
			return err
		}

		if err = placeholder.Close(); err != nil {
			return err
		}

		created = true
	default:
		return err
	}

	options := goupdate.Options{
		TargetPath: target,
		TargetMode: mode,
		Checksum:   checksum,
		Hash:       ChecksumFunction,
	}

	if err = goupdate.Apply(bytes.NewReader(data), options); err != nil {
		if created {
			_ = os.Remove(target)
		}

		return err
	}

	oldFileName := target + ".old"
	if _, err = os.Stat(oldFileName); err == nil {
		_ = os.Remove(oldFileName)
	}

	return nil
}

// readVersionMarker returns the applied bundle version, empty when unknown.
func readVersionMarker(localPath string) string {
	data, err := os.ReadFile(filepath.Join(localPath, VersionMarkerFilename))
	if err != nil {
		return ""
	}

	return strings.TrimSpace(string(data))
}

func writeVersionMarker(localPath, version string) error {
	if err := os.MkdirAll(localPath, 0o750); err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(localPath, VersionMarkerFilename), []byte(version+"\n"), 0o600)
}
