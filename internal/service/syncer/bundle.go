package syncer

import (
	"crypto"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	// Registers SHA-512 for checksum calculation.
	_ "crypto/sha512"
)

const (
	// BundleFilename is the published bundle description.
	BundleFilename = "fieldboot-bundle.yaml"

	// VersionMarkerFilename records the applied bundle version in the working copy.
	VersionMarkerFilename = ".fieldboot-version"

	// ChecksumFunction hashes bundle files.
	ChecksumFunction crypto.Hash = crypto.SHA512

	// defaultFileMode is applied to files new to the working copy.
	defaultFileMode os.FileMode = 0o755

	// versionLength is the number of hex digits of a derived bundle version.
	versionLength = 12
)

var (
	errHashUnavailable = errors.New("hash function unavailable")
	errUnsafeName      = errors.New("bundle file name escapes the working copy")
	errEmptyBundle     = errors.New("bundle has no files")
)

// Description lists the files of a published bundle.
type Description struct {
	// Version identifies the bundle content.
	Version string `yaml:"version"`
	// Files maps slash-separated relative names to base64 checksums.
	Files map[string]string `yaml:"files"`
}

// Names returns the file names in sorted order.
func (d *Description) Names() []string {
	return slices.Sorted(maps.Keys(d.Files))
}

// Checksum decodes the checksum of name.
func (d *Description) Checksum(name string) ([]byte, error) {
	encoded, ok := d.Files[name]
	if !ok {
		return nil, fmt.Errorf("checksum for %s: %w", name, fs.ErrNotExist)
	}

	return base64.StdEncoding.DecodeString(encoded)
}

// FileChecksum returns the checksum of the file at path.
func FileChecksum(path string) ([]byte, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	if !ChecksumFunction.Available() {
		return nil, fmt.Errorf("checksum calculation not possible: %w", errHashUnavailable)
	}

	hasher := ChecksumFunction.New()
	if _, err = hasher.Write(contents); err != nil {
		return nil, fmt.Errorf("calculate checksum: %w", err)
	}

	return hasher.Sum(nil), nil
}

// Describe builds the description of every regular file under dir, skipping
// the description itself, the version marker and .git directories. An empty
// version is derived from the file checksums, so unchanged content keeps
// its version.
func Describe(dir, version string) (*Description, error) {
	desc := &Description{
		Version: version,
		Files:   make(map[string]string),
	}

	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if entry.IsDir() {
			if entry.Name() == ".git" {
				return filepath.SkipDir
			}

			return nil
		}

		if !entry.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		name := filepath.ToSlash(rel)
		if name == BundleFilename || name == VersionMarkerFilename {
			return nil
		}

		checksum, err := FileChecksum(path)
		if err != nil {
			return err
		}

		desc.Files[name] = base64.StdEncoding.EncodeToString(checksum)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", dir, err)
	}

	if len(desc.Files) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, errEmptyBundle)
	}

	if desc.Version == "" {
		desc.Version = desc.digest()
	}

	return desc, nil
}

// digest hashes the sorted name and checksum pairs.
func (d *Description) digest() string {
	hasher := ChecksumFunction.New()

	for _, name := range d.Names() {
		_, _ = hasher.Write([]byte(name))
		_, _ = hasher.Write([]byte{0})
		_, _ = hasher.Write([]byte(d.Files[name]))
		_, _ = hasher.Write([]byte{'\n'})
	}

	return hex.EncodeToString(hasher.Sum(nil))[:versionLength]
}

// Save writes the description to dir as BundleFilename.
func (d *Description) Save(dir string) (string, error) {
	contents, err := yaml.Marshal(d)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, BundleFilename)

	return path, os.WriteFile(path, contents, 0o644) //nolint:gosec // Published over HTTP.
}

// ParseDescription decodes a YAML description and checks its file names.
func ParseDescription(data []byte) (*Description, error) {
	var desc Description
	if err := yaml.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("decode bundle description: %w", err)
	}

	for name := range desc.Files {
		if !filepath.IsLocal(filepath.FromSlash(name)) {
			return nil, fmt.Errorf("%q: %w", name, errUnsafeName)
		}
	}

	return &desc, nil
}
