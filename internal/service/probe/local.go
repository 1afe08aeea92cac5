package probe

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/oshokin/fieldboot/internal/service/common"
)

var (
	errNotFound    = errors.New("not found")
	errFailureLine = errors.New("failure line found")
)

// File is ready when Path exists (a device node, socket or pid file).
type File struct {
	Path string
}

// Check stats Path.
func (c *File) Check(context.Context) error {
	_, err := os.Stat(c.Path)

	return err
}

// Log is ready when a line of the file at Path matches the ready pattern.
// A line matching the failure pattern makes the service fail.
type Log struct {
	Path string

	ready *regexp.Regexp
	fail  *regexp.Regexp
}

// NewLog compiles the patterns of a log probe.
func NewLog(path, pattern, failPattern string) (*Log, error) {
	ready, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("ready pattern: %w", err)
	}

	l := &Log{Path: path, ready: ready}

	if failPattern != "" {
		if l.fail, err = regexp.Compile(failPattern); err != nil {
			return nil, fmt.Errorf("fail pattern: %w", err)
		}
	}

	return l, nil
}

// Check scans the whole file once.
func (c *Log) Check(context.Context) error {
	contents, err := os.ReadFile(filepath.Clean(c.Path))
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(bytes.NewReader(contents))
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), len(contents)+1)

	for scanner.Scan() {
		line := scanner.Bytes()

		if c.fail != nil && c.fail.Match(line) {
			return Fatal(fmt.Errorf("%w: %q", errFailureLine, line))
		}

		if c.ready.Match(line) {
			return nil
		}
	}

	if err := scanner.Err(); err != nil {
		return err
	}

	return fmt.Errorf("pattern %q in %s: %w", c.ready.String(), c.Path, errNotFound)
}

// Process is ready when a process with executable Name is running.
type Process struct {
	Name string
	List common.ProcessLister
}

// Check scans the process table once.
func (c *Process) Check(context.Context) error {
	_, found, err := common.FindProcess(c.List, c.Name)
	if err != nil {
		return err
	}

	if !found {
		return fmt.Errorf("process %s: %w", c.Name, errNotFound)
	}

	return nil
}
