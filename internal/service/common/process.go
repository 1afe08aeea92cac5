//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-ps"
)

// commLength is the length the Linux kernel truncates process names to.
const commLength = 15

// ProcessLister returns a snapshot of the process table.
type ProcessLister func() ([]ps.Process, error)

// FindProcess looks for a process, other than the current one, whose
// executable matches command. It returns the pid of the first match.
func FindProcess(list ProcessLister, command string) (int, bool, error) {
	if list == nil {
		list = ps.Processes
	}

	processes, err := list()
	if err != nil {
		return 0, false, fmt.Errorf("list processes: %w", err)
	}

	name := executableName(command)
	self := os.Getpid()

	for _, process := range processes {
		if process.Pid() == self {
			continue
		}

		if SameExecutable(process.Executable(), name) {
			return process.Pid(), true, nil
		}
	}

	return 0, false, nil
}

// SameExecutable compares a process table name with an executable name,
// tolerating the kernel's truncation of long names.
func SameExecutable(listed, name string) bool {
	listed = executableName(listed)
	if strings.EqualFold(listed, name) {
		return true
	}

	return len(listed) == commLength && len(name) > commLength && strings.EqualFold(listed, name[:commLength])
}

// executableName strips directories and a Windows ".exe" suffix.
func executableName(command string) string {
	base := filepath.Base(command)

	return strings.TrimSuffix(strings.TrimSuffix(base, ".exe"), ".EXE")
}
