//go:build unix

package launcher

import "syscall"

// detachedAttr puts a long-running service in its own process group so an
// operator interrupt aimed at the boot run does not reach it.
func detachedAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}
