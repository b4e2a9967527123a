//go:build !windows

package lib

import "syscall"

// Children get their own process group so a terminal interrupt reaches only
// this process; in-flight conversions then finish unless the run context is
// cancelled.
func childProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}
