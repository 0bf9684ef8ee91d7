//go:build unix

package sidecar

import (
	"os"
	"syscall"
)

// sysProcAttr places the sidecar in its own process group so terminate
// can kill the whole tree, including children the interpreter forks.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setpgid: true,
	}
}

// terminate forcefully kills the sidecar's process group. There is no
// graceful phase: host shutdown must not wait on the child.
func terminate(p *os.Process) error {
	// Negative pid addresses the process group created at spawn.
	if err := syscall.Kill(-p.Pid, syscall.SIGKILL); err != nil {
		// Fall back to killing just the leader if the group is gone.
		if err == syscall.ESRCH {
			return nil
		}
		return p.Kill()
	}
	return nil
}
