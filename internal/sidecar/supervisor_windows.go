//go:build windows

package sidecar

import (
	"os"
	"syscall"
)

// sysProcAttr creates the sidecar in its own process group so it does not
// receive console control events meant for the host.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}

// terminate forcefully kills the sidecar process.
func terminate(p *os.Process) error {
	return p.Kill()
}
