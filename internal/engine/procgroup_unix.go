//go:build unix

package engine

import (
	"errors"
	"os/exec"
	"syscall"
)

// setProcessGroup starts the worker as the leader of a new process group.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// signalGroup signals every process in the worker's group, so children
// forked by a wrapper script or the runtime go down with it.
func signalGroup(pid int, sig syscall.Signal) error {
	err := syscall.Kill(-pid, sig)
	if errors.Is(err, syscall.ESRCH) {
		return nil
	}
	return err
}
