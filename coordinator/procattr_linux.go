package coordinator

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// Worker processes are killed when the coordinator dies.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Pdeathsig: unix.SIGKILL}
}
