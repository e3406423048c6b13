//go:build !linux

package coordinator

import "syscall"

func sysProcAttr() *syscall.SysProcAttr {
	return nil
}
