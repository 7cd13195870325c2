//go:build linux

package transport

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// LinuxKeepAlive sets idle time, probe interval and probe count.
type LinuxKeepAlive struct{}

func newPlatformKeepAlive() KeepAliveStrategy { return LinuxKeepAlive{} }

// Name returns "linux".
func (LinuxKeepAlive) Name() string { return "linux" }

// Apply sets TCP_KEEPIDLE=seconds, TCP_KEEPINTVL=seconds/3, TCP_KEEPCNT=3.
func (LinuxKeepAlive) Apply(rc syscall.RawConn, seconds int) error {
	idle, interval, count := LinuxKeepAliveParams(seconds)
	return control(rc, func(fd uintptr) error {
		s := int(fd)
		if err := unix.SetsockoptInt(s, unix.IPPROTO_TCP, unix.TCP_KEEPIDLE, idle); err != nil {
			return os.NewSyscallError("setsockopt TCP_KEEPIDLE", err)
		}
		if err := unix.SetsockoptInt(s, unix.IPPROTO_TCP, unix.TCP_KEEPINTVL, interval); err != nil {
			return os.NewSyscallError("setsockopt TCP_KEEPINTVL", err)
		}
		if err := unix.SetsockoptInt(s, unix.IPPROTO_TCP, unix.TCP_KEEPCNT, count); err != nil {
			return os.NewSyscallError("setsockopt TCP_KEEPCNT", err)
		}
		return nil
	})
}
