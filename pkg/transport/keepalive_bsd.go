//go:build darwin || freebsd

package transport

import (
	"os"
	"runtime"
	"syscall"

	"golang.org/x/sys/unix"
)

// BSDKeepAlive sets the single keep-alive option these kernels expose
// (bsdKeepAliveOption) to seconds/3.
type BSDKeepAlive struct{}

func newPlatformKeepAlive() KeepAliveStrategy { return BSDKeepAlive{} }

// Name returns the OS name.
func (BSDKeepAlive) Name() string { return runtime.GOOS }

// Apply sets bsdKeepAliveOption to seconds/3.
func (BSDKeepAlive) Apply(rc syscall.RawConn, seconds int) error {
	interval := BSDKeepAliveInterval(seconds)
	return control(rc, func(fd uintptr) error {
		s := int(fd)
		if err := unix.SetsockoptInt(s, unix.IPPROTO_TCP, bsdKeepAliveOption, interval); err != nil {
			return os.NewSyscallError("setsockopt keep-alive", err)
		}
		return nil
	})
}
