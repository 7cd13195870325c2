//go:build windows

package transport

import (
	"os"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

// WindowsKeepAlive sets SIO_KEEPALIVE_VALS.
type WindowsKeepAlive struct{}

func newPlatformKeepAlive() KeepAliveStrategy { return WindowsKeepAlive{} }

// Name returns "windows".
func (WindowsKeepAlive) Name() string { return "windows" }

// Apply issues SIO_KEEPALIVE_VALS {1, seconds*1000, (seconds/3)*1000}.
func (WindowsKeepAlive) Apply(rc syscall.RawConn, seconds int) error {
	onOff, timeMs, intervalMs := WindowsKeepAliveVals(seconds)
	ka := windows.TCPKeepalive{
		OnOff:    onOff,
		Time:     timeMs,
		Interval: intervalMs,
	}
	return control(rc, func(fd uintptr) error {
		var returned uint32
		err := windows.WSAIoctl(
			windows.Handle(fd),
			windows.SIO_KEEPALIVE_VALS,
			(*byte)(unsafe.Pointer(&ka)),
			uint32(unsafe.Sizeof(ka)),
			nil, 0, &returned, nil, 0,
		)
		return os.NewSyscallError("WSAIoctl SIO_KEEPALIVE_VALS", err)
	})
}
