package transport

import (
	"syscall"
)

// KeepAliveStrategy tunes TCP keep-alive on a connected socket.
// SO_KEEPALIVE is already enabled when Apply runs.
type KeepAliveStrategy interface {
	// Name identifies the strategy in logs and errors.
	Name() string

	// Apply sets the platform tunables derived from seconds (> 0).
	Apply(rc syscall.RawConn, seconds int) error
}

// platformKeepAlive is picked once, at init, by the build-tagged
// newPlatformKeepAlive.
var platformKeepAlive = newPlatformKeepAlive()

// PlatformKeepAlive returns the strategy for the running OS.
func PlatformKeepAlive() KeepAliveStrategy {
	return platformKeepAlive
}

// NoopKeepAlive leaves the socket as is. It is the strategy on platforms
// without tunable keep-alive.
type NoopKeepAlive struct{}

// Name returns "noop".
func (NoopKeepAlive) Name() string { return "noop" }

// Apply does nothing.
func (NoopKeepAlive) Apply(syscall.RawConn, int) error { return nil }

// LinuxKeepAliveParams maps a keep-alive period to TCP_KEEPIDLE,
// TCP_KEEPINTVL and TCP_KEEPCNT.
func LinuxKeepAliveParams(seconds int) (idle, interval, count int) {
	return seconds, seconds / 3, 3
}

// BSDKeepAliveInterval maps a keep-alive period to the single option set
// on macOS and FreeBSD.
func BSDKeepAliveInterval(seconds int) int {
	return seconds / 3
}

// WindowsKeepAliveVals maps a keep-alive period to the SIO_KEEPALIVE_VALS
// fields (milliseconds).
func WindowsKeepAliveVals(seconds int) (onOff, timeMs, intervalMs uint32) {
	return 1, uint32(seconds) * 1000, uint32(seconds/3) * 1000
}

// control runs fn against the socket descriptor and returns the first error.
func control(rc syscall.RawConn, fn func(fd uintptr) error) error {
	var opErr error
	if err := rc.Control(func(fd uintptr) {
		opErr = fn(fd)
	}); err != nil {
		return err
	}
	return opErr
}

// Compile-time interface satisfaction check.
var _ KeepAliveStrategy = NoopKeepAlive{}
