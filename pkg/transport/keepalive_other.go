//go:build !linux && !darwin && !freebsd && !windows

package transport

// Keep-alive tuning is not available here; requests are silently ignored.
func newPlatformKeepAlive() KeepAliveStrategy { return NoopKeepAlive{} }
