//go:build darwin

package transport

import "golang.org/x/sys/unix"

// TCP_KEEPALIVE (0x10).
const bsdKeepAliveOption = unix.TCP_KEEPALIVE
