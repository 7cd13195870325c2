//go:build freebsd

package transport

import "golang.org/x/sys/unix"

const bsdKeepAliveOption = unix.TCP_KEEPINTVL
