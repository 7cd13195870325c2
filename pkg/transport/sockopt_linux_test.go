//go:build linux

package transport_test

import (
	"context"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/kvwire/kvnet/internal/testserver"
	"github.com/kvwire/kvnet/pkg/transport"
)

func getsockopt(t *testing.T, conn net.Conn, level, opt int) int {
	t.Helper()

	tcp, ok := conn.(*net.TCPConn)
	require.True(t, ok, "expected *net.TCPConn, got %T", conn)

	rc, err := tcp.SyscallConn()
	require.NoError(t, err)

	var (
		val    int
		optErr error
	)
	err = rc.Control(func(fd uintptr) {
		val, optErr = unix.GetsockoptInt(int(fd), level, opt)
	})
	require.NoError(t, err)
	require.NoError(t, optErr)
	return val
}

func TestDialTCPKeepAliveLinux(t *testing.T) {
	srv := testserver.StartTCP(t, testserver.Hold)

	conn, err := transport.DialTCP(context.Background(), transport.DialConfig{
		Address:      srv.Addr(),
		TCPKeepAlive: 30 * time.Second,
	})
	require.NoError(t, err)
	defer conn.Close()

	require.Equal(t, 1, getsockopt(t, conn, unix.SOL_SOCKET, unix.SO_KEEPALIVE))
	require.Equal(t, 30, getsockopt(t, conn, unix.IPPROTO_TCP, unix.TCP_KEEPIDLE))
	require.Equal(t, 10, getsockopt(t, conn, unix.IPPROTO_TCP, unix.TCP_KEEPINTVL))
	require.Equal(t, 3, getsockopt(t, conn, unix.IPPROTO_TCP, unix.TCP_KEEPCNT))
}

func TestDialTCPKeepAliveOffByDefaultLinux(t *testing.T) {
	srv := testserver.StartTCP(t, testserver.Hold)

	conn, err := transport.DialTCP(context.Background(), transport.DialConfig{Address: srv.Addr()})
	require.NoError(t, err)
	defer conn.Close()

	require.Equal(t, 0, getsockopt(t, conn, unix.SOL_SOCKET, unix.SO_KEEPALIVE))
}

func TestDialTCPKeepAliveTooShortLinux(t *testing.T) {
	srv := testserver.StartTCP(t, testserver.Hold)

	// Two seconds maps to a zero probe interval, which the kernel rejects.
	_, err := transport.DialTCP(context.Background(), transport.DialConfig{
		Address:      srv.Addr(),
		TCPKeepAlive: 2 * time.Second,
	})
	require.Error(t, err)
	require.ErrorIs(t, err, unix.EINVAL)
}

func TestDialTCPNoDelayLinux(t *testing.T) {
	srv := testserver.StartTCP(t, testserver.Hold)

	tests := []struct {
		name  string
		value *bool
		want  bool
	}{
		// Go enables TCP_NODELAY on every TCP connection it creates.
		{"unset keeps runtime default", nil, true},
		{"explicit true", transport.Bool(true), true},
		{"explicit false", transport.Bool(false), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, err := transport.DialTCP(context.Background(), transport.DialConfig{
				Address:    srv.Addr(),
				TCPNoDelay: tt.value,
			})
			require.NoError(t, err)
			defer conn.Close()

			got := getsockopt(t, conn, unix.IPPROTO_TCP, unix.TCP_NODELAY)
			require.Equal(t, tt.want, got != 0)
		})
	}
}

// enabledAtApply records SO_KEEPALIVE as seen by the strategy.
type enabledAtApply struct {
	value int
}

func (*enabledAtApply) Name() string { return "enabled-at-apply" }

func (s *enabledAtApply) Apply(rc syscall.RawConn, _ int) error {
	var optErr error
	err := rc.Control(func(fd uintptr) {
		s.value, optErr = unix.GetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_KEEPALIVE)
	})
	if err != nil {
		return err
	}
	return optErr
}

func TestKeepAliveEnabledBeforeStrategyLinux(t *testing.T) {
	srv := testserver.StartTCP(t, testserver.Hold)
	strategy := &enabledAtApply{}

	conn, err := transport.DialTCP(context.Background(), transport.DialConfig{
		Address:           srv.Addr(),
		TCPKeepAlive:      30 * time.Second,
		KeepAliveStrategy: strategy,
	})
	require.NoError(t, err)
	defer conn.Close()

	require.Equal(t, 1, strategy.value)
}
