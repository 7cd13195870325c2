package transport

import (
	"crypto/tls"
	"log/slog"
	"net"
	"time"

	"github.com/kvwire/kvnet/pkg/log"
)

// Defaults.
const (
	// DefaultTCPAddress is the TCP target when DialConfig.Address is empty.
	DefaultTCPAddress = "localhost:6379"

	// DefaultUnixPath is the Unix socket target when DialConfig.Address is empty.
	DefaultUnixPath = "/tmp/redis.sock"

	// DefaultBufferSize is the maximum number of bytes returned by one Recv.
	DefaultBufferSize = 64 * 1024
)

// Disabled turns off a duration option. Unlike 0 it is kept when an
// Environment fills unset options from its defaults; any negative value
// works the same way.
const Disabled time.Duration = -1

// DialConfig configures a socket factory and the Connection built on it.
// The zero value dials DefaultTCPAddress with no timeouts.
type DialConfig struct {
	// Address is "host:port" for TCP and TLS, a filesystem path for Unix.
	Address string

	// ConnectTimeout bounds connect and, for TLS, the handshake
	// (0 or Disabled = none).
	ConnectTimeout time.Duration

	// TCPKeepAlive enables keep-alive probing tuned from this period,
	// truncated to whole seconds (0 or Disabled = leave keep-alive off).
	TCPKeepAlive time.Duration

	// TCPNoDelay sets TCP_NODELAY when non-nil; nil keeps the OS default.
	TCPNoDelay *bool

	// SocketTimeout is the default Send/Recv timeout (0 or Disabled = block).
	SocketTimeout time.Duration

	// BufferSize is the Recv buffer size (0 = DefaultBufferSize).
	BufferSize int

	// TLSConfig is required by DialTLS. It is cloned, never modified.
	TLSConfig *tls.Config

	// ServerName overrides the TLS server name used for SNI and
	// certificate verification.
	ServerName string

	// Dialer opens the raw transport (nil = net.Dialer without implicit
	// keep-alive).
	Dialer Dialer

	// KeepAliveStrategy overrides PlatformKeepAlive.
	KeepAliveStrategy KeepAliveStrategy

	// Logger receives operational logs (nil = slog.Default()).
	Logger *slog.Logger

	// ProtocolLogger receives the connection event trace (nil = off).
	ProtocolLogger log.Logger
}

// Bool returns a pointer to b, for DialConfig.TCPNoDelay.
func Bool(b bool) *bool {
	return &b
}

func (c DialConfig) dialer() Dialer {
	if c.Dialer != nil {
		return c.Dialer
	}
	// A negative KeepAlive stops the runtime from enabling its own
	// 15s keep-alive on every TCP connection.
	return &net.Dialer{KeepAlive: -1}
}

func (c DialConfig) keepAliveStrategy() KeepAliveStrategy {
	if c.KeepAliveStrategy != nil {
		return c.KeepAliveStrategy
	}
	return PlatformKeepAlive()
}

func (c DialConfig) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c DialConfig) trace() log.Logger {
	if c.ProtocolLogger != nil {
		return c.ProtocolLogger
	}
	return log.NoopLogger{}
}

func (c DialConfig) bufferSize() int {
	if c.BufferSize > 0 {
		return c.BufferSize
	}
	return DefaultBufferSize
}

func (c DialConfig) tcpAddress() string {
	if c.Address != "" {
		return c.Address
	}
	return DefaultTCPAddress
}

func (c DialConfig) unixPath() string {
	if c.Address != "" {
		return c.Address
	}
	return DefaultUnixPath
}

// keepAliveSeconds converts TCPKeepAlive to whole seconds. A positive
// period under one second counts as one second.
func (c DialConfig) keepAliveSeconds() int {
	if c.TCPKeepAlive <= 0 {
		return 0
	}
	secs := int(c.TCPKeepAlive / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}
