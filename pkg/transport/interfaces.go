package transport

import (
	"context"
	"net"
	"time"
)

// Conn is the connection contract consumed by pools and pipelines.
// Implemented by Connection.
type Conn interface {
	// ID returns the connection's trace identifier.
	ID() string

	// Kind returns the transport kind ("tcp", "unix" or "ssl").
	Kind() string

	// Send transmits data in full using the default socket timeout.
	Send(ctx context.Context, data []byte) error

	// SendTimeout transmits data in full within timeout (<= 0 blocks).
	SendTimeout(ctx context.Context, data []byte, timeout time.Duration) error

	// Recv reads up to the buffer size using the default socket timeout.
	Recv(ctx context.Context) (Received, error)

	// RecvTimeout reads up to the buffer size within timeout (<= 0 blocks).
	RecvTimeout(ctx context.Context, timeout time.Duration) (Received, error)

	// Peername returns the remote endpoint as host and port.
	Peername() Peer

	// LocalAddr returns the local network address.
	LocalAddr() net.Addr

	// RemoteAddr returns the remote network address.
	RemoteAddr() net.Addr

	// Close releases the transport.
	Close() error
}

// Dialer opens raw transports. *net.Dialer satisfies it; tests and
// alternate substrates supply their own.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Compile-time interface satisfaction checks.
var (
	_ Conn   = (*Connection)(nil)
	_ Dialer = (*net.Dialer)(nil)
)
