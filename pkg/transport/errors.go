package transport

import (
	"errors"
	"net"
)

// Transport errors.
var (
	// ErrConnectTimeout is returned when a connect (including the TLS
	// handshake) does not finish within DialConfig.ConnectTimeout.
	ErrConnectTimeout = errors.New("connect timeout")

	// ErrSendTimeout is returned when Send does not finish within its timeout.
	ErrSendTimeout = errors.New("send timeout")

	// ErrConnectionClosed is returned by I/O on a closed Connection.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrConnectionBroken is returned by I/O on a Connection whose byte
	// stream was left in an unknown state by an interrupted send.
	ErrConnectionBroken = errors.New("connection broken")

	// ErrTLSConfigRequired is returned by DialTLS without a TLS config.
	ErrTLSConfigRequired = errors.New("TLS config is required")

	// ErrNilFactory is returned by Create without a factory.
	ErrNilFactory = errors.New("nil socket factory")

	// ErrNilConn is returned by Create when a factory reports success
	// without a transport.
	ErrNilConn = errors.New("socket factory returned no connection")
)

// isTimeout reports whether err is a deadline expiry.
func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
