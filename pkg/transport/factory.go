package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"time"
)

// Factory opens one connected transport. It must either return a usable
// net.Conn or an error with nothing left open.
type Factory func(ctx context.Context, cfg DialConfig) (net.Conn, error)

// DialTCP connects to cfg.Address (default DefaultTCPAddress) and applies
// TCPNoDelay and TCPKeepAlive once connected.
func DialTCP(ctx context.Context, cfg DialConfig) (net.Conn, error) {
	addr := cfg.tcpAddress()

	dctx, cancel := connectContext(ctx, cfg.ConnectTimeout)
	defer cancel()

	conn, err := cfg.dialer().DialContext(dctx, "tcp", addr)
	if err != nil {
		return nil, connectError(ctx, dctx, cfg.ConnectTimeout, "tcp", addr, err)
	}

	if err := tuneTCP(conn, cfg); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// DialUnix connects to the Unix socket at cfg.Address (default
// DefaultUnixPath). No socket tuning is applied.
func DialUnix(ctx context.Context, cfg DialConfig) (net.Conn, error) {
	path := cfg.unixPath()

	dctx, cancel := connectContext(ctx, cfg.ConnectTimeout)
	defer cancel()

	conn, err := cfg.dialer().DialContext(dctx, "unix", path)
	if err != nil {
		return nil, connectError(ctx, dctx, cfg.ConnectTimeout, "unix", path, err)
	}
	return conn, nil
}

// DialTLS connects like DialTCP and then performs a client TLS handshake
// with cfg.TLSConfig. The handshake shares the connect deadline.
func DialTLS(ctx context.Context, cfg DialConfig) (net.Conn, error) {
	if cfg.TLSConfig == nil {
		return nil, ErrTLSConfigRequired
	}
	addr := cfg.tcpAddress()

	dctx, cancel := connectContext(ctx, cfg.ConnectTimeout)
	defer cancel()

	raw, err := cfg.dialer().DialContext(dctx, "tcp", addr)
	if err != nil {
		return nil, connectError(ctx, dctx, cfg.ConnectTimeout, "tcp", addr, err)
	}

	if err := tuneTCP(raw, cfg); err != nil {
		raw.Close()
		return nil, err
	}

	tlsConn := tls.Client(raw, clientTLSConfig(cfg.TLSConfig, cfg.ServerName, addr))
	if err := tlsConn.HandshakeContext(dctx); err != nil {
		raw.Close()
		return nil, connectError(ctx, dctx, cfg.ConnectTimeout, "tls", addr,
			fmt.Errorf("TLS handshake failed: %w", err))
	}
	return tlsConn, nil
}

// connectContext derives the connect deadline from timeout.
func connectContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}

// connectError classifies a failed connect. Caller cancellation wins over
// the connect timeout; anything else keeps the original error in the chain.
func connectError(parent, dctx context.Context, timeout time.Duration, network, addr string, err error) error {
	if perr := parent.Err(); perr != nil {
		return fmt.Errorf("dial %s %s: %w", network, addr, perr)
	}
	if timeout > 0 && (errors.Is(dctx.Err(), context.DeadlineExceeded) || isTimeout(err)) {
		return fmt.Errorf("%w: %s %s after %v: %w", ErrConnectTimeout, network, addr, timeout, err)
	}
	return fmt.Errorf("dial %s %s: %w", network, addr, err)
}

// tuneTCP applies the post-connect socket options. Transports that are
// not TCP sockets (e.g. from a custom Dialer) are left untouched.
func tuneTCP(conn net.Conn, cfg DialConfig) error {
	secs := cfg.keepAliveSeconds()
	if cfg.TCPNoDelay == nil && secs == 0 {
		return nil
	}

	tcp, ok := conn.(*net.TCPConn)
	if !ok {
		cfg.logger().Debug("skipping TCP tuning on non-TCP transport",
			"type", fmt.Sprintf("%T", conn))
		return nil
	}

	if cfg.TCPNoDelay != nil {
		if err := tcp.SetNoDelay(*cfg.TCPNoDelay); err != nil {
			return fmt.Errorf("set TCP_NODELAY: %w", err)
		}
	}

	if secs > 0 {
		if err := tcp.SetKeepAlive(true); err != nil {
			return fmt.Errorf("enable keep-alive: %w", err)
		}
		rc, err := tcp.SyscallConn()
		if err != nil {
			return fmt.Errorf("keep-alive: %w", err)
		}
		strategy := cfg.keepAliveStrategy()
		if err := strategy.Apply(rc, secs); err != nil {
			return fmt.Errorf("apply %s keep-alive (%ds): %w", strategy.Name(), secs, err)
		}
	}
	return nil
}
