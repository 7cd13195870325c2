package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/kvwire/kvnet/pkg/log"
)

// ConnectionState is the lifecycle state of a Connection.
type ConnectionState int32

const (
	// StateOpen indicates a usable connection.
	StateOpen ConnectionState = iota

	// StateBroken indicates an interrupted send left the stream in an
	// unknown state. Only Close is useful.
	StateBroken

	// StateClosed indicates the transport has been released.
	StateClosed
)

// String returns the connection state name.
func (s ConnectionState) String() string {
	switch s {
	case StateOpen:
		return "OPEN"
	case StateBroken:
		return "BROKEN"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// aLongTimeAgo is a deadline that has always passed; setting it unblocks
// pending I/O.
var aLongTimeAgo = time.Unix(1, 0)

// Connection owns one connected transport and provides buffered,
// timeout-aware I/O on it.
//
// Sends are serialized and so are receives; a send and a receive may run
// concurrently. Close may be called from any goroutine and unblocks
// pending I/O.
type Connection struct {
	id         string
	kind       string
	conn       net.Conn
	timeout    time.Duration
	bufferSize int
	readBuf    []byte

	logger *slog.Logger
	trace  log.Logger

	state     atomic.Int32
	brokenMu  sync.Mutex
	brokenErr error

	closeOnce sync.Once
	writeMu   sync.Mutex
	readMu    sync.Mutex
}

// Create opens a transport with factory and wraps it. It returns either a
// ready Connection or the factory's error; there is no partially built
// Connection.
func Create(ctx context.Context, factory Factory, cfg DialConfig) (*Connection, error) {
	if factory == nil {
		return nil, ErrNilFactory
	}

	id := uuid.NewString()
	conn, err := factory(ctx, cfg)
	if err == nil && conn == nil {
		err = ErrNilConn
	}
	if err != nil {
		traceConnectFailure(cfg, id, err)
		cfg.logger().Debug("connect failed", "conn_id", id, "address", cfg.Address, "error", err)
		return nil, err
	}

	c := &Connection{
		id:         id,
		kind:       kindOf(conn),
		conn:       conn,
		timeout:    cfg.SocketTimeout,
		bufferSize: cfg.bufferSize(),
		logger:     cfg.logger(),
		trace:      cfg.trace(),
	}
	c.readBuf = make([]byte, c.bufferSize)
	c.state.Store(int32(StateOpen))

	c.emitState("", StateOpen.String(), "connected")
	c.logger.Debug("connection opened",
		"conn_id", c.id,
		"transport", c.kind,
		"remote", c.conn.RemoteAddr().String())

	return c, nil
}

// ID returns the connection's UUID.
func (c *Connection) ID() string { return c.id }

// Kind returns "tcp", "unix" or "ssl".
func (c *Connection) Kind() string { return c.kind }

// State returns the current connection state.
func (c *Connection) State() ConnectionState {
	return ConnectionState(c.state.Load())
}

// BufferSize returns the maximum number of bytes one Recv returns.
func (c *Connection) BufferSize() int { return c.bufferSize }

// LocalAddr returns the local network address.
func (c *Connection) LocalAddr() net.Addr { return c.conn.LocalAddr() }

// RemoteAddr returns the remote network address.
func (c *Connection) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

// Peername returns the remote endpoint as host and port.
func (c *Connection) Peername() Peer { return peerOf(c.conn.RemoteAddr()) }

// TLSState returns the TLS connection state for TLS connections.
func (c *Connection) TLSState() (tls.ConnectionState, bool) {
	if tc, ok := c.conn.(*tls.Conn); ok {
		return tc.ConnectionState(), true
	}
	return tls.ConnectionState{}, false
}

// Send transmits all of data, bounded by the default socket timeout.
func (c *Connection) Send(ctx context.Context, data []byte) error {
	return c.send(ctx, data, c.timeout)
}

// SendTimeout transmits all of data within timeout, overriding the
// default socket timeout. A timeout <= 0 blocks until done.
func (c *Connection) SendTimeout(ctx context.Context, data []byte, timeout time.Duration) error {
	return c.send(ctx, data, timeout)
}

func (c *Connection) send(ctx context.Context, data []byte, timeout time.Duration) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.usable(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if timeout > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(timeout))
	}
	defer c.conn.SetWriteDeadline(time.Time{})

	stop := interruptOnDone(ctx, c.conn.SetWriteDeadline)
	n, err := c.conn.Write(data)
	stop()

	if err == nil {
		c.emitFrame(log.DirectionOut, data)
		return nil
	}

	switch {
	case c.State() == StateClosed:
		return ErrConnectionClosed
	case ctx.Err() != nil:
		c.afterInterruptedSend(n, fmt.Errorf("send interrupted: %w", ctx.Err()))
		return ctx.Err()
	case isTimeout(err):
		c.emitTimeout("send", timeout)
		terr := fmt.Errorf("%w after %v (%d of %d bytes written)", ErrSendTimeout, timeout, n, len(data))
		c.afterInterruptedSend(n, terr)
		return terr
	default:
		c.emitError("send", err)
		return err
	}
}

// afterInterruptedSend breaks the connection when the peer may have seen
// part of the payload. TLS connections always break: crypto/tls cannot
// resume a timed-out write.
func (c *Connection) afterInterruptedSend(written int, cause error) {
	if written == 0 && c.kind != "ssl" {
		return
	}
	c.markBroken(cause)
}

// Recv reads at most BufferSize bytes, bounded by the default socket
// timeout.
func (c *Connection) Recv(ctx context.Context) (Received, error) {
	return c.recv(ctx, c.timeout)
}

// RecvTimeout reads at most BufferSize bytes within timeout, overriding
// the default socket timeout. A timeout <= 0 blocks until data, EOF or an
// error.
func (c *Connection) RecvTimeout(ctx context.Context, timeout time.Duration) (Received, error) {
	return c.recv(ctx, timeout)
}

func (c *Connection) recv(ctx context.Context, timeout time.Duration) (Received, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	if err := c.usable(); err != nil {
		return Received{}, err
	}
	if err := ctx.Err(); err != nil {
		return Received{}, err
	}

	if timeout > 0 {
		c.conn.SetReadDeadline(time.Now().Add(timeout))
	}
	defer c.conn.SetReadDeadline(time.Time{})

	stop := interruptOnDone(ctx, c.conn.SetReadDeadline)
	n, err := c.read()
	stop()

	if n > 0 {
		// A trailing error (including EOF) repeats on the next call.
		data := append([]byte(nil), c.readBuf[:n]...)
		c.emitFrame(log.DirectionIn, data)
		return Received{Status: RecvData, Data: data}, nil
	}

	switch {
	case errors.Is(err, io.EOF):
		c.emitState(c.State().String(), "EOF", "peer closed stream")
		return Received{Status: RecvEOF}, nil
	case c.State() == StateClosed:
		return Received{}, ErrConnectionClosed
	case ctx.Err() != nil:
		return Received{}, ctx.Err()
	case isTimeout(err):
		c.emitTimeout("recv", timeout)
		return Received{Status: RecvTimeout}, nil
	default:
		c.emitError("recv", err)
		return Received{}, err
	}
}

// read retries zero-byte reads that carry no error.
func (c *Connection) read() (int, error) {
	for {
		n, err := c.conn.Read(c.readBuf)
		if n > 0 || err != nil {
			return n, err
		}
	}
}

// Close releases the transport. The first call returns the transport's
// close error; later calls return nil.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		old := ConnectionState(c.state.Swap(int32(StateClosed)))
		err = c.conn.Close()
		c.emitState(old.String(), StateClosed.String(), "closed by client")
		c.logger.Debug("connection closed", "conn_id", c.id, "transport", c.kind)
	})
	return err
}

// Err returns the cause that broke the connection, or nil.
func (c *Connection) Err() error {
	c.brokenMu.Lock()
	defer c.brokenMu.Unlock()
	return c.brokenErr
}

func (c *Connection) usable() error {
	switch c.State() {
	case StateClosed:
		return ErrConnectionClosed
	case StateBroken:
		return fmt.Errorf("%w: %w", ErrConnectionBroken, c.Err())
	}
	return nil
}

func (c *Connection) markBroken(cause error) {
	c.brokenMu.Lock()
	c.brokenErr = cause
	c.brokenMu.Unlock()

	if c.state.CompareAndSwap(int32(StateOpen), int32(StateBroken)) {
		c.emitState(StateOpen.String(), StateBroken.String(), cause.Error())
		c.logger.Warn("connection broken", "conn_id", c.id, "error", cause)
	}
}

// interruptOnDone expires the deadline set by setDeadline when ctx ends.
// The returned stop must be called once the I/O call has returned; after
// stop returns the deadline is no longer touched.
func interruptOnDone(ctx context.Context, setDeadline func(time.Time) error) (stop func()) {
	if ctx.Done() == nil {
		return func() {}
	}
	fired := make(chan struct{})
	stopAfter := context.AfterFunc(ctx, func() {
		setDeadline(aLongTimeAgo)
		close(fired)
	})
	return func() {
		if !stopAfter() {
			<-fired
		}
	}
}

// kindOf names the transport kind of conn.
func kindOf(conn net.Conn) string {
	switch conn.(type) {
	case *tls.Conn:
		return "ssl"
	case *net.UnixConn:
		return "unix"
	case *net.TCPConn:
		return "tcp"
	}
	if addr := conn.RemoteAddr(); addr != nil {
		return addr.Network()
	}
	return "unknown"
}
