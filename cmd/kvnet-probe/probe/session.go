package probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kvwire/kvnet/pkg/concurrency"
	"github.com/kvwire/kvnet/pkg/transport"
)

var (
	// ErrServerClosed is returned when the server closes the stream
	// before a reply is complete.
	ErrServerClosed = errors.New("server closed the connection")

	// ErrReplyTimeout is returned when no reply arrives in time.
	ErrReplyTimeout = errors.New("timed out waiting for reply")
)

// Session sends commands over one connection and reads their replies.
// Commands from concurrent callers are serialized.
type Session struct {
	conn    transport.Conn
	lock    concurrency.Locker
	timeout time.Duration
	buf     []byte
}

// NewSession wraps conn. timeout bounds each reply (0 = the connection's
// socket timeout).
func NewSession(conn transport.Conn, lock concurrency.Locker, timeout time.Duration) *Session {
	return &Session{conn: conn, lock: lock, timeout: timeout}
}

// Do sends one command and waits for its reply.
func (s *Session) Do(ctx context.Context, args ...string) (Reply, error) {
	if len(args) == 0 {
		return Reply{}, errors.New("empty command")
	}

	if err := s.lock.Acquire(ctx); err != nil {
		return Reply{}, err
	}
	defer s.lock.Release()

	if err := s.conn.Send(ctx, EncodeCommand(args)); err != nil {
		return Reply{}, fmt.Errorf("send %s: %w", args[0], err)
	}
	return s.read(ctx)
}

func (s *Session) read(ctx context.Context) (Reply, error) {
	for {
		reply, n, err := ParseReply(s.buf)
		if err == nil {
			s.buf = s.buf[n:]
			return reply, nil
		}
		if !errors.Is(err, ErrIncomplete) {
			return Reply{}, err
		}

		var res transport.Received
		if s.timeout > 0 {
			res, err = s.conn.RecvTimeout(ctx, s.timeout)
		} else {
			res, err = s.conn.Recv(ctx)
		}
		if err != nil {
			return Reply{}, err
		}
		switch res.Status {
		case transport.RecvEOF:
			return Reply{}, ErrServerClosed
		case transport.RecvTimeout:
			return Reply{}, ErrReplyTimeout
		}
		s.buf = append(s.buf, res.Data...)
	}
}

// Close closes the connection.
func (s *Session) Close() error {
	return s.conn.Close()
}
