package transport_test

import (
	"context"
	"net"
	"sync"
	"syscall"

	"github.com/stretchr/testify/mock"
)

// MockDialer is a testify mock of transport.Dialer.
type MockDialer struct {
	mock.Mock
}

// DialContext provides a mock function with given fields: ctx, network, address
func (m *MockDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	args := m.Called(ctx, network, address)
	conn, _ := args.Get(0).(net.Conn)
	return conn, args.Error(1)
}

// blockingDialer never connects; it waits for the dial context to end.
type blockingDialer struct{}

func (blockingDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// trackingDialer dials for real and remembers every raw connection.
type trackingDialer struct {
	mu    sync.Mutex
	conns []net.Conn
}

func (d *trackingDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	var nd net.Dialer
	conn, err := nd.DialContext(ctx, network, address)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.conns = append(d.conns, conn)
	d.mu.Unlock()
	return conn, nil
}

func (d *trackingDialer) dialed() []net.Conn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]net.Conn(nil), d.conns...)
}

// recordingStrategy records Apply calls and returns err.
type recordingStrategy struct {
	mu      sync.Mutex
	seconds []int
	err     error
}

func (s *recordingStrategy) Name() string { return "recording" }

func (s *recordingStrategy) Apply(_ syscall.RawConn, seconds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seconds = append(s.seconds, seconds)
	return s.err
}

func (s *recordingStrategy) calls() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.seconds...)
}
