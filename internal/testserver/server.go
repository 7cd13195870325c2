package testserver

import (
	"crypto/tls"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// Handler serves one accepted connection. The server closes the
// connection when the handler returns.
type Handler func(conn net.Conn)

// Server is a loopback listener. With a nil Handler accepted connections
// are queued for Accept; otherwise each one is served by the handler.
type Server struct {
	listener net.Listener
	handler  Handler
	conns    chan net.Conn
	done     chan struct{}
	once     sync.Once

	mu   sync.Mutex
	open []net.Conn
	wg   sync.WaitGroup
}

// StartTCP listens on 127.0.0.1 at a random port.
func StartTCP(t testing.TB, h Handler) *Server {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	return start(t, l, h)
}

// StartUnix listens on a Unix socket in a fresh temporary directory.
func StartUnix(t testing.TB, h Handler) *Server {
	t.Helper()

	// t.TempDir paths can exceed the sun_path limit on some platforms.
	dir, err := os.MkdirTemp("", "kvnet")
	if err != nil {
		t.Fatalf("failed to create socket dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	l, err := net.Listen("unix", filepath.Join(dir, "kv.sock"))
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	return start(t, l, h)
}

// StartTLS listens on 127.0.0.1 with the server certificate from certs.
// Handshakes complete before a connection reaches Accept or the handler.
func StartTLS(t testing.TB, certs *Certs, h Handler) *Server {
	t.Helper()

	l, err := tls.Listen("tcp", "127.0.0.1:0", &tls.Config{
		Certificates: []tls.Certificate{certs.Server},
		MinVersion:   tls.VersionTLS12,
	})
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	return start(t, l, h)
}

func start(t testing.TB, l net.Listener, h Handler) *Server {
	s := &Server{
		listener: l,
		handler:  h,
		conns:    make(chan net.Conn, 16),
		done:     make(chan struct{}),
	}

	s.wg.Add(1)
	go s.acceptLoop()

	t.Cleanup(s.Close)
	return s
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		s.track(conn)

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if tc, ok := conn.(*tls.Conn); ok {
				tc.SetDeadline(time.Now().Add(5 * time.Second))
				if err := tc.Handshake(); err != nil {
					conn.Close()
					return
				}
				tc.SetDeadline(time.Time{})
			}
			if s.handler == nil {
				select {
				case s.conns <- conn:
				case <-s.done:
				}
				return
			}
			defer conn.Close()
			s.handler(conn)
		}()
	}
}

func (s *Server) track(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = append(s.open, conn)
}

// Addr returns the dial address: host:port, or the socket path.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Accept returns the next accepted connection. It fails the test if none
// arrives within five seconds.
func (s *Server) Accept(t testing.TB) net.Conn {
	t.Helper()

	select {
	case conn := <-s.conns:
		return conn
	case <-time.After(5 * time.Second):
		t.Fatalf("no connection accepted on %s", s.Addr())
		return nil
	}
}

// Close stops the listener and closes every accepted connection.
func (s *Server) Close() {
	s.once.Do(func() {
		close(s.done)
		s.listener.Close()

		s.mu.Lock()
		for _, c := range s.open {
			c.Close()
		}
		s.open = nil
		s.mu.Unlock()

		s.wg.Wait()
	})
}

// Echo writes back everything it reads until the peer closes.
func Echo(conn net.Conn) {
	io.Copy(conn, conn)
}

// Hold keeps the connection open, discarding input, until the peer closes.
func Hold(conn net.Conn) {
	io.Copy(io.Discard, conn)
}
