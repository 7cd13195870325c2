package env_test

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kvwire/kvnet/internal/testserver"
	"github.com/kvwire/kvnet/pkg/concurrency"
	"github.com/kvwire/kvnet/pkg/env"
	"github.com/kvwire/kvnet/pkg/transport"
)

// recordingFactory captures the options it is called with.
type recordingFactory struct {
	mu    sync.Mutex
	calls []transport.DialConfig
	err   error
}

func (f *recordingFactory) dial(_ context.Context, cfg transport.DialConfig) (net.Conn, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cfg)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	client, server := net.Pipe()
	go func() {
		defer server.Close()
		buf := make([]byte, 512)
		for {
			if _, err := server.Read(buf); err != nil {
				return
			}
		}
	}()
	return client, nil
}

func (f *recordingFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestSocketKinds(t *testing.T) {
	certs := testserver.GenerateCerts(t)
	e := env.New(transport.DialConfig{
		ConnectTimeout: 5 * time.Second,
		SocketTimeout:  5 * time.Second,
		TLSConfig:      certs.ClientTLSConfig(),
	})

	tests := []struct {
		kind env.Kind
		srv  *testserver.Server
	}{
		{env.KindTCP, testserver.StartTCP(t, testserver.Echo)},
		{env.KindUnix, testserver.StartUnix(t, testserver.Echo)},
		{env.KindSSL, testserver.StartTLS(t, certs, testserver.Echo)},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			conn, err := e.Socket(context.Background(), tt.kind, transport.DialConfig{Address: tt.srv.Addr()})
			require.NoError(t, err)
			defer conn.Close()

			assert.Equal(t, tt.kind.String(), conn.Kind())

			require.NoError(t, conn.Send(context.Background(), []byte("PING")))
			var got []byte
			for len(got) < 4 {
				r, err := conn.Recv(context.Background())
				require.NoError(t, err)
				require.Equal(t, transport.RecvData, r.Status)
				got = append(got, r.Data...)
			}
			assert.Equal(t, "PING", string(got))
		})
	}
}

func TestSocketUnknownKind(t *testing.T) {
	f := &recordingFactory{}
	e := env.New(transport.DialConfig{})
	require.NoError(t, e.Register(env.KindTCP, f.dial))

	conn, err := e.Socket(context.Background(), env.Kind("udp"), transport.DialConfig{})
	assert.Nil(t, conn)
	require.ErrorIs(t, err, env.ErrUnknownKind)
	assert.Zero(t, f.count(), "factory called for unknown kind")
}

func TestSocketPropagatesFactoryError(t *testing.T) {
	boom := errors.New("connection refused")
	e := env.New(transport.DialConfig{})
	require.NoError(t, e.Register(env.KindTCP, (&recordingFactory{err: boom}).dial))

	conn, err := e.Socket(context.Background(), env.KindTCP, transport.DialConfig{})
	assert.Nil(t, conn)
	assert.ErrorIs(t, err, boom)
}

func TestSocketMergesDefaults(t *testing.T) {
	f := &recordingFactory{}
	e := env.New(transport.DialConfig{
		Address:        "cache:6379",
		ConnectTimeout: 2 * time.Second,
		SocketTimeout:  time.Second,
		TCPKeepAlive:   30 * time.Second,
		TCPNoDelay:     transport.Bool(true),
		BufferSize:     1024,
		ServerName:     "cache.internal",
	})
	require.NoError(t, e.Register(env.KindTCP, f.dial))

	conn, err := e.Socket(context.Background(), env.KindTCP, transport.DialConfig{
		Address:    "replica:6380",
		TCPNoDelay: transport.Bool(false),
	})
	require.NoError(t, err)
	defer conn.Close()

	require.Equal(t, 1, f.count())
	got := f.calls[0]
	assert.Equal(t, "replica:6380", got.Address)
	assert.Equal(t, 2*time.Second, got.ConnectTimeout)
	assert.Equal(t, time.Second, got.SocketTimeout)
	assert.Equal(t, 30*time.Second, got.TCPKeepAlive)
	require.NotNil(t, got.TCPNoDelay)
	assert.False(t, *got.TCPNoDelay)
	assert.Equal(t, 1024, got.BufferSize)
	assert.Equal(t, "cache.internal", got.ServerName)

	assert.Equal(t, "cache:6379", e.Defaults().Address, "defaults modified")
}

func TestSocketDisabledOverridesDefaults(t *testing.T) {
	f := &recordingFactory{}
	e := env.New(transport.DialConfig{
		ConnectTimeout: 2 * time.Second,
		SocketTimeout:  time.Second,
		TCPKeepAlive:   30 * time.Second,
	})
	require.NoError(t, e.Register(env.KindTCP, f.dial))

	conn, err := e.Socket(context.Background(), env.KindTCP, transport.DialConfig{
		ConnectTimeout: transport.Disabled,
		SocketTimeout:  transport.Disabled,
		TCPKeepAlive:   transport.Disabled,
	})
	require.NoError(t, err)
	defer conn.Close()

	require.Equal(t, 1, f.count())
	got := f.calls[0]
	assert.Equal(t, transport.Disabled, got.ConnectTimeout)
	assert.Equal(t, transport.Disabled, got.SocketTimeout)
	assert.Equal(t, transport.Disabled, got.TCPKeepAlive)
}

func TestSocketDisabledTimeoutBlocks(t *testing.T) {
	srv := testserver.StartTCP(t, testserver.Hold)
	e := env.New(transport.DialConfig{SocketTimeout: 30 * time.Millisecond})

	conn, err := e.Socket(context.Background(), env.KindTCP, transport.DialConfig{
		Address:       srv.Addr(),
		SocketTimeout: transport.Disabled,
	})
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	_, err = conn.Recv(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded, "default socket timeout still applied")
}

func TestSocketDefaultTimeoutApplies(t *testing.T) {
	srv := testserver.StartTCP(t, testserver.Hold)
	e := env.New(transport.DialConfig{SocketTimeout: 30 * time.Millisecond})

	conn, err := e.Socket(context.Background(), env.KindTCP, transport.DialConfig{Address: srv.Addr()})
	require.NoError(t, err)
	defer conn.Close()

	r, err := conn.Recv(context.Background())
	require.NoError(t, err)
	assert.Equal(t, transport.RecvTimeout, r.Status)
}

func TestRegister(t *testing.T) {
	e := env.New(transport.DialConfig{})

	assert.ErrorIs(t, e.Register(env.KindTCP, nil), transport.ErrNilFactory)
	assert.ErrorIs(t, e.Register("", (&recordingFactory{}).dial), env.ErrUnknownKind)

	f := &recordingFactory{}
	require.NoError(t, e.Register("pipe", f.dial))

	conn, err := e.Socket(context.Background(), "pipe", transport.DialConfig{})
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, 1, f.count())
}

func TestDialRateLimit(t *testing.T) {
	f := &recordingFactory{}
	e := env.New(transport.DialConfig{})
	require.NoError(t, e.Register(env.KindTCP, f.dial))
	e.SetDialRate(0.5, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	conn, err := e.Socket(ctx, env.KindTCP, transport.DialConfig{})
	require.NoError(t, err)
	conn.Close()

	_, err = e.Socket(ctx, env.KindTCP, transport.DialConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dial rate limit")
	assert.Equal(t, 1, f.count())

	e.SetDialRate(0, 0)
	conn, err = e.Socket(context.Background(), env.KindTCP, transport.DialConfig{})
	require.NoError(t, err)
	conn.Close()
	assert.Equal(t, 2, f.count())
}

func TestDialReturnsRawConn(t *testing.T) {
	srv := testserver.StartUnix(t, testserver.Hold)
	e := env.New(transport.DialConfig{Address: srv.Addr()})

	conn, err := e.Dial(context.Background(), env.KindUnix, transport.DialConfig{})
	require.NoError(t, err)
	defer conn.Close()

	_, ok := conn.(*net.UnixConn)
	assert.True(t, ok, "expected *net.UnixConn, got %T", conn)
}

func TestPrimitives(t *testing.T) {
	var e env.Environment = env.Default()

	sem := e.Semaphore(2)
	assert.Equal(t, 2, sem.Capacity())
	assert.Equal(t, 2, sem.Available())
	assert.IsType(t, &concurrency.Semaphore{}, sem)

	lock := e.Lock()
	assert.False(t, lock.Locked())
	require.True(t, lock.TryAcquire())
	assert.True(t, lock.Locked())
	require.NoError(t, lock.Release())

	other := e.Lock()
	require.True(t, other.TryAcquire(), "locks are independent")
	assert.False(t, lock.Locked())
	require.NoError(t, other.Release())

	assert.Same(t, env.Default(), env.Default())
}
