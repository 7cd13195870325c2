package env

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"golang.org/x/time/rate"

	"github.com/kvwire/kvnet/pkg/concurrency"
	"github.com/kvwire/kvnet/pkg/transport"
)

// Environment provides the I/O primitives a client is built on.
type Environment interface {
	// Socket opens a connection of the given kind. Options left unset in
	// cfg take the environment's defaults.
	Socket(ctx context.Context, kind Kind, cfg transport.DialConfig) (transport.Conn, error)

	// Semaphore returns a new capacity limiter with limit slots.
	Semaphore(limit int) concurrency.Limiter

	// Lock returns a new, unlocked lock.
	Lock() concurrency.Locker
}

// NetEnvironment implements Environment on the net and crypto/tls
// packages. It holds no connection or limiter state and is safe for
// concurrent use.
type NetEnvironment struct {
	mu        sync.RWMutex
	factories map[Kind]transport.Factory
	defaults  transport.DialConfig
	limiter   *rate.Limiter
}

// New creates a NetEnvironment with the built-in tcp, unix and ssl
// factories. defaults fills options a Socket call leaves unset.
func New(defaults transport.DialConfig) *NetEnvironment {
	return &NetEnvironment{
		factories: map[Kind]transport.Factory{
			KindTCP:  transport.DialTCP,
			KindUnix: transport.DialUnix,
			KindSSL:  transport.DialTLS,
		},
		defaults: defaults,
	}
}

var defaultEnv = sync.OnceValue(func() *NetEnvironment {
	return New(transport.DialConfig{})
})

// Default returns the shared NetEnvironment with no defaults.
func Default() *NetEnvironment {
	return defaultEnv()
}

// Register installs factory for kind, replacing any existing one.
func (e *NetEnvironment) Register(kind Kind, factory transport.Factory) error {
	if factory == nil {
		return transport.ErrNilFactory
	}
	if kind == "" {
		return fmt.Errorf("%w: empty kind", ErrUnknownKind)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.factories[kind] = factory
	return nil
}

// SetDialRate limits connects to perSecond with the given burst.
// A perSecond <= 0 removes the limit.
func (e *NetEnvironment) SetDialRate(perSecond float64, burst int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if perSecond <= 0 {
		e.limiter = nil
		return
	}
	if burst < 1 {
		burst = 1
	}
	e.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
}

// Defaults returns a copy of the default dial options.
func (e *NetEnvironment) Defaults() transport.DialConfig {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.defaults
}

// Socket opens a Connection of the given kind.
func (e *NetEnvironment) Socket(ctx context.Context, kind Kind, cfg transport.DialConfig) (transport.Conn, error) {
	c, err := e.Connect(ctx, kind, cfg)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Connect is Socket returning the concrete Connection.
func (e *NetEnvironment) Connect(ctx context.Context, kind Kind, cfg transport.DialConfig) (*transport.Connection, error) {
	factory, cfg, err := e.prepare(ctx, kind, cfg)
	if err != nil {
		return nil, err
	}

	c, err := transport.Create(ctx, factory, cfg)
	if err != nil {
		return nil, err
	}
	logger(cfg).Debug("socket opened",
		"kind", kind,
		"conn_id", c.ID(),
		"peer", c.Peername().String())
	return c, nil
}

// Dial opens a raw transport of the given kind without wrapping it in a
// Connection. It serves callers that bring their own protocol stack.
func (e *NetEnvironment) Dial(ctx context.Context, kind Kind, cfg transport.DialConfig) (net.Conn, error) {
	factory, cfg, err := e.prepare(ctx, kind, cfg)
	if err != nil {
		return nil, err
	}
	return factory(ctx, cfg)
}

// prepare resolves the factory, merges defaults and waits for the dial
// rate limiter.
func (e *NetEnvironment) prepare(ctx context.Context, kind Kind, cfg transport.DialConfig) (transport.Factory, transport.DialConfig, error) {
	e.mu.RLock()
	factory, ok := e.factories[kind]
	defaults := e.defaults
	limiter := e.limiter
	e.mu.RUnlock()

	if !ok {
		return nil, cfg, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	cfg = merge(cfg, defaults)

	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, cfg, fmt.Errorf("dial rate limit: %w", err)
		}
	}
	return factory, cfg, nil
}

// Semaphore returns a new capacity limiter. It panics if limit is not
// positive.
func (e *NetEnvironment) Semaphore(limit int) concurrency.Limiter {
	return concurrency.NewSemaphore(limit)
}

// Lock returns a new, unlocked lock.
func (e *NetEnvironment) Lock() concurrency.Locker {
	return concurrency.NewLock()
}

// merge fills the zero fields of cfg from defaults. A negative duration
// (transport.Disabled) is not zero, so it survives and switches the
// option off for this call.
func merge(cfg, defaults transport.DialConfig) transport.DialConfig {
	if cfg.Address == "" {
		cfg.Address = defaults.Address
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = defaults.ConnectTimeout
	}
	if cfg.TCPKeepAlive == 0 {
		cfg.TCPKeepAlive = defaults.TCPKeepAlive
	}
	if cfg.TCPNoDelay == nil {
		cfg.TCPNoDelay = defaults.TCPNoDelay
	}
	if cfg.SocketTimeout == 0 {
		cfg.SocketTimeout = defaults.SocketTimeout
	}
	if cfg.BufferSize == 0 {
		cfg.BufferSize = defaults.BufferSize
	}
	if cfg.TLSConfig == nil {
		cfg.TLSConfig = defaults.TLSConfig
	}
	if cfg.ServerName == "" {
		cfg.ServerName = defaults.ServerName
	}
	if cfg.Dialer == nil {
		cfg.Dialer = defaults.Dialer
	}
	if cfg.KeepAliveStrategy == nil {
		cfg.KeepAliveStrategy = defaults.KeepAliveStrategy
	}
	if cfg.Logger == nil {
		cfg.Logger = defaults.Logger
	}
	if cfg.ProtocolLogger == nil {
		cfg.ProtocolLogger = defaults.ProtocolLogger
	}
	return cfg
}

func logger(cfg transport.DialConfig) *slog.Logger {
	if cfg.Logger != nil {
		return cfg.Logger
	}
	return slog.Default()
}

// Compile-time interface satisfaction check.
var _ Environment = (*NetEnvironment)(nil)
