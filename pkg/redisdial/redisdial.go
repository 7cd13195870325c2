// Package redisdial plugs an env.Environment into go-redis, so a
// redis.Client opens its sockets through the environment's factories,
// defaults, keep-alive tuning and dial rate limit.
package redisdial

import (
	"context"
	"net"

	"github.com/redis/go-redis/v9"

	"github.com/kvwire/kvnet/pkg/env"
	"github.com/kvwire/kvnet/pkg/transport"
)

// RawDialer opens unwrapped transports. *env.NetEnvironment implements it.
type RawDialer interface {
	Dial(ctx context.Context, kind env.Kind, cfg transport.DialConfig) (net.Conn, error)
}

// DialFunc returns a function suitable for redis.Options.Dialer. The
// address go-redis passes replaces base.Address; a "unix" network selects
// the unix kind regardless of kind.
func DialFunc(d RawDialer, kind env.Kind, base transport.DialConfig) func(ctx context.Context, network, addr string) (net.Conn, error) {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		cfg := base
		if addr != "" {
			cfg.Address = addr
		}
		k := kind
		if network == "unix" {
			k = env.KindUnix
		}
		return d.Dial(ctx, k, cfg)
	}
}

// Option adjusts the generated redis.Options.
type Option func(*redis.Options)

// WithPassword sets the AUTH password.
func WithPassword(password string) Option {
	return func(o *redis.Options) { o.Password = password }
}

// WithDB selects a database after connecting.
func WithDB(db int) Option {
	return func(o *redis.Options) { o.DB = db }
}

// WithProtocol pins the RESP protocol version (2 or 3).
func WithProtocol(version int) Option {
	return func(o *redis.Options) { o.Protocol = version }
}

// WithoutIdentity stops the client from sending CLIENT SETINFO.
func WithoutIdentity() Option {
	return func(o *redis.Options) { o.DisableIdentity = true }
}

// WithPoolSize sets the connection pool size.
func WithPoolSize(n int) Option {
	return func(o *redis.Options) { o.PoolSize = n }
}

// NewOptions builds redis.Options that dial through d. Timeouts come from
// base; TLS, when kind is ssl, is done by the environment's factory.
func NewOptions(d RawDialer, kind env.Kind, base transport.DialConfig, opts ...Option) *redis.Options {
	o := &redis.Options{
		Network: "tcp",
		Addr:    base.Address,
		Dialer:  DialFunc(d, kind, base),
	}
	if kind == env.KindUnix {
		o.Network = "unix"
	}
	if o.Addr == "" {
		o.Addr = transport.DefaultTCPAddress
		if kind == env.KindUnix {
			o.Addr = transport.DefaultUnixPath
		}
	}
	if base.ConnectTimeout > 0 {
		o.DialTimeout = base.ConnectTimeout
	}
	if base.SocketTimeout > 0 {
		o.ReadTimeout = base.SocketTimeout
		o.WriteTimeout = base.SocketTimeout
	}

	for _, opt := range opts {
		opt(o)
	}
	return o
}

// NewClient returns a redis.Client that dials through d.
func NewClient(d RawDialer, kind env.Kind, base transport.DialConfig, opts ...Option) *redis.Client {
	return redis.NewClient(NewOptions(d, kind, base, opts...))
}

// Compile-time interface satisfaction check.
var _ RawDialer = (*env.NetEnvironment)(nil)
