// Package env is the seam between a key-value client and its I/O
// substrate. Client code asks an Environment for sockets, capacity
// limiters and locks, and never touches net, crypto/tls or sync
// primitives directly.
//
// NetEnvironment is the default implementation. It dispatches a
// transport Kind to a socket factory, fills unset dial options from its
// defaults and optionally rate limits connects:
//
//	e := env.New(transport.DialConfig{ConnectTimeout: 2 * time.Second})
//	conn, err := e.Socket(ctx, env.KindTCP, transport.DialConfig{Address: "cache:6379"})
//
// Configuration can also be loaded from YAML with LoadConfig.
package env
