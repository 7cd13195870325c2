// Package testserver provides loopback peers for kvnet tests: plain TCP,
// Unix and TLS listeners, throwaway certificates and a small RESP
// responder that is enough for a go-redis client handshake.
package testserver
