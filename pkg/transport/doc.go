// Package transport opens and operates the sockets of a key-value store
// client.
//
// The transport layer handles:
//   - Socket factories for TCP, Unix-domain and TLS targets
//   - Post-connect tuning (TCP_NODELAY, per-platform keep-alive)
//   - The Connection wrapper: timeout-aware send, receive, close, peername
//   - A connection event trace (see package log)
//
// # Receive Contract
//
// Recv never folds its three outcomes together:
//
//	RecvData     at least one byte arrived
//	RecvEOF      the peer closed the stream gracefully
//	RecvTimeout  the deadline passed with no data; the connection is still usable
//
// Any other failure is returned as an error. Pipelines above this layer
// poll with short timeouts and branch on Received.Status.
//
// # Keep-Alive
//
// TCPKeepAlive is applied in whole seconds s, after connect:
//   - Linux: TCP_KEEPIDLE=s, TCP_KEEPINTVL=s/3, TCP_KEEPCNT=3
//   - macOS: TCP_KEEPALIVE (0x10)=s/3; FreeBSD: TCP_KEEPINTVL=s/3
//   - Windows: SIO_KEEPALIVE_VALS {1, s*1000ms, (s/3)*1000ms}
//   - Other platforms: no-op
package transport
