// Package log provides the connection event trace for kvnet.
//
// Every transport.Connection reports what happens on its socket as a
// stream of Events: state changes (connected, closed, broken), the bytes
// sent and received, receive timeouts and I/O errors. The trace is separate
// from operational logging (slog); it is a machine-readable record meant
// for post-mortem analysis of a client's traffic.
//
// # Basic Usage
//
// Applications enable tracing by setting DialConfig.ProtocolLogger:
//
//	// For development: mirror events to the console via slog
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// For production: append to a binary trace file
//	cfg.ProtocolLogger, _ = log.NewFileLogger("/var/log/kvnet/client.ktrace")
//
//	// Both
//	cfg.ProtocolLogger = log.NewMultiLogger(console, file)
//
// # File Format
//
// Trace files are a sequence of CBOR-encoded Events using integer map keys.
// The kvnet-log tool views and summarizes them.
package log
