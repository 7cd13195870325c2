// Command kvnet-probe opens connections through the kvnet environment and
// talks to a RESP server over them.
//
// It sends a single command, runs an interactive shell, or measures
// PING round trips over many connections with bounded parallelism.
//
// Usage:
//
//	kvnet-probe [flags] [command [args...]]
//
// Flags:
//
//	-config string           YAML configuration file
//	-kind string             Transport: tcp, unix, ssl
//	-addr string             host:port, or socket path for unix
//	-connect-timeout dur     Connect and handshake timeout
//	-timeout dur             Send/receive timeout
//	-keepalive dur           TCP keep-alive period (0 = off)
//	-nodelay string          TCP_NODELAY: true, false, or empty for the OS default
//	-ca, -cert, -key string  TLS files for the ssl kind
//	-server-name string      TLS server name override
//	-insecure                Skip TLS certificate verification
//	-i                       Interactive shell
//	-ping int                Number of PING connections to time
//	-parallel int            Connections open at once with -ping
//	-trace string            Connection trace file (CBOR), see kvnet-log
//	-trace-console           Also write the connection trace to the log
//	-log-level string        debug, info, warn, error
//
// Examples:
//
//	# One-shot command
//	kvnet-probe -addr 127.0.0.1:6379 SET greeting hello
//
//	# Shell over TLS with a private CA
//	kvnet-probe -kind ssl -addr kv.example:6380 -ca ca.pem -i
//
//	# 1000 PINGs, 50 connections at a time, traced
//	kvnet-probe -ping 1000 -parallel 50 -trace probe.ktrace
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/kvwire/kvnet/cmd/kvnet-probe/probe"
	"github.com/kvwire/kvnet/pkg/env"
	"github.com/kvwire/kvnet/pkg/log"
)

var (
	configFile     = flag.String("config", "", "YAML configuration file")
	kind           = flag.String("kind", "tcp", "Transport: tcp, unix, ssl")
	addr           = flag.String("addr", "", "Server address, host:port or socket path")
	connectTimeout = flag.Duration("connect-timeout", 5*time.Second, "Connect and handshake timeout")
	timeout        = flag.Duration("timeout", 0, "Send/receive timeout (0 = block)")
	keepAlive      = flag.Duration("keepalive", 0, "TCP keep-alive period (0 = off)")
	noDelay        = flag.String("nodelay", "", "TCP_NODELAY: true, false, or empty for the OS default")
	caFile         = flag.String("ca", "", "CA certificate file for the ssl kind")
	certFile       = flag.String("cert", "", "Client certificate file for the ssl kind")
	keyFile        = flag.String("key", "", "Client key file for the ssl kind")
	serverName     = flag.String("server-name", "", "TLS server name override")
	insecure       = flag.Bool("insecure", false, "Skip TLS certificate verification")
	interactive    = flag.Bool("i", false, "Interactive shell")
	pingCount      = flag.Int("ping", 0, "Number of PING connections to time")
	parallel       = flag.Int("parallel", 1, "Connections open at once with -ping")
	traceFile      = flag.String("trace", "", "Connection trace file (CBOR format)")
	traceConsole   = flag.Bool("trace-console", false, "Also write the connection trace to the log")
	logLevel       = flag.String("log-level", "info", "Log level: debug, info, warn, error")
)

// errReplyError marks a one-shot command the server rejected.
var errReplyError = errors.New("server returned an error reply")

func main() {
	flag.Parse()
	os.Exit(run())
}

func run() int {
	logger, err := newLogger(*logLevel)
	if err != nil {
		return fail(err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return fail(err)
	}

	var traces []log.Logger
	if *traceFile != "" {
		fl, err := log.NewFileLogger(*traceFile)
		if err != nil {
			return fail(fmt.Errorf("failed to create trace file: %w", err))
		}
		defer fl.Close()
		traces = append(traces, fl)
	}
	if *traceConsole {
		traces = append(traces, log.NewSlogAdapterLevel(logger, slog.LevelInfo))
	}
	var trace log.Logger
	if len(traces) > 0 {
		trace = log.NewMultiLogger(traces...)
	}

	e, err := env.NewFromConfig(cfg, logger, trace)
	if err != nil {
		return fail(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *pingCount > 0 {
		err = runPing(ctx, e, cfg.TransportKind())
	} else {
		err = runSession(ctx, e, cfg.TransportKind(), logger)
	}
	switch {
	case errors.Is(err, errReplyError):
		return 2
	case err != nil:
		return fail(err)
	}
	return 0
}

// loadConfig reads -config, if any, and applies the flags the user set
// on top of it.
func loadConfig() (*env.Config, error) {
	cfg := env.DefaultConfig()
	c := &cfg
	if *configFile != "" {
		var err error
		if c, err = env.LoadConfig(*configFile); err != nil {
			return nil, err
		}
	}

	var tlsFlags bool
	var err error
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "kind":
			c.Kind = *kind
		case "addr":
			c.Address = *addr
		case "connect-timeout":
			c.ConnectTimeout = *connectTimeout
		case "timeout":
			c.SocketTimeout = *timeout
		case "keepalive":
			c.TCPKeepAlive = *keepAlive
		case "nodelay":
			c.TCPNoDelay, err = parseNoDelay(*noDelay)
		case "ca", "cert", "key", "server-name", "insecure":
			tlsFlags = true
		}
	})
	if err != nil {
		return nil, err
	}

	if tlsFlags {
		if c.TLS == nil {
			c.TLS = &env.TLSFileConfig{}
		}
		if *caFile != "" {
			c.TLS.CAFile = *caFile
		}
		if *certFile != "" {
			c.TLS.CertFile = *certFile
		}
		if *keyFile != "" {
			c.TLS.KeyFile = *keyFile
		}
		if *serverName != "" {
			c.TLS.ServerName = *serverName
		}
		if *insecure {
			c.TLS.InsecureSkipVerify = true
		}
	}
	return c, nil
}

func parseNoDelay(s string) (*bool, error) {
	if s == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil, fmt.Errorf("invalid -nodelay %q: %w", s, err)
	}
	return &b, nil
}

func runSession(ctx context.Context, e *env.NetEnvironment, k env.Kind, logger *slog.Logger) error {
	conn, err := e.Connect(ctx, k, e.Defaults())
	if err != nil {
		return err
	}
	logger.Info("connected",
		"kind", k,
		"peer", conn.Peername().String(),
		"conn_id", conn.ID())

	session := probe.NewSession(conn, e.Lock(), 0)
	defer session.Close()

	if *interactive {
		shell, err := probe.NewShell(session, conn.Peername().String()+"> ", nil)
		if err != nil {
			return err
		}
		return shell.Run(ctx)
	}

	args := flag.Args()
	if len(args) == 0 {
		args = []string{"PING"}
	}
	reply, err := session.Do(ctx, args...)
	if err != nil {
		return err
	}
	fmt.Println(reply.String())
	if reply.IsError() {
		return errReplyError
	}
	return nil
}

func runPing(ctx context.Context, e *env.NetEnvironment, k env.Kind) error {
	start := time.Now()
	res, err := probe.RunPing(ctx, e, probe.PingOptions{
		Kind:     k,
		Dial:     e.Defaults(),
		Count:    *pingCount,
		Parallel: *parallel,
	})

	fmt.Printf("%d sent, %d ok, %d failed in %v\n",
		res.Sent, res.Succeeded, len(res.Errors), time.Since(start).Round(time.Millisecond))
	if res.Succeeded > 0 {
		fmt.Printf("latency p50=%v p90=%v p99=%v max=%v\n",
			res.Percentile(50), res.Percentile(90), res.Percentile(99), res.Percentile(100))
	}
	for i, perr := range res.Errors {
		if i == 5 {
			fmt.Printf("... %d more errors\n", len(res.Errors)-i)
			break
		}
		fmt.Printf("error: %v\n", perr)
	}
	return err
}

func newLogger(level string) (*slog.Logger, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, fmt.Errorf("invalid -log-level %q", level)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})), nil
}

func fail(err error) int {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return 1
}
