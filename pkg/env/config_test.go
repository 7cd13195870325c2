package env_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kvwire/kvnet/internal/testserver"
	"github.com/kvwire/kvnet/pkg/env"
	"github.com/kvwire/kvnet/pkg/transport"
)

func TestParseConfig(t *testing.T) {
	cfg, err := env.ParseConfig([]byte(`
kind: tcp
address: cache.internal:6380
connect_timeout: 2s
socket_timeout: 500ms
tcp_keepalive: 30s
tcp_nodelay: false
buffer_size: 4096
dial_rate: 50
dial_burst: 10
`))
	require.NoError(t, err)

	assert.Equal(t, env.KindTCP, cfg.TransportKind())
	assert.Equal(t, "cache.internal:6380", cfg.Address)
	assert.Equal(t, 2*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.SocketTimeout)
	assert.Equal(t, 30*time.Second, cfg.TCPKeepAlive)
	require.NotNil(t, cfg.TCPNoDelay)
	assert.False(t, *cfg.TCPNoDelay)
	assert.Equal(t, 4096, cfg.BufferSize)
	assert.Equal(t, 50.0, cfg.DialRate)
	assert.Equal(t, 10, cfg.DialBurst)

	dc, err := cfg.DialConfig()
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6380", dc.Address)
	assert.Equal(t, 30*time.Second, dc.TCPKeepAlive)
	assert.Nil(t, dc.TLSConfig)
}

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := env.ParseConfig([]byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, env.DefaultConfig(), *cfg)
	assert.Equal(t, env.KindTCP, cfg.TransportKind())
	assert.Nil(t, cfg.TCPNoDelay, "nodelay stays unset")
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown kind", "kind: udp"},
		{"negative connect timeout", "connect_timeout: -1s"},
		{"negative socket timeout", "socket_timeout: -5ms"},
		{"keepalive too short", "tcp_keepalive: 2s"},
		{"negative buffer", "buffer_size: -1"},
		{"negative dial rate", "dial_rate: -3"},
		{"tls without ssl", "kind: tcp\ntls:\n  server_name: x"},
		{"cert without key", "kind: ssl\ntls:\n  cert_file: client.pem"},
		{"malformed yaml", "kind: [tcp"},
		{"malformed duration", "connect_timeout: soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.ParseConfig([]byte(tt.yaml))
			assert.ErrorIs(t, err, env.ErrInvalidConfig)
		})
	}
}

func TestConfigTLSAlias(t *testing.T) {
	cfg, err := env.ParseConfig([]byte("kind: tls\naddress: cache:6380\n"))
	require.NoError(t, err)
	assert.Equal(t, env.KindSSL, cfg.TransportKind())

	dc, err := cfg.DialConfig()
	require.NoError(t, err)
	require.NotNil(t, dc.TLSConfig, "ssl kind always gets a TLS config")
	assert.Nil(t, dc.TLSConfig.RootCAs, "system roots by default")
}

func TestLoadConfigTLSFiles(t *testing.T) {
	dir := t.TempDir()
	certs := testserver.GenerateCerts(t)
	caFile, _, _ := certs.WriteFiles(t, dir)

	path := filepath.Join(dir, "kvnet.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
kind: ssl
connect_timeout: 5s
tls:
  server_name: `+testserver.ServerDNSName+`
  ca_file: `+caFile+`
`), 0o600))

	cfg, err := env.LoadConfig(path)
	require.NoError(t, err)

	srv := testserver.StartTLS(t, certs, testserver.Echo)
	cfg.Address = srv.Addr()

	e, err := env.NewFromConfig(cfg, nil, nil)
	require.NoError(t, err)

	conn, err := e.Socket(context.Background(), cfg.TransportKind(), transport.DialConfig{})
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, "ssl", conn.Kind())
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := env.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
kind: ssl
tls:
  ca_file: `+filepath.Join(dir, "nope.pem")+`
`), 0o600))

	cfg, err := env.LoadConfig(path)
	require.NoError(t, err, "files are read when building dial options")

	_, err = env.NewFromConfig(cfg, nil, nil)
	assert.ErrorIs(t, err, env.ErrInvalidConfig)
}

func TestNewFromConfigDialRate(t *testing.T) {
	cfg := env.DefaultConfig()
	cfg.DialRate = 0.5
	cfg.DialBurst = 1

	e, err := env.NewFromConfig(&cfg, nil, nil)
	require.NoError(t, err)

	f := &recordingFactory{}
	require.NoError(t, e.Register(env.KindTCP, f.dial))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	conn, err := e.Socket(ctx, env.KindTCP, transport.DialConfig{})
	require.NoError(t, err)
	conn.Close()

	_, err = e.Socket(ctx, env.KindTCP, transport.DialConfig{})
	assert.Error(t, err)
}
