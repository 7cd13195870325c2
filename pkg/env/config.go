package env

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kvwire/kvnet/pkg/log"
	"github.com/kvwire/kvnet/pkg/transport"
)

// minKeepAlive is the shortest keep-alive period whose probe interval
// (a third of the period, in whole seconds) is non-zero.
const minKeepAlive = 3 * time.Second

// Config is the file form of an environment's defaults.
type Config struct {
	// Kind is the default transport kind: tcp, unix or ssl (alias tls).
	Kind string `yaml:"kind"`

	// Address is "host:port" for tcp and ssl, a socket path for unix.
	Address string `yaml:"address"`

	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	SocketTimeout  time.Duration `yaml:"socket_timeout"`
	TCPKeepAlive   time.Duration `yaml:"tcp_keepalive"`
	TCPNoDelay     *bool         `yaml:"tcp_nodelay"`
	BufferSize     int           `yaml:"buffer_size"`

	// DialRate limits connects per second (0 = unlimited).
	DialRate float64 `yaml:"dial_rate"`

	// DialBurst is the number of connects allowed at once under DialRate.
	DialBurst int `yaml:"dial_burst"`

	TLS *TLSFileConfig `yaml:"tls"`
}

// TLSFileConfig points at PEM material for the ssl kind.
type TLSFileConfig struct {
	ServerName         string `yaml:"server_name"`
	CAFile             string `yaml:"ca_file"`
	CertFile           string `yaml:"cert_file"`
	KeyFile            string `yaml:"key_file"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
}

// DefaultConfig returns a Config for a local tcp server.
func DefaultConfig() Config {
	return Config{
		Kind:           string(KindTCP),
		Address:        transport.DefaultTCPAddress,
		ConnectTimeout: 5 * time.Second,
		BufferSize:     transport.DefaultBufferSize,
	}
}

// ParseConfig parses YAML on top of DefaultConfig and validates the result.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: parse YAML: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the config for values no factory accepts.
func (c *Config) Validate() error {
	kind, err := ParseKind(c.Kind)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	for name, d := range map[string]time.Duration{
		"connect_timeout": c.ConnectTimeout,
		"socket_timeout":  c.SocketTimeout,
		"tcp_keepalive":   c.TCPKeepAlive,
	} {
		if d < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidConfig, name)
		}
	}
	if c.TCPKeepAlive > 0 && c.TCPKeepAlive < minKeepAlive {
		return fmt.Errorf("%w: tcp_keepalive must be at least %v", ErrInvalidConfig, minKeepAlive)
	}
	if c.BufferSize < 0 {
		return fmt.Errorf("%w: buffer_size must not be negative", ErrInvalidConfig)
	}
	if c.DialRate < 0 || c.DialBurst < 0 {
		return fmt.Errorf("%w: dial_rate and dial_burst must not be negative", ErrInvalidConfig)
	}
	if c.TLS != nil && kind != KindSSL {
		return fmt.Errorf("%w: tls settings require kind ssl, got %s", ErrInvalidConfig, kind)
	}
	if c.TLS != nil && (c.TLS.CertFile == "") != (c.TLS.KeyFile == "") {
		return fmt.Errorf("%w: tls cert_file and key_file must be set together", ErrInvalidConfig)
	}
	return nil
}

// TransportKind returns the parsed Kind. Call Validate first.
func (c *Config) TransportKind() Kind {
	kind, _ := ParseKind(c.Kind)
	return kind
}

// DialConfig converts the config to dial options, loading TLS material
// for the ssl kind. Loggers are left unset.
func (c *Config) DialConfig() (transport.DialConfig, error) {
	dc := transport.DialConfig{
		Address:        c.Address,
		ConnectTimeout: c.ConnectTimeout,
		SocketTimeout:  c.SocketTimeout,
		TCPKeepAlive:   c.TCPKeepAlive,
		TCPNoDelay:     c.TCPNoDelay,
		BufferSize:     c.BufferSize,
	}
	if c.TransportKind() != KindSSL {
		return dc, nil
	}

	files := c.TLS
	if files == nil {
		files = &TLSFileConfig{}
	}
	material, err := transport.LoadTLSConfig(files.CAFile, files.CertFile, files.KeyFile)
	if err != nil {
		return dc, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	material.ServerName = files.ServerName
	material.InsecureSkipVerify = files.InsecureSkipVerify

	tlsConfig, err := transport.NewClientTLSConfig(material)
	if err != nil {
		return dc, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	dc.TLSConfig = tlsConfig
	return dc, nil
}

// NewFromConfig builds a NetEnvironment whose defaults come from cfg.
// logger and trace may be nil.
func NewFromConfig(cfg *Config, logger *slog.Logger, trace log.Logger) (*NetEnvironment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dc, err := cfg.DialConfig()
	if err != nil {
		return nil, err
	}
	dc.Logger = logger
	dc.ProtocolLogger = trace

	e := New(dc)
	e.SetDialRate(cfg.DialRate, cfg.DialBurst)
	return e, nil
}
