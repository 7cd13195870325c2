package transport

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"os"
)

// TLSConfig holds the material for client TLS connections.
type TLSConfig struct {
	// Certificate is the optional client certificate (mutual TLS).
	Certificate *tls.Certificate

	// RootCAs is the pool of trusted CA certificates (nil = system pool).
	RootCAs *x509.CertPool

	// ServerName is the expected server name.
	ServerName string

	// InsecureSkipVerify disables certificate verification.
	// Only for testing - never use in production!
	InsecureSkipVerify bool
}

// NewClientTLSConfig creates a client tls.Config. TLS 1.2 is the minimum;
// key-value servers commonly stop at 1.2.
func NewClientTLSConfig(cfg *TLSConfig) (*tls.Config, error) {
	if cfg == nil {
		return nil, ErrTLSConfigRequired
	}

	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
		RootCAs:    cfg.RootCAs,
		ServerName: cfg.ServerName,

		// For testing only
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}
	if cfg.Certificate != nil {
		if len(cfg.Certificate.Certificate) == 0 {
			return nil, fmt.Errorf("client certificate is empty")
		}
		tlsConfig.Certificates = []tls.Certificate{*cfg.Certificate}
	}
	return tlsConfig, nil
}

// LoadTLSConfig reads PEM files into a TLSConfig. caFile may be empty to
// use the system pool; certFile and keyFile must be given together.
func LoadTLSConfig(caFile, certFile, keyFile string) (*TLSConfig, error) {
	cfg := &TLSConfig{}

	if caFile != "" {
		pem, err := os.ReadFile(caFile)
		if err != nil {
			return nil, fmt.Errorf("read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", caFile)
		}
		cfg.RootCAs = pool
	}

	if (certFile == "") != (keyFile == "") {
		return nil, fmt.Errorf("cert_file and key_file must be set together")
	}
	if certFile != "" {
		cert, err := tls.LoadX509KeyPair(certFile, keyFile)
		if err != nil {
			return nil, fmt.Errorf("load client certificate: %w", err)
		}
		cfg.Certificate = &cert
	}
	return cfg, nil
}

// clientTLSConfig returns a copy of base with the server name resolved:
// an explicit serverName wins, then base.ServerName, then the host part
// of addr. IP hosts are still used for verification; crypto/tls omits
// them from SNI.
func clientTLSConfig(base *tls.Config, serverName, addr string) *tls.Config {
	conf := base.Clone()
	switch {
	case serverName != "":
		conf.ServerName = serverName
	case conf.ServerName == "":
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		}
		conf.ServerName = host
	}
	return conf
}
