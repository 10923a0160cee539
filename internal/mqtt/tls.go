package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// NewTLSConfig builds the transport security config from certificate files.
//
// No CA certificate means the connection stays plaintext (returns nil). A CA
// certificate alone gives server-authenticated TLS; adding a client
// certificate and key upgrades to mutual TLS. A client certificate without
// its key (or vice versa) is ignored, matching how the credentials are
// loaded: both paths must be set for mTLS.
func NewTLSConfig(caCertPath, clientCertPath, clientKeyPath string) (*tls.Config, error) {
	if caCertPath == "" {
		return nil, nil
	}

	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("read ca certificate: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("ca certificate %s: no PEM certificates found", caCertPath)
	}

	cfg := &tls.Config{
		RootCAs:    pool,
		MinVersion: tls.VersionTLS12,
	}

	if clientCertPath != "" && clientKeyPath != "" {
		cert, err := tls.LoadX509KeyPair(clientCertPath, clientKeyPath)
		if err != nil {
			return nil, fmt.Errorf("load client keypair: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}

	return cfg, nil
}
