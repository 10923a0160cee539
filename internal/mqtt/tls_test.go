package mqtt

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeSelfSigned writes a throwaway self-signed certificate and its key to
// a temp dir and returns their paths.
func writeSelfSigned(t *testing.T) (certPath, keyPath string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	template := x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "test"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}

	dir := t.TempDir()
	certPath = filepath.Join(dir, "cert.pem")
	keyPath = filepath.Join(dir, "key.pem")
	writePEM(t, certPath, "CERTIFICATE", der)
	writePEM(t, keyPath, "EC PRIVATE KEY", keyDER)
	return certPath, keyPath
}

func writePEM(t *testing.T, path, blockType string, der []byte) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := pem.Encode(f, &pem.Block{Type: blockType, Bytes: der}); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

func TestNewTLSConfig_NoCA(t *testing.T) {
	cfg, err := NewTLSConfig("", "", "")
	if err != nil {
		t.Fatalf("NewTLSConfig() error = %v, want nil", err)
	}
	if cfg != nil {
		t.Errorf("NewTLSConfig() = %+v, want nil (plaintext)", cfg)
	}
}

func TestNewTLSConfig_CAOnly(t *testing.T) {
	caPath, _ := writeSelfSigned(t)

	cfg, err := NewTLSConfig(caPath, "", "")
	if err != nil {
		t.Fatalf("NewTLSConfig() error = %v, want nil", err)
	}
	if cfg == nil {
		t.Fatal("NewTLSConfig() = nil, want TLS config")
	}
	if cfg.RootCAs == nil {
		t.Error("RootCAs = nil, want CA pool")
	}
	if cfg.MinVersion != tls.VersionTLS12 {
		t.Errorf("MinVersion = %x, want %x", cfg.MinVersion, tls.VersionTLS12)
	}
	if len(cfg.Certificates) != 0 {
		t.Errorf("Certificates = %d, want 0 without client keypair", len(cfg.Certificates))
	}
}

func TestNewTLSConfig_MutualTLS(t *testing.T) {
	caPath, _ := writeSelfSigned(t)
	clientCert, clientKey := writeSelfSigned(t)

	cfg, err := NewTLSConfig(caPath, clientCert, clientKey)
	if err != nil {
		t.Fatalf("NewTLSConfig() error = %v, want nil", err)
	}
	if len(cfg.Certificates) != 1 {
		t.Fatalf("Certificates = %d, want 1", len(cfg.Certificates))
	}
}

func TestNewTLSConfig_ClientCertWithoutKeyIgnored(t *testing.T) {
	caPath, _ := writeSelfSigned(t)
	clientCert, _ := writeSelfSigned(t)

	cfg, err := NewTLSConfig(caPath, clientCert, "")
	if err != nil {
		t.Fatalf("NewTLSConfig() error = %v, want nil", err)
	}
	if len(cfg.Certificates) != 0 {
		t.Errorf("Certificates = %d, want 0 without the key", len(cfg.Certificates))
	}
}

func TestNewTLSConfig_Errors(t *testing.T) {
	caPath, keyPath := writeSelfSigned(t)
	junk := filepath.Join(t.TempDir(), "junk.pem")
	if err := os.WriteFile(junk, []byte("not a certificate"), 0o600); err != nil {
		t.Fatalf("write junk file: %v", err)
	}

	tests := []struct {
		name       string
		ca         string
		clientCert string
		clientKey  string
	}{
		{name: "missing ca file", ca: filepath.Join(t.TempDir(), "absent.pem")},
		{name: "ca not pem", ca: junk},
		{name: "bad client keypair", ca: caPath, clientCert: junk, clientKey: keyPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTLSConfig(tt.ca, tt.clientCert, tt.clientKey); err == nil {
				t.Fatal("NewTLSConfig() error = nil, want error")
			}
		})
	}
}
