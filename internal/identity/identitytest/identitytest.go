// Package identitytest writes throwaway TLS identities for tests.
package identitytest

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Identity is a generated certificate/key pair on disk.
type Identity struct {
	CertFile string
	KeyFile  string
	// Pool trusts the generated certificate.
	Pool *x509.CertPool
}

// Write generates a self-signed ECDSA certificate for localhost and
// 127.0.0.1 in dir.
func Write(t *testing.T, dir string) Identity {
	t.Helper()

	certDER, keyDER := generate(t)

	id := Identity{
		CertFile: filepath.Join(dir, "cert.pem"),
		KeyFile:  filepath.Join(dir, "key.pem"),
		Pool:     x509.NewCertPool(),
	}

	writePEM(t, id.CertFile, "CERTIFICATE", certDER)
	writePEM(t, id.KeyFile, "PRIVATE KEY", keyDER)

	cert, err := x509.ParseCertificate(certDER)
	require.NoError(t, err)

	id.Pool.AddCert(cert)

	return id
}

// Generate returns a fresh DER certificate and PKCS8 DER key.
func Generate(t *testing.T) (certDER, keyDER []byte) {
	t.Helper()

	return generate(t)
}

func generate(t *testing.T) ([]byte, []byte) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	serial, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: "alarm-gateway test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		DNSNames:     []string{"localhost"},
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},

		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	certDER, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)

	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)

	return certDER, keyDER
}

// WritePEM writes blocks of the given type to path.
func WritePEM(t *testing.T, path, blockType string, blocks ...[]byte) {
	t.Helper()

	writePEM(t, path, blockType, blocks...)
}

func writePEM(t *testing.T, path, blockType string, blocks ...[]byte) {
	t.Helper()

	var out []byte
	for _, b := range blocks {
		out = append(out, pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: b})...)
	}

	require.NoError(t, os.WriteFile(path, out, 0o600))
}
