package identity

import (
	"crypto"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	certificateBlock = "CERTIFICATE"
	privateKeyBlock  = "PRIVATE KEY"
)

var (
	// ErrNoCertificate is returned when the chain file holds no certificate.
	ErrNoCertificate = errors.New("no certificate found")
	// ErrNoPrivateKey is returned when the key file holds no PKCS8 key.
	ErrNoPrivateKey = errors.New("no PKCS8-encoded private key found")
	// ErrMultiplePrivateKeys is returned when the key file holds more than one PKCS8 key.
	ErrMultiplePrivateKeys = errors.New("more than one PKCS8-encoded private key found")
	// ErrKeyMismatch is returned when the key does not belong to the leaf certificate.
	ErrKeyMismatch = errors.New("private key does not match certificate")
)

// LoadCertificates reads every CERTIFICATE block from path, in order.
func LoadCertificates(path string) ([][]byte, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read certificates: %w", err)
	}

	var chain [][]byte

	for block, rest := pem.Decode(contents); block != nil; block, rest = pem.Decode(rest) {
		if block.Type != certificateBlock {
			continue
		}

		if _, err := x509.ParseCertificate(block.Bytes); err != nil {
			return nil, fmt.Errorf("parse certificate %d in %s: %w", len(chain), path, err)
		}

		chain = append(chain, block.Bytes)
	}

	if len(chain) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoCertificate, path)
	}

	return chain, nil
}

// LoadPrivateKey reads the single PKCS8 key from path.
func LoadPrivateKey(path string) (crypto.PrivateKey, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}

	var keys []crypto.PrivateKey

	for block, rest := pem.Decode(contents); block != nil; block, rest = pem.Decode(rest) {
		if block.Type != privateKeyBlock {
			continue
		}

		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parse private key in %s: %w", path, err)
		}

		keys = append(keys, key)
	}

	switch len(keys) {
	case 0:
		return nil, fmt.Errorf("%w in %s", ErrNoPrivateKey, path)
	case 1:
		return keys[0], nil
	default:
		return nil, fmt.Errorf("%w in %s", ErrMultiplePrivateKeys, path)
	}
}

// LoadServerConfig builds a server TLS config without client authentication.
// HTTP/2 is not offered because the WebSocket upgrade needs HTTP/1.1.
func LoadServerConfig(certPath, keyPath string) (*tls.Config, error) {
	key, err := LoadPrivateKey(keyPath)
	if err != nil {
		return nil, err
	}

	chain, err := LoadCertificates(certPath)
	if err != nil {
		return nil, err
	}

	leaf, err := x509.ParseCertificate(chain[0])
	if err != nil {
		return nil, fmt.Errorf("parse leaf certificate: %w", err)
	}

	if !matches(leaf.PublicKey, key) {
		return nil, fmt.Errorf("%w: %s", ErrKeyMismatch, certPath)
	}

	cert := tls.Certificate{
		Certificate: chain,
		PrivateKey:  key,
		Leaf:        leaf,
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
		NextProtos:   []string{"http/1.1"},
	}, nil
}

func matches(pub crypto.PublicKey, key crypto.PrivateKey) bool {
	signer, ok := key.(crypto.Signer)
	if !ok {
		return false
	}

	eq, ok := pub.(interface{ Equal(x crypto.PublicKey) bool })

	return ok && eq.Equal(signer.Public())
}
